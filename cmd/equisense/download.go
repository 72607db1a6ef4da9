package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/komsit37/equisense/pkg/eq/download"
	"github.com/komsit37/equisense/pkg/eq/source"
)

func (a *app) downloadCmd() *cobra.Command {
	var url, dest string
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the exchange's listed-company file to the universe path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				url = a.cfg.Universe.DownloadURL
			}
			if dest == "" {
				dest = a.cfg.Universe.Path
			}
			ctx, stop := signalContext(context.Background())
			defer stop()

			res, err := download.New(nil, a.log).Fetch(ctx, url, dest)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d bytes to %s\n", res.Bytes, res.Path)
			if res.Kind == source.KindXLS && !strings.EqualFold(filepath.Ext(dest), ".xls") {
				a.log.Warn().Str("path", dest).Msg("Downloaded a legacy .xls workbook; open and re-save it as .xlsx or .csv before fetching")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "source URL (default universe.download_url)")
	cmd.Flags().StringVar(&dest, "out", "", "destination file (default universe.path)")
	return cmd
}
