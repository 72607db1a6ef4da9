package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/komsit37/equisense/pkg/eq/filter"
	"github.com/komsit37/equisense/pkg/eq/refresh"
)

func (a *app) fetchCmd() *cobra.Command {
	var (
		filterExpr string
		limit      int
		quiet      bool
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch metrics for the ticker universe and replace the snapshot",
		Long: `Fetch loads the universe file, looks up every ticker through the
configured provider and writes the normalized dataset to the snapshot file.
Tickers that fail are skipped. Interrupting keeps what was fetched so far.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filter.Parse(filterExpr)
			if err != nil {
				return fmt.Errorf("filter: %w", err)
			}
			var progress func(done, total int)
			if !quiet {
				progress = progressPrinter(time.Second)
			}

			ctx, stop := signalContext(context.Background())
			defer stop()
			rep, err := a.refreshJob(f, limit, progress).Run(ctx)
			if !quiet {
				fmt.Fprintln(os.Stderr)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d of %d tickers (%d failed, %d not found, %d canceled)\n",
				rep.Fetched, rep.Universe, rep.Failed, rep.NotFound, rep.Canceled)
			if rep.Saved {
				fmt.Fprintf(cmd.OutOrStdout(), "Snapshot saved to %s\n", a.cfg.Snapshot.Path)
			}
			if errors.Is(err, context.Canceled) && rep.Saved {
				return nil
			}
			if errors.Is(err, refresh.ErrEmptyDataset) {
				return fmt.Errorf("%w; the existing snapshot was kept", err)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&filterExpr, "filter", "", "restrict the universe: codes (7203,8306), glob (13*), /regex/ or substring")
	cmd.Flags().IntVar(&limit, "limit", 0, "fetch at most N tickers (0 = all)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "no progress output")
	return cmd
}

// progressPrinter returns a progress callback that redraws one stderr line
// at most once per interval, plus on completion.
func progressPrinter(interval time.Duration) func(done, total int) {
	var (
		mu   sync.Mutex
		last time.Time
	)
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if done < total && time.Since(last) < interval {
			return
		}
		last = time.Now()
		pct := 0.0
		if total > 0 {
			pct = float64(done) * 100 / float64(total)
		}
		fmt.Fprintf(os.Stderr, "\rFetching %d/%d (%.1f%%)", done, total, pct)
	}
}
