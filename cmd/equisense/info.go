package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/komsit37/equisense/pkg/eq/snapshot"
)

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the snapshot location, refresh time and row count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			st := a.store()
			fmt.Fprintf(w, "Universe:  %s\n", a.cfg.Universe.Path)
			fmt.Fprintf(w, "Snapshot:  %s\n", st.Path())

			snap, err := st.Load()
			if errors.Is(err, snapshot.ErrNoSnapshot) {
				fmt.Fprintln(w, "Status:    no snapshot yet, run `equisense fetch`")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Refreshed: %s\n", snap.RefreshedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(w, "Rows:      %d\n", len(snap.Dataset))
			return nil
		},
	}
}
