package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/komsit37/equisense/pkg/eq/refresh"
	"github.com/komsit37/equisense/pkg/eq/scheduler"
	"github.com/komsit37/equisense/pkg/eq/screen"
	"github.com/komsit37/equisense/pkg/eq/server"
)

func (a *app) serveCmd() *cobra.Command {
	var noSchedule bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the screening API and refresh the snapshot on a schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			job := a.refreshJob(nil, 0, nil)

			sched := scheduler.New(a.log)
			if !noSchedule && a.cfg.Server.Schedule != "" {
				err := sched.AddJob(a.cfg.Server.Schedule, scheduler.Func{
					JobName: "refresh",
					Fn: func(ctx context.Context) error {
						_, err := job.Run(ctx)
						if errors.Is(err, refresh.ErrRunning) {
							a.log.Warn().Msg("Refresh skipped, previous run still active")
							return nil
						}
						return err
					},
				})
				if err != nil {
					return err
				}
			}

			srv := server.New(server.Config{
				Addr:      a.cfg.Server.Addr,
				Log:       a.log,
				Catalog:   catalog,
				Snapshots: a.store(),
				Refresher: job,
				Labels:    a.labels(),
				Price:     screen.PriceRange{Min: a.cfg.Screen.MinPrice, Max: a.cfg.Screen.MaxPrice},
			})

			ctx, stop := signalContext(context.Background())
			defer stop()

			sched.Start()
			errc := make(chan error, 1)
			go func() { errc <- srv.Start() }()

			select {
			case err = <-errc:
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			sched.Stop()
			if serr := srv.Shutdown(shutdownCtx); err == nil {
				err = serr
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "do not register the periodic refresh")
	return cmd
}
