package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/komsit37/equisense/pkg/eq/quote"
	"github.com/komsit37/equisense/pkg/eq/render"
	"github.com/komsit37/equisense/pkg/eq/source"
	"github.com/komsit37/equisense/pkg/eq/types"
)

func (a *app) quoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote <code>...",
		Short: "Show the live price and daily change of one or more codes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := quote.NewCacheService(quote.NewYFService(a.cfg.Provider.Timeout), 5*time.Minute, 256)

			ctx, stop := signalContext(context.Background())
			defer stop()

			quotes := make([]types.Quote, len(args))
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(a.cfg.Provider.Workers)
			for i, code := range args {
				sym := source.NewSecurity(code, "", a.cfg.Universe.Suffix).Sym
				g.Go(func() error {
					q, err := svc.Get(gctx, sym)
					if err != nil {
						a.log.Warn().Err(err).Str("sym", sym).Msg("Quote failed")
						q = types.Quote{Sym: sym}
					}
					quotes[i] = q
					return nil
				})
			}
			_ = g.Wait()

			return render.Quotes(cmd.OutOrStdout(), quotes, render.Options{
				Color:       color(),
				MaxColWidth: a.maxColWidth(),
			})
		},
	}
	return cmd
}
