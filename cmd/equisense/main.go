package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/komsit37/equisense/pkg/eq/columns"
	"github.com/komsit37/equisense/pkg/eq/config"
	"github.com/komsit37/equisense/pkg/eq/fetch"
	"github.com/komsit37/equisense/pkg/eq/filter"
	"github.com/komsit37/equisense/pkg/eq/logging"
	"github.com/komsit37/equisense/pkg/eq/provider"
	"github.com/komsit37/equisense/pkg/eq/refresh"
	"github.com/komsit37/equisense/pkg/eq/snapshot"
	"github.com/komsit37/equisense/pkg/eq/source"
	"github.com/komsit37/equisense/pkg/eq/strategy"
	"github.com/komsit37/equisense/pkg/eq/types"
)

// app carries the loaded configuration and shared wiring for subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     zerolog.Logger
}

func main() {
	a := &app{v: viper.New(), log: logging.Nop()}
	if err := a.rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "equisense",
		Short:        "Fetch stock metrics into a snapshot and screen it with strategies",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./equisense.yaml if present)")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error")
	pf.String("lang", "", "label language: en or ja")
	_ = a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("display.language", pf.Lookup("lang"))

	root.AddCommand(
		a.fetchCmd(),
		a.screenCmd(),
		a.strategiesCmd(),
		a.quoteCmd(),
		a.serveCmd(),
		a.downloadCmd(),
		a.infoCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func (a *app) labels() columns.Labels {
	return columns.LabelsFor(a.cfg.Display.Language)
}

// catalog returns the built-in strategies plus those of strategies.path.
func (a *app) catalog() (strategy.Catalog, error) {
	c := strategy.Builtin()
	if a.cfg.Strategies.Path == "" {
		return c, nil
	}
	extra, err := strategy.LoadFile(a.cfg.Strategies.Path)
	if err != nil {
		return strategy.Catalog{}, fmt.Errorf("strategies %s: %w", a.cfg.Strategies.Path, err)
	}
	return c.With(extra...)
}

func (a *app) store() *snapshot.Store {
	return snapshot.NewStore(a.cfg.Snapshot.Path)
}

func (a *app) provider() provider.Provider {
	var p provider.Provider
	switch a.cfg.Provider.Kind {
	case config.ProviderQuoteSummary:
		p = provider.NewQuoteSummary(a.cfg.Provider.Timeout)
	default:
		p = provider.NewYFinance(a.cfg.Provider.Timeout, a.log)
	}
	return provider.NewThrottled(p, a.cfg.Provider.Rate)
}

func (a *app) universe() refresh.UniverseFunc {
	u := a.cfg.Universe
	opts := source.Options{CodeColumn: u.CodeColumn, NameColumn: u.NameColumn, Suffix: u.Suffix}
	return func(ctx context.Context) ([]types.Security, error) {
		return source.Load(ctx, u.Path, opts)
	}
}

// refreshJob wires universe, fetcher and snapshot store into one job.
func (a *app) refreshJob(f filter.Filter, limit int, progress fetch.Progress) *refresh.Job {
	fetcher := fetch.New(a.provider(),
		fetch.WithWorkers(a.cfg.Provider.Workers),
		fetch.WithProgress(progress),
		fetch.WithLogger(a.log),
	)
	return refresh.NewJob(a.universe(), fetcher, a.store(),
		refresh.WithFilter(f, limit),
		refresh.WithLogger(a.log),
	)
}

// maxColWidth caps configured wrapping to half the terminal.
func (a *app) maxColWidth() int {
	w := a.cfg.Display.MaxColWidth
	if cols, _ := terminalWidth(); cols > 0 && (w <= 0 || w > cols/2) {
		w = cols / 2
	}
	return w
}

// color is enabled only when stdout is a terminal.
func color() bool {
	_, tty := terminalWidth()
	return tty
}
