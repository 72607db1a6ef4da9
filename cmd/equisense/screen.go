package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/komsit37/equisense/pkg/eq/columns"
	"github.com/komsit37/equisense/pkg/eq/filter"
	"github.com/komsit37/equisense/pkg/eq/pipeline"
	"github.com/komsit37/equisense/pkg/eq/render"
	"github.com/komsit37/equisense/pkg/eq/screen"
	"github.com/komsit37/equisense/pkg/eq/snapshot"
)

func (a *app) screenCmd() *cobra.Command {
	var (
		set        map[string]string
		minPrice   float64
		maxPrice   float64
		format     string
		out        string
		cols       []string
		explain    bool
		filterExpr string
		pretty     bool
	)
	cmd := &cobra.Command{
		Use:   "screen <strategy>",
		Short: "Screen the snapshot with a strategy",
		Example: `  equisense screen value
  equisense screen growth --set earningsGrowth=30 --set forwardPE=20
  equisense screen dividend --min-price 500 --max-price 3000 --format csv --out exports/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			r, err := render.For(format)
			if err != nil {
				return err
			}
			thresholds, err := parseThresholds(set)
			if err != nil {
				return err
			}
			opts := pipeline.ExecuteOptions{
				Thresholds:  thresholds,
				Labels:      a.labels(),
				PrettyJSON:  pretty,
				MaxColWidth: a.maxColWidth(),
			}
			if len(cols) > 0 {
				if opts.Columns, err = columns.Expand(cols); err != nil {
					return err
				}
			}
			if filterExpr != "" {
				if opts.Filter, err = filter.Parse(filterExpr); err != nil {
					return fmt.Errorf("filter: %w", err)
				}
			}
			if cmd.Flags().Changed("min-price") || cmd.Flags().Changed("max-price") {
				opts.Price = &screen.PriceRange{Min: a.cfg.Screen.MinPrice, Max: a.cfg.Screen.MaxPrice}
				if cmd.Flags().Changed("min-price") {
					opts.Price.Min = minPrice
				}
				if cmd.Flags().Changed("max-price") {
					opts.Price.Max = maxPrice
				}
			}

			w, path, closeOut, err := output(cmd.OutOrStdout(), out, args[0], format)
			if err != nil {
				return err
			}
			opts.Color = path == "" && format == render.FormatTable && color()

			runner := &pipeline.Runner{Snapshots: a.store(), Catalog: catalog, Renderer: r, Writer: w}
			res, err := runner.Execute(context.Background(), args[0], opts)
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			if errors.Is(err, snapshot.ErrNoSnapshot) {
				return fmt.Errorf("%w; run `equisense fetch` first", err)
			}
			if err != nil {
				return err
			}

			a.log.Debug().
				Str("strategy", res.Result.Strategy.ID).
				Int("rows", res.Rows).
				Int("matches", res.Result.Count).
				Time("refreshed_at", res.RefreshedAt).
				Msg("Screened snapshot")
			if res.Rows == 0 {
				a.log.Warn().Msg("Snapshot is empty")
			}
			if path != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s\n", res.Result.Count, path)
			}
			if explain {
				displayed := opts.Columns
				if len(displayed) == 0 {
					displayed = res.Result.Strategy.Columns
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return render.Explain(cmd.OutOrStdout(), displayed, opts.Labels)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringToStringVar(&set, "set", nil, "override a threshold in display units, e.g. --set dividendYield=3.5")
	f.Float64Var(&minPrice, "min-price", 0, "minimum current price (inclusive)")
	f.Float64Var(&maxPrice, "max-price", 0, "maximum current price (inclusive)")
	f.StringVarP(&format, "format", "f", render.FormatTable, "output format: table, csv, json, syms")
	f.StringVarP(&out, "out", "o", "", "write to a file; a directory gets a timestamped file name")
	f.StringSliceVarP(&cols, "columns", "c", nil, "display columns or sets (valuation, income, risk, growth, all)")
	f.BoolVar(&explain, "explain", false, "print term descriptions for the displayed columns")
	f.StringVar(&filterExpr, "filter", "", "restrict to codes (7203,8306), glob (13*), /regex/ or substring")
	f.BoolVar(&pretty, "pretty", false, "indent JSON output")
	return cmd
}

func parseThresholds(set map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(set))
	for field, s := range set {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("--set %s: not a number: %q", field, s)
		}
		out[strings.TrimSpace(field)] = v
	}
	return out, nil
}

// output resolves --out. An empty value writes to stdout; a directory gets
// the default export file name for the strategy.
func output(stdout io.Writer, out, strategyID, format string) (io.Writer, string, func() error, error) {
	if out == "" || out == "-" {
		return stdout, "", func() error { return nil }, nil
	}
	if fi, err := os.Stat(out); (err == nil && fi.IsDir()) || strings.HasSuffix(out, string(os.PathSeparator)) {
		name := render.ExportFilename(strategyID, time.Now())
		if format != render.FormatCSV {
			name = strings.TrimSuffix(name, ".csv") + "." + extension(format)
		}
		if err := os.MkdirAll(out, 0o755); err != nil {
			return nil, "", nil, err
		}
		out = filepath.Join(out, name)
	}
	f, err := os.Create(out)
	if err != nil {
		return nil, "", nil, err
	}
	return f, out, f.Close, nil
}

func extension(format string) string {
	switch format {
	case render.FormatJSON:
		return "json"
	case render.FormatCSV:
		return "csv"
	}
	return "txt"
}
