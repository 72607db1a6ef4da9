// Package pipeline wires the snapshot, the strategy catalog, the screening
// engine and a renderer into one screening run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/komsit37/equisense/pkg/eq/columns"
	"github.com/komsit37/equisense/pkg/eq/filter"
	"github.com/komsit37/equisense/pkg/eq/render"
	"github.com/komsit37/equisense/pkg/eq/screen"
	"github.com/komsit37/equisense/pkg/eq/strategy"
	"github.com/komsit37/equisense/pkg/eq/types"
)

// SnapshotLoader loads the persisted dataset.
type SnapshotLoader interface {
	Load() (types.Snapshot, error)
}

type Runner struct {
	Snapshots SnapshotLoader
	Catalog   strategy.Catalog
	Renderer  render.Renderer
	Writer    io.Writer
}

type ExecuteOptions struct {
	Thresholds  map[string]float64
	Price       *screen.PriceRange
	Columns     []string
	Filter      filter.Filter
	Labels      columns.Labels
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
}

// Outcome is what one screening run produced.
type Outcome struct {
	Result      screen.Result
	Rows        int // rows in the snapshot
	RefreshedAt time.Time
}

// Execute screens the snapshot with the strategy id and renders the result.
// A missing snapshot surfaces as snapshot.ErrNoSnapshot; an empty result is
// rendered and reported through Outcome, not as an error.
func (r *Runner) Execute(ctx context.Context, strategyID string, opts ExecuteOptions) (Outcome, error) {
	st, err := r.Catalog.Get(strategyID)
	if err != nil {
		return Outcome{}, err
	}
	snap, err := r.Snapshots.Load()
	if err != nil {
		return Outcome{}, err
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	ds := snap.Dataset
	if opts.Filter != nil {
		ds = restrict(ds, opts.Filter)
	}

	res, err := screen.Run(ds, screen.Request{Strategy: st, Thresholds: opts.Thresholds, Price: opts.Price})
	if err != nil {
		return Outcome{}, fmt.Errorf("screen %s: %w", st.ID, err)
	}

	out := Outcome{Result: res, Rows: len(snap.Dataset), RefreshedAt: snap.RefreshedAt}
	err = r.Renderer.Render(r.Writer, res, render.Options{
		Columns:     opts.Columns,
		Labels:      opts.Labels,
		Color:       opts.Color,
		PrettyJSON:  opts.PrettyJSON,
		MaxColWidth: opts.MaxColWidth,
	})
	return out, err
}

// restrict keeps the records whose ticker or name match f.
func restrict(ds types.Dataset, f filter.Filter) types.Dataset {
	out := make(types.Dataset, 0, len(ds))
	for _, rec := range ds {
		sec := types.Security{Sym: rec.Ticker, Code: code(rec.Ticker), Name: rec.Name()}
		if f.Match(sec) {
			out = append(out, rec)
		}
	}
	return out
}

func code(sym string) string {
	if dot := strings.LastIndexByte(sym, '.'); dot > 0 {
		return sym[:dot]
	}
	return sym
}
