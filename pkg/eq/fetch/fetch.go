// Package fetch runs per-ticker provider lookups over a universe and
// collects the normalized records into a dataset.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/komsit37/equisense/pkg/eq/normalize"
	"github.com/komsit37/equisense/pkg/eq/provider"
	"github.com/komsit37/equisense/pkg/eq/types"
)

// Kind classifies why a ticker produced no record.
type Kind int

const (
	KindFailed   Kind = iota + 1 // provider call errored
	KindNotFound                 // provider answered without usable data
	KindCanceled                 // never completed because the run was canceled
)

func (k Kind) String() string {
	switch k {
	case KindFailed:
		return "failed"
	case KindNotFound:
		return "not_found"
	case KindCanceled:
		return "canceled"
	}
	return "unknown"
}

// Error is the typed failure of one ticker.
type Error struct {
	Sym  string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Sym, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Sym, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Outcome is the result for one universe entry: either Record or Err is set.
type Outcome struct {
	Security types.Security
	Record   *types.Record
	Err      *Error
}

// Summary aggregates the outcomes of one run.
type Summary struct {
	Dataset   types.Dataset
	Outcomes  []Outcome
	Requested int
	Fetched   int
	Failed    int
	NotFound  int
	Canceled  int
}

// Progress is called after each ticker completes with the number processed
// so far and the universe size. It may be called from several goroutines.
type Progress func(processed, total int)

// Fetcher looks up every security of a universe through a provider.
type Fetcher struct {
	provider provider.Provider
	workers  int
	progress Progress
	log      zerolog.Logger
}

type Option func(*Fetcher)

// WithWorkers bounds the number of concurrent lookups. Values below one
// mean sequential.
func WithWorkers(n int) Option {
	return func(f *Fetcher) { f.workers = n }
}

func WithProgress(p Progress) Option {
	return func(f *Fetcher) { f.progress = p }
}

func WithLogger(log zerolog.Logger) Option {
	return func(f *Fetcher) { f.log = log }
}

func New(p provider.Provider, opts ...Option) *Fetcher {
	f := &Fetcher{provider: p, workers: 1, log: zerolog.Nop()}
	for _, o := range opts {
		o(f)
	}
	if f.workers < 1 {
		f.workers = 1
	}
	f.log = f.log.With().Str("component", "fetch").Logger()
	return f
}

// Run looks up every security and returns the dataset in universe order.
// Per-ticker failures never abort the run. When ctx is canceled no further
// lookups start, and the partial dataset is returned together with ctx.Err().
func (f *Fetcher) Run(ctx context.Context, universe []types.Security) (Summary, error) {
	total := len(universe)
	outcomes := make([]Outcome, total)
	var processed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i, sec := range universe {
		outcomes[i] = Outcome{Security: sec, Err: &Error{Sym: sec.Sym, Kind: KindCanceled}}
		if gctx.Err() != nil {
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			outcomes[i] = f.one(gctx, sec)
			n := processed.Add(1)
			if f.progress != nil {
				f.progress(int(n), total)
			}
			return nil
		})
	}
	_ = g.Wait()

	sum := summarize(outcomes)
	f.log.Info().
		Int("requested", sum.Requested).
		Int("fetched", sum.Fetched).
		Int("failed", sum.Failed).
		Int("not_found", sum.NotFound).
		Int("canceled", sum.Canceled).
		Msg("Fetch finished")
	return sum, ctx.Err()
}

func (f *Fetcher) one(ctx context.Context, sec types.Security) Outcome {
	out := Outcome{Security: sec}
	raw, err := f.provider.Lookup(ctx, sec.Sym)
	switch {
	case err == nil:
	case errors.Is(err, provider.ErrNotFound):
		out.Err = &Error{Sym: sec.Sym, Kind: KindNotFound, Err: err}
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		out.Err = &Error{Sym: sec.Sym, Kind: KindCanceled, Err: err}
	default:
		out.Err = &Error{Sym: sec.Sym, Kind: KindFailed, Err: err}
	}
	if out.Err != nil {
		f.log.Debug().Err(out.Err.Err).Str("sym", sec.Sym).Stringer("kind", out.Err.Kind).Msg("Skipped ticker")
		return out
	}

	rec, ok := normalize.Record(sec.Sym, sec.Name, raw)
	if !ok {
		out.Err = &Error{Sym: sec.Sym, Kind: KindNotFound}
		f.log.Debug().Str("sym", sec.Sym).Msg("No company name, skipped")
		return out
	}
	out.Record = &rec
	return out
}

func summarize(outcomes []Outcome) Summary {
	sum := Summary{Outcomes: outcomes, Requested: len(outcomes), Dataset: types.Dataset{}}
	for _, o := range outcomes {
		if o.Record != nil {
			sum.Dataset = append(sum.Dataset, *o.Record)
			sum.Fetched++
			continue
		}
		switch o.Err.Kind {
		case KindNotFound:
			sum.NotFound++
		case KindCanceled:
			sum.Canceled++
		default:
			sum.Failed++
		}
	}
	return sum
}

// Skipped is the number of tickers that produced no record.
func (s Summary) Skipped() int { return s.Requested - s.Fetched }
