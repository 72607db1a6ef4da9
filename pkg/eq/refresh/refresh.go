// Package refresh rebuilds the snapshot: load the universe, fetch every
// ticker, save the dataset. The CLI, the HTTP API and the scheduler share
// one Job.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/komsit37/equisense/pkg/eq/fetch"
	"github.com/komsit37/equisense/pkg/eq/filter"
	"github.com/komsit37/equisense/pkg/eq/types"
)

var (
	// ErrRunning is returned when a refresh is already in flight.
	ErrRunning = errors.New("refresh already running")
	// ErrEmptyDataset is returned when nothing was fetched; the existing
	// snapshot is left in place.
	ErrEmptyDataset = errors.New("no records fetched")
)

// UniverseFunc loads the ticker universe.
type UniverseFunc func(ctx context.Context) ([]types.Security, error)

// Fetcher runs lookups for a universe.
type Fetcher interface {
	Run(ctx context.Context, universe []types.Security) (fetch.Summary, error)
}

// Saver persists a dataset.
type Saver interface {
	Save(ds types.Dataset) error
}

// Report describes one refresh run.
type Report struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Universe   int       `json:"universe"`
	Fetched    int       `json:"fetched"`
	Failed     int       `json:"failed"`
	NotFound   int       `json:"not_found"`
	Canceled   int       `json:"canceled"`
	Saved      bool      `json:"saved"`
	Error      string    `json:"error,omitempty"`
}

type Job struct {
	universe UniverseFunc
	fetcher  Fetcher
	store    Saver
	filter   filter.Filter
	limit    int
	log      zerolog.Logger

	running atomic.Bool
	mu      sync.Mutex
	last    *Report
}

type Option func(*Job)

// WithFilter restricts the universe before fetching; limit > 0 caps the
// number of tickers.
func WithFilter(f filter.Filter, limit int) Option {
	return func(j *Job) {
		j.filter = f
		j.limit = limit
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(j *Job) { j.log = log }
}

func NewJob(universe UniverseFunc, fetcher Fetcher, store Saver, opts ...Option) *Job {
	j := &Job{universe: universe, fetcher: fetcher, store: store, log: zerolog.Nop()}
	for _, o := range opts {
		o(j)
	}
	j.log = j.log.With().Str("component", "refresh").Logger()
	return j
}

// Running reports whether a refresh is in flight.
func (j *Job) Running() bool { return j.running.Load() }

// Last returns the report of the most recent finished run.
func (j *Job) Last() (Report, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.last == nil {
		return Report{}, false
	}
	return *j.last, true
}

// Run performs one refresh. Only one run may be active at a time; a second
// caller gets ErrRunning immediately. A canceled run still saves whatever
// it fetched, unless that is nothing.
func (j *Job) Run(ctx context.Context) (Report, error) {
	if !j.running.CompareAndSwap(false, true) {
		return Report{}, ErrRunning
	}
	defer j.running.Store(false)

	rep := Report{ID: uuid.NewString(), StartedAt: time.Now()}
	log := j.log.With().Str("run_id", rep.ID).Logger()
	err := j.run(ctx, &rep, log)
	rep.FinishedAt = time.Now()
	if err != nil {
		rep.Error = err.Error()
		log.Error().Err(err).Msg("Refresh failed")
	} else {
		log.Info().Int("rows", rep.Fetched).Dur("took", rep.FinishedAt.Sub(rep.StartedAt)).Msg("Refresh finished")
	}

	j.mu.Lock()
	j.last = &rep
	j.mu.Unlock()
	return rep, err
}

func (j *Job) run(ctx context.Context, rep *Report, log zerolog.Logger) error {
	secs, err := j.universe(ctx)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}
	secs = filter.Apply(secs, j.filter, j.limit)
	rep.Universe = len(secs)
	log.Info().Int("tickers", len(secs)).Msg("Refresh started")

	sum, fetchErr := j.fetcher.Run(ctx, secs)
	rep.Fetched, rep.Failed, rep.NotFound, rep.Canceled = sum.Fetched, sum.Failed, sum.NotFound, sum.Canceled
	if len(sum.Dataset) == 0 {
		return errors.Join(ErrEmptyDataset, fetchErr)
	}
	if err := j.store.Save(sum.Dataset); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	rep.Saved = true
	return fetchErr
}
