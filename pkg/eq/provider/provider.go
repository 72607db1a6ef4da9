// Package provider adapts market-data services to loosely typed field bags.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/komsit37/equisense/pkg/eq/normalize"
)

// ErrNotFound means the provider has no data for the symbol.
var ErrNotFound = errors.New("symbol not found")

// Provider looks up the raw fields for one symbol.
type Provider interface {
	Lookup(ctx context.Context, sym string) (normalize.Raw, error)
}

// Func adapts a function to Provider.
type Func func(ctx context.Context, sym string) (normalize.Raw, error)

func (f Func) Lookup(ctx context.Context, sym string) (normalize.Raw, error) { return f(ctx, sym) }

// Throttled paces calls to next at most perSecond per second.
// A non-positive rate disables pacing.
type Throttled struct {
	next    Provider
	limiter *rate.Limiter
}

func NewThrottled(next Provider, perSecond float64) Provider {
	if perSecond <= 0 {
		return next
	}
	return &Throttled{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

func (t *Throttled) Lookup(ctx context.Context, sym string) (normalize.Raw, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.next.Lookup(ctx, sym)
}

// callWithTimeout runs fn, which cannot observe ctx itself, and gives up
// once ctx is done or timeout elapses. The abandoned call finishes in the
// background and its result is dropped.
func callWithTimeout(ctx context.Context, timeout time.Duration, sym string, fn func(sym string) (normalize.Raw, error)) (normalize.Raw, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	type result struct {
		raw normalize.Raw
		err error
	}
	ch := make(chan result, 1)
	go func() {
		raw, err := fn(sym)
		ch <- result{raw: raw, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("lookup %s: %w", sym, ctx.Err())
	case r := <-ch:
		return r.raw, r.err
	}
}
