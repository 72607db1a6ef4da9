// Package screen evaluates a strategy against a dataset.
package screen

import (
	"errors"
	"fmt"
	"math"

	"github.com/komsit37/equisense/pkg/eq/columns"
	"github.com/komsit37/equisense/pkg/eq/strategy"
	"github.com/komsit37/equisense/pkg/eq/types"
)

var (
	ErrUnknownField    = errors.New("unknown field")
	ErrUnusedThreshold = errors.New("threshold does not match any strategy condition")
	ErrBadPriceRange   = errors.New("invalid price range")
	ErrBadThreshold    = errors.New("threshold must be a finite number")
)

// PriceRange is an inclusive [Min, Max] filter on currentPrice.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether p lies within the range, bounds included.
func (r PriceRange) Contains(p float64) bool {
	return p >= r.Min && p <= r.Max
}

// Request selects a strategy, user thresholds (in the condition's user
// units, keyed by field) and an optional price range.
type Request struct {
	Strategy   strategy.Strategy
	Thresholds map[string]float64
	Price      *PriceRange
}

// Applied is a condition with the threshold it was evaluated against.
type Applied struct {
	strategy.Condition
	Value     float64 `json:"value"`     // user units
	Threshold float64 `json:"threshold"` // compared against the field
}

// Result is the ordered subsequence of the dataset that passed.
type Result struct {
	Strategy   strategy.Strategy
	Conditions []Applied
	Price      *PriceRange
	Records    types.Dataset
	Count      int
}

// Empty reports that no row satisfied the strategy.
func (r Result) Empty() bool { return r.Count == 0 }

// Resolve pairs every condition of req.Strategy with its effective
// threshold, falling back to the declared default.
func Resolve(req Request) ([]Applied, error) {
	for field := range req.Thresholds {
		if !columns.IsNumeric(field) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		if _, ok := req.Strategy.Condition(field); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnusedThreshold, field)
		}
		if v := req.Thresholds[field]; !finite(v) {
			return nil, fmt.Errorf("%w: %s=%g", ErrBadThreshold, field, v)
		}
	}
	applied := make([]Applied, 0, len(req.Strategy.Conditions))
	for _, c := range req.Strategy.Conditions {
		if !columns.IsNumeric(c.Field) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, c.Field)
		}
		v := c.Default
		if t, ok := req.Thresholds[c.Field]; ok {
			v = t
		}
		applied = append(applied, Applied{Condition: c, Value: v, Threshold: c.Effective(v)})
	}
	return applied, nil
}

// Run filters ds. Rows with an unknown value in any condition field (or in
// currentPrice when a price range is set) are excluded; the remaining rows
// must satisfy every condition and the price range. Input order is kept and
// ds is not modified.
func Run(ds types.Dataset, req Request) (Result, error) {
	applied, err := Resolve(req)
	if err != nil {
		return Result{}, err
	}
	if req.Price != nil {
		if !finite(req.Price.Min) || !finite(req.Price.Max) {
			return Result{}, fmt.Errorf("%w: min %g, max %g", ErrBadPriceRange, req.Price.Min, req.Price.Max)
		}
		if req.Price.Min > req.Price.Max {
			return Result{}, fmt.Errorf("%w: min %g > max %g", ErrBadPriceRange, req.Price.Min, req.Price.Max)
		}
	}

	out := make(types.Dataset, 0)
	for _, rec := range ds {
		if match(rec, applied, req.Price) {
			out = append(out, rec)
		}
	}
	return Result{
		Strategy:   req.Strategy,
		Conditions: applied,
		Price:      req.Price,
		Records:    out,
		Count:      len(out),
	}, nil
}

func match(rec types.Record, applied []Applied, price *PriceRange) bool {
	// Required fields first so a missing value never counts as pass or fail.
	for _, a := range applied {
		if v, _ := columns.Value(rec, a.Field); v == nil {
			return false
		}
	}
	if price != nil && rec.CurrentPrice == nil {
		return false
	}
	for _, a := range applied {
		v, _ := columns.Value(rec, a.Field)
		if !a.Op.Compare(*v, a.Threshold) {
			return false
		}
	}
	if price != nil && !price.Contains(*rec.CurrentPrice) {
		return false
	}
	return true
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
