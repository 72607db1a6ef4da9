package screen

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/equisense/pkg/eq/columns"
	"github.com/komsit37/equisense/pkg/eq/normalize"
	"github.com/komsit37/equisense/pkg/eq/strategy"
	"github.com/komsit37/equisense/pkg/eq/types"
)

func mustStrategy(t *testing.T, id string) strategy.Strategy {
	t.Helper()
	s, err := strategy.Builtin().Get(id)
	require.NoError(t, err)
	return s
}

func tickers(ds types.Dataset) []string {
	out := make([]string, 0, len(ds))
	for _, r := range ds {
		out = append(out, r.Ticker)
	}
	return out
}

func TestRun_GrowthScenario(t *testing.T) {
	ds := types.Dataset{
		{Ticker: "A", ForwardPE: types.Float(30), EarningsGrowth: types.Float(0.25), CurrentPrice: types.Float(1000)},
		{Ticker: "B", ForwardPE: types.Float(10), EarningsGrowth: types.Float(0.25), CurrentPrice: types.Float(500)},
	}
	res, err := Run(ds, Request{
		Strategy: mustStrategy(t, "growth"),
		Price:    &PriceRange{Min: 0, Max: 50000},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, tickers(res.Records))
	assert.Equal(t, 1, res.Count)

	require.Len(t, res.Conditions, 2)
	assert.InDelta(t, 0.2, res.Conditions[0].Threshold, 1e-12)
	assert.Equal(t, 20.0, res.Conditions[0].Value)
	assert.Equal(t, 25.0, res.Conditions[1].Threshold)
}

func TestRun_NormalizedYieldsMatchEqually(t *testing.T) {
	fromPercent, ok := normalize.Record("P.T", "", normalize.Raw{normalize.FieldLongName: "P", normalize.FieldDividendYield: 4.0})
	require.True(t, ok)
	fromFraction, ok := normalize.Record("F.T", "", normalize.Raw{normalize.FieldLongName: "F", normalize.FieldDividendYield: 0.04})
	require.True(t, ok)

	s := strategy.Strategy{
		ID:         "yield",
		Conditions: []strategy.Condition{{Field: columns.DividendYield, Op: strategy.OpGE, Default: 3, Percent: true}},
	}
	res, err := Run(types.Dataset{fromPercent, fromFraction}, Request{Strategy: s})
	require.NoError(t, err)
	assert.Equal(t, []string{"P.T", "F.T"}, tickers(res.Records))
}

func TestRun_MissingFieldExcluded(t *testing.T) {
	ds := types.Dataset{
		{Ticker: "NOBETA", CurrentPrice: types.Float(100)},
		{Ticker: "LOW", Beta: types.Float(0.5)},
		{Ticker: "HIGH", Beta: types.Float(1.2)},
	}
	res, err := Run(ds, Request{Strategy: mustStrategy(t, "stable")})
	require.NoError(t, err)
	assert.Equal(t, []string{"LOW"}, tickers(res.Records))

	// Inverting the condition must not pull the row back in either.
	s := mustStrategy(t, "stable")
	s.Conditions[0].Op = strategy.OpGT
	res, err = Run(ds, Request{Strategy: s})
	require.NoError(t, err)
	assert.Equal(t, []string{"HIGH"}, tickers(res.Records))
}

func TestRun_PriceRangeRequiresPrice(t *testing.T) {
	ds := types.Dataset{
		{Ticker: "NOPRICE", Beta: types.Float(0.5)},
		{Ticker: "CHEAP", Beta: types.Float(0.5), CurrentPrice: types.Float(100)},
		{Ticker: "EDGE", Beta: types.Float(0.5), CurrentPrice: types.Float(5000)},
		{Ticker: "DEAR", Beta: types.Float(0.5), CurrentPrice: types.Float(5000.01)},
	}
	res, err := Run(ds, Request{Strategy: mustStrategy(t, "stable"), Price: &PriceRange{Min: 100, Max: 5000}})
	require.NoError(t, err)
	assert.Equal(t, []string{"CHEAP", "EDGE"}, tickers(res.Records))

	res, err = Run(ds, Request{Strategy: mustStrategy(t, "stable")})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Count)
}

func TestRun_UserThresholdOverridesDefault(t *testing.T) {
	ds := types.Dataset{
		{Ticker: "A", ForwardPE: types.Float(12), PriceToBook: types.Float(0.9), DividendYield: types.Float(0.025)},
		{Ticker: "B", ForwardPE: types.Float(12), PriceToBook: types.Float(0.9), DividendYield: types.Float(0.035)},
	}
	res, err := Run(ds, Request{Strategy: mustStrategy(t, "value")})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, tickers(res.Records))

	res, err = Run(ds, Request{
		Strategy:   mustStrategy(t, "value"),
		Thresholds: map[string]float64{columns.DividendYield: 2.0},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, tickers(res.Records))
}

func TestRun_PreservesOrderAndInput(t *testing.T) {
	ds := types.Dataset{
		{Ticker: "C", Beta: types.Float(0.1)},
		{Ticker: "A", Beta: types.Float(0.9)},
		{Ticker: "B", Beta: types.Float(0.2)},
		{Ticker: "D", Beta: types.Float(0.3)},
	}
	before := append(types.Dataset(nil), ds...)

	first, err := Run(ds, Request{Strategy: mustStrategy(t, "stable")})
	require.NoError(t, err)
	second, err := Run(ds, Request{Strategy: mustStrategy(t, "stable")})
	require.NoError(t, err)

	assert.Equal(t, []string{"C", "B", "D"}, tickers(first.Records))
	assert.Equal(t, first, second)
	assert.Equal(t, before, ds)
}

func TestRun_EmptyIsNotAnError(t *testing.T) {
	res, err := Run(types.Dataset{{Ticker: "X", Beta: types.Float(2)}}, Request{Strategy: mustStrategy(t, "stable")})
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Empty(t, res.Records)

	res, err = Run(nil, Request{Strategy: mustStrategy(t, "stable")})
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestRun_Errors(t *testing.T) {
	_, err := Run(nil, Request{Strategy: mustStrategy(t, "stable"), Thresholds: map[string]float64{"roe": 1}})
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = Run(nil, Request{Strategy: mustStrategy(t, "stable"), Thresholds: map[string]float64{columns.ForwardPE: 1}})
	assert.ErrorIs(t, err, ErrUnusedThreshold)

	_, err = Run(nil, Request{Strategy: mustStrategy(t, "stable"), Price: &PriceRange{Min: 10, Max: 1}})
	assert.ErrorIs(t, err, ErrBadPriceRange)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err = Run(nil, Request{Strategy: mustStrategy(t, "stable"), Thresholds: map[string]float64{columns.Beta: v}})
		assert.ErrorIs(t, err, ErrBadThreshold, "beta=%g", v)

		_, err = Run(nil, Request{Strategy: mustStrategy(t, "stable"), Price: &PriceRange{Min: v, Max: 1000}})
		assert.ErrorIs(t, err, ErrBadPriceRange, "min=%g", v)

		_, err = Run(nil, Request{Strategy: mustStrategy(t, "stable"), Price: &PriceRange{Min: 0, Max: v}})
		assert.ErrorIs(t, err, ErrBadPriceRange, "max=%g", v)
	}

	bad := strategy.Strategy{ID: "bad", Conditions: []strategy.Condition{{Field: "roe", Op: strategy.OpGE}}}
	_, err = Run(nil, Request{Strategy: bad})
	assert.ErrorIs(t, err, ErrUnknownField)
}
