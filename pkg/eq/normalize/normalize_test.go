package normalize

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/equisense/pkg/eq/types"
)

func TestYield_PercentAndFractionAgree(t *testing.T) {
	fromPercent := Yield(types.Float(4.0))
	fromFraction := Yield(types.Float(0.04))

	require.NotNil(t, fromPercent)
	require.NotNil(t, fromFraction)
	assert.InDelta(t, 0.04, *fromPercent, 1e-12)
	assert.InDelta(t, 0.04, *fromFraction, 1e-12)
}

func TestYield_Boundaries(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.0, 1.0},
		{-1.0, -1.0},
		{1.0001, 0.010001},
		{-3.5, -0.035},
		{100, 1.0},
		{-100, -1.0},
		{0, 0},
		{0.5, 0.5},
	}
	for _, tt := range tests {
		got := Yield(types.Float(tt.in))
		require.NotNil(t, got)
		assert.InDelta(t, tt.want, *got, 1e-12, "input %v", tt.in)
	}
}

func TestYield_BoundedForPercentRange(t *testing.T) {
	for y := -100.0; y <= 100.0; y += 0.25 {
		got := Yield(types.Float(y))
		require.NotNil(t, got)
		assert.LessOrEqual(t, math.Abs(*got), 1.0, "input %v", y)
	}
}

func TestYield_Unknown(t *testing.T) {
	assert.Nil(t, Yield(nil))
}

func TestYieldFromRate(t *testing.T) {
	got := YieldFromRate(types.Float(60), types.Float(2000))
	require.NotNil(t, got)
	assert.InDelta(t, 0.03, *got, 1e-12)

	assert.Nil(t, YieldFromRate(types.Float(60), types.Float(0)))
	assert.Nil(t, YieldFromRate(types.Float(60), nil))
	assert.Nil(t, YieldFromRate(nil, types.Float(2000)))
	assert.Nil(t, YieldFromRate(types.Float(60), types.Float(-5)))
}

func TestRecord_MissingNameIsUnusable(t *testing.T) {
	_, ok := Record("9999.T", "Some Name", Raw{FieldForwardPE: 12.0})
	assert.False(t, ok)

	_, ok = Record("9999.T", "", Raw{FieldLongName: "   "})
	assert.False(t, ok)

	_, ok = Record("9999.T", "", Raw{FieldLongName: nil})
	assert.False(t, ok)
}

func TestRecord_DisplayNameWins(t *testing.T) {
	rec, ok := Record("7203.T", "トヨタ自動車", Raw{FieldLongName: "Toyota Motor Corporation"})
	require.True(t, ok)
	assert.Equal(t, "トヨタ自動車", rec.Name())

	rec, ok = Record("7203.T", "", Raw{FieldLongName: "Toyota Motor Corporation"})
	require.True(t, ok)
	assert.Equal(t, "Toyota Motor Corporation", rec.Name())
}

func TestRecord_MissingFieldsStayUnknown(t *testing.T) {
	rec, ok := Record("1301.T", "", Raw{FieldLongName: "Kyokuyo", FieldForwardPE: 9.5})
	require.True(t, ok)

	assert.Equal(t, "1301.T", rec.Ticker)
	require.NotNil(t, rec.ForwardPE)
	assert.Equal(t, 9.5, *rec.ForwardPE)
	assert.Nil(t, rec.PriceToBook)
	assert.Nil(t, rec.DividendYield)
	assert.Nil(t, rec.CurrentPrice)
	assert.Nil(t, rec.Beta)
	assert.Nil(t, rec.EarningsGrowth)
}

func TestRecord_ZeroIsKnown(t *testing.T) {
	rec, ok := Record("1301.T", "", Raw{FieldLongName: "Kyokuyo", FieldBeta: 0.0})
	require.True(t, ok)
	require.NotNil(t, rec.Beta)
	assert.Equal(t, 0.0, *rec.Beta)
}

func TestRecord_DividendRatePath(t *testing.T) {
	rec, ok := Record("8306.T", "", Raw{
		FieldLongName:      "MUFG",
		FieldDividendRate:  50.0,
		FieldCurrentPrice:  1250.0,
		FieldDividendYield: 9.9,
	})
	require.True(t, ok)
	require.NotNil(t, rec.DividendYield)
	assert.InDelta(t, 0.04, *rec.DividendYield, 1e-12)

	rec, ok = Record("8306.T", "", Raw{
		FieldLongName:      "MUFG",
		FieldDividendRate:  50.0,
		FieldCurrentPrice:  0.0,
		FieldDividendYield: 4.0,
	})
	require.True(t, ok)
	assert.Nil(t, rec.DividendYield)
}

func TestRecord_DividendYieldHeuristic(t *testing.T) {
	rec, ok := Record("8306.T", "", Raw{FieldLongName: "MUFG", FieldDividendYield: 3.1})
	require.True(t, ok)
	require.NotNil(t, rec.DividendYield)
	assert.InDelta(t, 0.031, *rec.DividendYield, 1e-12)
}

func TestRecord_NegativePriceUnknown(t *testing.T) {
	rec, ok := Record("1301.T", "", Raw{FieldLongName: "Kyokuyo", FieldCurrentPrice: -1.0})
	require.True(t, ok)
	assert.Nil(t, rec.CurrentPrice)
}

func TestRaw_Float(t *testing.T) {
	r := Raw{
		"f64":   1.5,
		"int":   3,
		"i64":   int64(7),
		"num":   json.Number("2.25"),
		"str":   " 1,234.5 ",
		"bad":   "n/a",
		"bool":  true,
		"nan":   math.NaN(),
		"inf":   math.Inf(1),
		"nil":   nil,
		"empty": "",
	}

	assert.Equal(t, 1.5, *r.Float("f64"))
	assert.Equal(t, 3.0, *r.Float("int"))
	assert.Equal(t, 7.0, *r.Float("i64"))
	assert.Equal(t, 2.25, *r.Float("num"))
	assert.Equal(t, 1234.5, *r.Float("str"))
	assert.Nil(t, r.Float("bad"))
	assert.Nil(t, r.Float("bool"))
	assert.Nil(t, r.Float("nan"))
	assert.Nil(t, r.Float("inf"))
	assert.Nil(t, r.Float("nil"))
	assert.Nil(t, r.Float("empty"))
	assert.Nil(t, r.Float("missing"))
}
