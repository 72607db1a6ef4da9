package provider

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	yfgo "github.com/komsit37/yf-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/equisense/pkg/eq/normalize"
)

// fakeInfo mimics the shape of the library's info struct.
type fakeInfo struct {
	LongName       string  `json:"longName"`
	ShortName      string  `json:"shortName"`
	ForwardPE      float64 `json:"forwardPE"`
	PriceToBook    float64 `json:"priceToBook"`
	DividendYield  float64 `json:"dividendYield"`
	DividendRate   float64 `json:"dividendRate"`
	CurrentPrice   float64 `json:"currentPrice"`
	Beta           float64
	EarningsGrowth float64 `json:"earningsGrowth"`
	MarketCap      float64 `json:"marketCap"`
}

func TestToRaw(t *testing.T) {
	raw, err := toRaw(&fakeInfo{
		LongName:     "Toyota Motor Corporation",
		ShortName:    "TOYOTA MOTOR CORP",
		ForwardPE:    9.1,
		DividendRate: 90,
		CurrentPrice: 2850,
		Beta:         0.45,
		MarketCap:    4.5e13,
	})
	require.NoError(t, err)

	assert.Equal(t, "Toyota Motor Corporation", raw[normalize.FieldLongName])
	assert.Equal(t, 9.1, *raw.Float(normalize.FieldForwardPE))
	assert.Equal(t, 0.45, *raw.Float(normalize.FieldBeta))
	assert.Equal(t, 90.0, *raw.Float(normalize.FieldDividendRate))
	assert.NotContains(t, raw, normalize.FieldPriceToBook)
	assert.NotContains(t, raw, normalize.FieldEarningsGrowth)
	assert.NotContains(t, raw, "marketCap")
	assert.NotContains(t, raw, "shortName")
}

func TestToRaw_ZeroDividends(t *testing.T) {
	raw, err := toRaw(&fakeInfo{LongName: "Non Payer", CurrentPrice: 1200})
	require.NoError(t, err)
	assert.Equal(t, 0.0, *raw.Float(normalize.FieldDividendRate))
	assert.Equal(t, 0.0, *raw.Float(normalize.FieldDividendYield))
	assert.NotContains(t, raw, normalize.FieldBeta)

	rec, ok := normalize.Record("9999.T", "", raw)
	require.True(t, ok)
	require.NotNil(t, rec.DividendYield)
	assert.Equal(t, 0.0, *rec.DividendYield)

	// Without a price a zero cannot be told apart from a missing value.
	raw, err = toRaw(&fakeInfo{LongName: "No Price"})
	require.NoError(t, err)
	assert.NotContains(t, raw, normalize.FieldDividendRate)
	assert.NotContains(t, raw, normalize.FieldDividendYield)

	// A zero rate next to a reported yield is a gap, not a non-payer.
	raw, err = toRaw(&fakeInfo{LongName: "Gap", CurrentPrice: 1000, DividendYield: 2.5})
	require.NoError(t, err)
	assert.NotContains(t, raw, normalize.FieldDividendRate)
	rec, ok = normalize.Record("9998.T", "", raw)
	require.True(t, ok)
	assert.InDelta(t, 0.025, *rec.DividendYield, 1e-12)
}

func TestYFinance_Lookup(t *testing.T) {
	p := NewYFinance(time.Second, zerolog.Nop())
	p.info = func(sym string) (any, error) {
		if sym == "0000.T" {
			return nil, ErrNotFound
		}
		return fakeInfo{LongName: "Kyokuyo", ForwardPE: 8}, nil
	}

	raw, err := p.Lookup(context.Background(), "1301.T")
	require.NoError(t, err)
	rec, ok := normalize.Record("1301.T", "", raw)
	require.True(t, ok)
	assert.Equal(t, 8.0, *rec.ForwardPE)

	_, err = p.Lookup(context.Background(), "0000.T")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestYFinance_LookupTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	p := NewYFinance(20*time.Millisecond, zerolog.Nop())
	p.info = func(string) (any, error) {
		<-release
		return fakeInfo{LongName: "slow"}, nil
	}

	_, err := p.Lookup(context.Background(), "1301.T")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// toyotaSummary is a decoded quoteSummary result for the four metric modules.
func toyotaSummary() map[string]any {
	return map[string]any{
		"price": map[string]any{
			"longName":           "Toyota Motor Corporation",
			"regularMarketPrice": map[string]any{"raw": 2851.5, "fmt": "2,851.50"},
		},
		"summaryDetail": map[string]any{
			"dividendYield": map[string]any{"raw": 0.0316, "fmt": "3.16%"},
			"dividendRate":  map[string]any{"raw": 90.0, "fmt": "90.00"},
			"beta":          map[string]any{"raw": 0.45, "fmt": "0.45"},
			"forwardPE":     map[string]any{"raw": 8.8, "fmt": "8.80"},
		},
		"financialData": map[string]any{
			"currentPrice":   map[string]any{"raw": 2850.0, "fmt": "2,850.00"},
			"earningsGrowth": map[string]any{"raw": 0.0, "fmt": "0.00%"},
		},
		"defaultKeyStatistics": map[string]any{
			"forwardPE":   map[string]any{"raw": 9.1, "fmt": "9.10"},
			"priceToBook": map[string]any{},
		},
	}
}

func TestQuoteSummary_Lookup(t *testing.T) {
	var mods []yfgo.QuoteSummaryModule
	s := NewQuoteSummary(time.Second)
	s.fetch = func(ctx context.Context, sym string, m []yfgo.QuoteSummaryModule) (any, error) {
		mods = m
		return toyotaSummary(), nil
	}

	raw, err := s.Lookup(context.Background(), "7203.T")
	require.NoError(t, err)
	assert.ElementsMatch(t, []yfgo.QuoteSummaryModule{
		yfgo.ModulePrice, yfgo.ModuleSummaryDetail, yfgo.ModuleFinancialData, yfgo.ModuleDefaultKeyStatistics,
	}, mods)

	assert.Equal(t, "Toyota Motor Corporation", raw[normalize.FieldLongName])
	assert.Equal(t, 9.1, *raw.Float(normalize.FieldForwardPE))
	assert.Equal(t, 2850.0, *raw.Float(normalize.FieldCurrentPrice))
	assert.Equal(t, 0.45, *raw.Float(normalize.FieldBeta))
	assert.Equal(t, 0.0316, *raw.Float(normalize.FieldDividendYield))
	assert.Equal(t, 90.0, *raw.Float(normalize.FieldDividendRate))
	// A reported zero is a value, an empty number object is not.
	assert.Equal(t, 0.0, *raw.Float(normalize.FieldEarningsGrowth))
	assert.NotContains(t, raw, normalize.FieldPriceToBook)

	rec, ok := normalize.Record("7203.T", "トヨタ自動車", raw)
	require.True(t, ok)
	assert.InDelta(t, 90.0/2850.0, *rec.DividendYield, 1e-12)
	assert.Equal(t, 0.0, *rec.EarningsGrowth)
	assert.Nil(t, rec.PriceToBook)
}

func TestQuoteSummary_LookupFallbacks(t *testing.T) {
	res := toyotaSummary()
	delete(res, "financialData")
	delete(res, "defaultKeyStatistics")

	s := NewQuoteSummary(time.Second)
	s.fetch = func(context.Context, string, []yfgo.QuoteSummaryModule) (any, error) { return res, nil }

	raw, err := s.Lookup(context.Background(), "7203.T")
	require.NoError(t, err)
	assert.Equal(t, 8.8, *raw.Float(normalize.FieldForwardPE))
	assert.Equal(t, 2851.5, *raw.Float(normalize.FieldCurrentPrice))
	assert.NotContains(t, raw, normalize.FieldEarningsGrowth)
}

func TestQuoteSummary_Errors(t *testing.T) {
	s := NewQuoteSummary(time.Second)

	s.fetch = func(context.Context, string, []yfgo.QuoteSummaryModule) (any, error) {
		return map[string]any{"summaryDetail": map[string]any{}}, nil
	}
	_, err := s.Lookup(context.Background(), "0000.T")
	assert.ErrorIs(t, err, ErrNotFound)

	s.fetch = func(context.Context, string, []yfgo.QuoteSummaryModule) (any, error) { return nil, nil }
	_, err = s.Lookup(context.Background(), "0000.T")
	assert.ErrorIs(t, err, ErrNotFound)

	boom := errors.New("yahoo finance error: 500")
	s.fetch = func(context.Context, string, []yfgo.QuoteSummaryModule) (any, error) { return nil, boom }
	_, err = s.Lookup(context.Background(), "7203.T")
	assert.ErrorIs(t, err, boom)
}

func TestQuoteSummary_Price(t *testing.T) {
	s := NewQuoteSummary(time.Second)
	s.fetch = func(ctx context.Context, sym string, mods []yfgo.QuoteSummaryModule) (any, error) {
		assert.Equal(t, []yfgo.QuoteSummaryModule{yfgo.ModulePrice}, mods)
		return toyotaSummary(), nil
	}

	pm, err := s.Price(context.Background(), "7203.T")
	require.NoError(t, err)
	assert.Equal(t, "Toyota Motor Corporation", pm.LongName)
	require.NotNil(t, pm.RegularMarketPrice.Raw)
	assert.Equal(t, 2851.5, *pm.RegularMarketPrice.Raw)
	assert.Equal(t, "2,851.50", pm.RegularMarketPrice.Fmt)
}

func TestThrottled(t *testing.T) {
	var calls atomic.Int32
	next := Func(func(ctx context.Context, sym string) (normalize.Raw, error) {
		calls.Add(1)
		return normalize.Raw{}, nil
	})

	assert.IsType(t, Func(nil), NewThrottled(next, 0))

	p := NewThrottled(next, 1000)
	for i := 0; i < 3; i++ {
		_, err := p.Lookup(context.Background(), "X")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())

	slow := NewThrottled(next, 0.001)
	_, err := slow.Lookup(context.Background(), "X")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = slow.Lookup(ctx, "X")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(4), calls.Load())
}
