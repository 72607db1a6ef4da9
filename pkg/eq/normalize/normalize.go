// Package normalize converts loosely typed provider field bags into
// canonical metric records.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/komsit37/equisense/pkg/eq/types"
)

// Raw is the unordered bag of named values a provider returns for one symbol.
type Raw map[string]any

// Provider field names consumed by Record.
const (
	FieldLongName       = "longName"
	FieldForwardPE      = "forwardPE"
	FieldPriceToBook    = "priceToBook"
	FieldDividendYield  = "dividendYield"
	FieldDividendRate   = "dividendRate"
	FieldCurrentPrice   = "currentPrice"
	FieldBeta           = "beta"
	FieldEarningsGrowth = "earningsGrowth"
)

// Record builds the canonical record for sym from raw.
// displayName, when non-empty, takes precedence over the provider's name.
// ok is false when the provider gave no usable long name; such a ticker is
// treated as not found.
func Record(sym, displayName string, raw Raw) (types.Record, bool) {
	longName, ok := raw.String(FieldLongName)
	if !ok {
		return types.Record{}, false
	}
	name := longName
	if dn := strings.TrimSpace(displayName); dn != "" {
		name = dn
	}

	price := raw.Float(FieldCurrentPrice)
	if price != nil && *price < 0 {
		price = nil
	}

	rec := types.Record{
		Ticker:         sym,
		CompanyName:    types.String(name),
		ForwardPE:      raw.Float(FieldForwardPE),
		PriceToBook:    raw.Float(FieldPriceToBook),
		CurrentPrice:   price,
		Beta:           raw.Float(FieldBeta),
		EarningsGrowth: raw.Float(FieldEarningsGrowth),
	}

	// An absolute dividend amount is unit-unambiguous, so when the provider
	// supplies one it decides the yield on its own.
	if rate := raw.Float(FieldDividendRate); rate != nil {
		rec.DividendYield = YieldFromRate(rate, price)
	} else {
		rec.DividendYield = Yield(raw.Float(FieldDividendYield))
	}
	return rec, true
}

// Yield resolves a dividend yield that may be a fraction (0.031) or a whole
// percentage (3.1). Magnitudes above 1.0 are divided by 100; 1.0 itself is a
// fraction (100%).
func Yield(v *float64) *float64 {
	if v == nil {
		return nil
	}
	y := *v
	if math.Abs(y) > 1.0 {
		y /= 100
	}
	return &y
}

// YieldFromRate computes rate/price. The result is unknown unless both are
// known and price is positive.
func YieldFromRate(rate, price *float64) *float64 {
	if rate == nil || price == nil || *price <= 0 {
		return nil
	}
	y := *rate / *price
	return &y
}

// Float returns the named value as a finite float, or nil when absent or
// not numeric.
func (r Raw) Float(key string) *float64 {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return nil
		}
		f = n
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = n
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// String returns the named value as a trimmed non-empty string.
func (r Raw) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
