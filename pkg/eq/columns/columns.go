package columns

import (
	"fmt"
	"strings"

	"github.com/komsit37/equisense/pkg/eq/types"
)

// Canonical field names of a types.Record.
const (
	Ticker         = "ticker"
	CompanyName    = "companyName"
	ForwardPE      = "forwardPE"
	PriceToBook    = "priceToBook"
	DividendYield  = "dividendYield"
	CurrentPrice   = "currentPrice"
	Beta           = "beta"
	EarningsGrowth = "earningsGrowth"
)

// Fields lists every canonical field in storage order.
var Fields = []string{Ticker, CompanyName, ForwardPE, PriceToBook, DividendYield, CurrentPrice, Beta, EarningsGrowth}

// Accessor reads a numeric field from a record; nil means unknown.
type Accessor func(r types.Record) *float64

// Registry maps numeric column keys to accessors.
var Registry = map[string]Accessor{
	ForwardPE:      func(r types.Record) *float64 { return r.ForwardPE },
	PriceToBook:    func(r types.Record) *float64 { return r.PriceToBook },
	DividendYield:  func(r types.Record) *float64 { return r.DividendYield },
	CurrentPrice:   func(r types.Record) *float64 { return r.CurrentPrice },
	Beta:           func(r types.Record) *float64 { return r.Beta },
	EarningsGrowth: func(r types.Record) *float64 { return r.EarningsGrowth },
}

// IsNumeric reports whether col is a numeric canonical field.
func IsNumeric(col string) bool {
	_, ok := Registry[col]
	return ok
}

// IsPercent reports whether col holds a fraction that displays as a percentage.
func IsPercent(col string) bool {
	return col == DividendYield || col == EarningsGrowth
}

// Value returns the numeric value of col for r.
// known is false when col is not a numeric field.
func Value(r types.Record, col string) (v *float64, known bool) {
	acc, ok := Registry[col]
	if !ok {
		return nil, false
	}
	return acc(r), true
}

// UnknownColumnError reports a column key that is not a canonical field.
type UnknownColumnError struct {
	Name string
}

func (e *UnknownColumnError) Error() string {
	return "unknown column: " + e.Name + "; available: " + strings.Join(Fields, ", ")
}

// Compute determines the final display columns. ticker and companyName are
// always present and lead; the rest keep their order with duplicates removed.
func Compute(display []string) ([]string, error) {
	out := make([]string, 0, len(display)+2)
	out = append(out, Ticker, CompanyName)
	for _, c := range display {
		c = strings.TrimSpace(c)
		if c == "" || contains(out, c) {
			continue
		}
		if !IsNumeric(c) {
			return nil, &UnknownColumnError{Name: c}
		}
		out = append(out, c)
	}
	return out, nil
}

func contains(s []string, v string) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}

// Missing is rendered for unknown values.
const Missing = "N/A"

// Format renders col of r for console display.
func Format(r types.Record, col string) string {
	switch col {
	case Ticker:
		return r.Ticker
	case CompanyName:
		if r.CompanyName == nil {
			return Missing
		}
		return *r.CompanyName
	}
	v, ok := Value(r, col)
	if !ok {
		return ""
	}
	if v == nil {
		return Missing
	}
	switch {
	case IsPercent(col):
		return fmt.Sprintf("%.2f%%", *v*100)
	case col == CurrentPrice:
		return FormatFloat(*v, 0)
	default:
		return FormatFloat(*v, 2)
	}
}

// Export renders col of r for spreadsheet export: percent fields scaled to
// percentages, no grouping, unknown as empty.
func Export(r types.Record, col string) string {
	switch col {
	case Ticker:
		return r.Ticker
	case CompanyName:
		return r.Name()
	}
	v, ok := Value(r, col)
	if !ok || v == nil {
		return ""
	}
	if IsPercent(col) {
		return fmt.Sprintf("%.2f", *v*100)
	}
	return fmt.Sprintf("%g", *v)
}

// FormatFloat formats a float with a fixed number of decimals and comma separators.
func FormatFloat(v float64, decimals int) string {
	s := fmt.Sprintf("%.*f", decimals, v)
	intPart, fracPart := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot:]
	}
	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign = "-"
		intPart = intPart[1:]
	}
	n := len(intPart)
	if n <= 3 {
		return sign + intPart + fracPart
	}
	out := make([]byte, 0, n+n/3)
	rem := n % 3
	if rem == 0 {
		rem = 3
	}
	out = append(out, intPart[:rem]...)
	for i := rem; i < n; i += 3 {
		out = append(out, ',')
		out = append(out, intPart[i:i+3]...)
	}
	return sign + string(out) + fracPart
}
