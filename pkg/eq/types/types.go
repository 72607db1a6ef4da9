package types

import "time"

// Security is one entry of the ticker universe.
// Sym is the exchange-qualified lookup symbol (e.g. "7203.T"), Code the bare
// exchange code and Name the authoritative display name, if any.
type Security struct {
	Sym  string
	Code string
	Name string
}

// Record is the canonical, unit-resolved metric set for one ticker.
// A nil field means the value is unknown, never zero.
// DividendYield and EarningsGrowth are fractions (0.03 for 3%).
type Record struct {
	Ticker         string
	CompanyName    *string
	ForwardPE      *float64
	PriceToBook    *float64
	DividendYield  *float64
	CurrentPrice   *float64
	Beta           *float64
	EarningsGrowth *float64
}

// Name returns the company name or "" when unknown.
func (r Record) Name() string {
	if r.CompanyName == nil {
		return ""
	}
	return *r.CompanyName
}

// Dataset is an ordered collection of records in fetch order.
type Dataset []Record

// Snapshot is a persisted dataset tagged with its refresh time.
type Snapshot struct {
	Dataset     Dataset
	RefreshedAt time.Time
}

// Quote contains formatted and raw change values for rendering.
type Quote struct {
	Sym    string
	Name   string
	Price  string
	ChgFmt string
	ChgRaw float64
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }
