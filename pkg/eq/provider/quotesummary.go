package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	yfgo "github.com/komsit37/yf-go"

	"github.com/komsit37/equisense/pkg/eq/normalize"
)

// summaryFunc matches yfgo.Client.QuoteSummary.
type summaryFunc func(ctx context.Context, sym string, mods []yfgo.QuoteSummaryModule) (any, error)

// QuoteSummary reads Yahoo's quoteSummary endpoint via yf-go.
type QuoteSummary struct {
	timeout time.Duration
	fetch   summaryFunc
}

func NewQuoteSummary(timeout time.Duration) *QuoteSummary {
	return &QuoteSummary{timeout: timeout, fetch: yfgo.NewClient().QuoteSummary}
}

var metricModules = []yfgo.QuoteSummaryModule{
	yfgo.ModulePrice,
	yfgo.ModuleSummaryDetail,
	yfgo.ModuleFinancialData,
	yfgo.ModuleDefaultKeyStatistics,
}

// summaryPaths lists, per field, the module.field paths tried in order.
var summaryPaths = []struct {
	field string
	paths []string
}{
	{normalize.FieldLongName, []string{"price.longName"}},
	{normalize.FieldForwardPE, []string{"defaultKeyStatistics.forwardPE", "summaryDetail.forwardPE"}},
	{normalize.FieldPriceToBook, []string{"defaultKeyStatistics.priceToBook"}},
	{normalize.FieldDividendYield, []string{"summaryDetail.dividendYield"}},
	{normalize.FieldDividendRate, []string{"summaryDetail.dividendRate"}},
	{normalize.FieldCurrentPrice, []string{"financialData.currentPrice", "price.regularMarketPrice"}},
	{normalize.FieldBeta, []string{"summaryDetail.beta", "defaultKeyStatistics.beta"}},
	{normalize.FieldEarningsGrowth, []string{"financialData.earningsGrowth"}},
}

// Lookup maps the price, summaryDetail, financialData and
// defaultKeyStatistics modules onto the fields normalize reads. Numbers
// present in the response are kept as reported, zeros included.
func (s *QuoteSummary) Lookup(ctx context.Context, sym string) (normalize.Raw, error) {
	res, err := s.summary(ctx, sym, metricModules)
	if err != nil {
		return nil, err
	}
	if _, ok := res["price"].(map[string]any); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sym)
	}

	raw := normalize.Raw{}
	for _, f := range summaryPaths {
		for _, p := range f.paths {
			if v, ok := extract(res, p); ok {
				raw[f.field] = v
				break
			}
		}
	}
	return raw, nil
}

// Price returns the price module of sym.
func (s *QuoteSummary) Price(ctx context.Context, sym string) (yfgo.PriceModule, error) {
	res, err := s.summary(ctx, sym, []yfgo.QuoteSummaryModule{yfgo.ModulePrice})
	if err != nil {
		return yfgo.PriceModule{}, err
	}
	b, err := json.Marshal(res)
	if err != nil {
		return yfgo.PriceModule{}, fmt.Errorf("encode quote summary %s: %w", sym, err)
	}
	var typed yfgo.QuoteSummaryTyped
	if err := json.Unmarshal(b, &typed); err != nil {
		return yfgo.PriceModule{}, fmt.Errorf("decode quote summary %s: %w", sym, err)
	}
	if typed.Price == nil {
		return yfgo.PriceModule{}, fmt.Errorf("%w: %s", ErrNotFound, sym)
	}
	return *typed.Price, nil
}

func (s *QuoteSummary) summary(ctx context.Context, sym string, mods []yfgo.QuoteSummaryModule) (map[string]any, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.fetch(cctx, sym, mods)
	if err != nil {
		return nil, fmt.Errorf("quote summary %s: %w", sym, err)
	}
	m, ok := res.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sym)
	}
	return m, nil
}

// extract reads module.field from a quoteSummary result. Yahoo numbers are
// objects carrying raw and fmt; an object without raw is absent.
func extract(res map[string]any, path string) (any, bool) {
	module, field, ok := strings.Cut(path, ".")
	if !ok {
		return nil, false
	}
	m, ok := res[module].(map[string]any)
	if !ok {
		return nil, false
	}
	switch v := m[field].(type) {
	case map[string]any:
		r, ok := v["raw"]
		if !ok || r == nil {
			return nil, false
		}
		return r, true
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, false
		}
		return v, true
	case float64, json.Number:
		return v, true
	}
	return nil, false
}
