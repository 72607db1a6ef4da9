package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/komsit37/equisense/pkg/eq/normalize"
)

// YFinance reads the full quote info of a symbol through go-yfinance.
type YFinance struct {
	timeout time.Duration
	info    func(sym string) (any, error)
	log     zerolog.Logger
}

func NewYFinance(timeout time.Duration, log zerolog.Logger) *YFinance {
	return &YFinance{
		timeout: timeout,
		info:    tickerInfo,
		log:     log.With().Str("provider", "yfinance").Logger(),
	}
}

func tickerInfo(sym string) (any, error) {
	t, err := ticker.New(sym)
	if err != nil {
		return nil, fmt.Errorf("create ticker %s: %w", sym, err)
	}
	defer t.Close()

	info, err := t.Info()
	if err != nil {
		return nil, fmt.Errorf("info %s: %w", sym, err)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sym)
	}
	return info, nil
}

func (p *YFinance) Lookup(ctx context.Context, sym string) (normalize.Raw, error) {
	return callWithTimeout(ctx, p.timeout, sym, func(sym string) (normalize.Raw, error) {
		info, err := p.info(sym)
		if err != nil {
			return nil, err
		}
		raw, err := toRaw(info)
		if err != nil {
			return nil, fmt.Errorf("decode info %s: %w", sym, err)
		}
		p.log.Trace().Str("sym", sym).Int("fields", len(raw)).Msg("Fetched info")
		return raw, nil
	})
}

// infoFields maps lower-cased keys of the library's info struct to the
// field names normalize reads.
var infoFields = map[string]string{
	"longname":       normalize.FieldLongName,
	"forwardpe":      normalize.FieldForwardPE,
	"pricetobook":    normalize.FieldPriceToBook,
	"dividendyield":  normalize.FieldDividendYield,
	"dividendrate":   normalize.FieldDividendRate,
	"currentprice":   normalize.FieldCurrentPrice,
	"beta":           normalize.FieldBeta,
	"earningsgrowth": normalize.FieldEarningsGrowth,
}

// toRaw flattens a typed info value into a field bag. The library reports
// absent numbers and strings as zero values, so those are left out and
// read as unknown downstream. Zero dividends are kept when the price is
// known, since a non-payer reports exactly that. A zero rate is still
// dropped when the yield is non-zero.
func toRaw(v any) (normalize.Raw, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var all map[string]any
	if err := dec.Decode(&all); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	for k, val := range all {
		if name, ok := infoFields[strings.ToLower(k)]; ok {
			fields[name] = val
		}
	}

	priced := !isZero(fields[normalize.FieldCurrentPrice])
	raw := normalize.Raw{}
	for name, val := range fields {
		if isZero(val) && !(priced && keepZero(name, fields)) {
			continue
		}
		raw[name] = val
	}
	return raw, nil
}

func keepZero(name string, fields map[string]any) bool {
	switch name {
	case normalize.FieldDividendYield:
		return true
	case normalize.FieldDividendRate:
		return isZero(fields[normalize.FieldDividendYield])
	}
	return false
}

func isZero(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case bool:
		return !t
	}
	return false
}
