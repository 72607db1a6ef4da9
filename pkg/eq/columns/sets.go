package columns

import (
	"sort"
	"strings"
)

// Sets defines named column groups that expand into lists of columns.
var Sets = map[string][]string{
	"valuation": {ForwardPE, PriceToBook},
	"income":    {DividendYield, CurrentPrice},
	"risk":      {Beta},
	"growth":    {EarningsGrowth, ForwardPE},
	"all":       {ForwardPE, PriceToBook, DividendYield, CurrentPrice, Beta, EarningsGrowth},
}

// Expand resolves a mixed list of column keys and set names into columns.
// It preserves order and de-duplicates while keeping the first occurrence.
func Expand(names []string) ([]string, error) {
	out := make([]string, 0, 8)
	seen := map[string]struct{}{}
	add := func(c string) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if cols, ok := Sets[name]; ok {
			for _, c := range cols {
				add(c)
			}
			continue
		}
		if name != Ticker && name != CompanyName && !IsNumeric(name) {
			return nil, &UnknownSetError{Name: name, Available: availableSets()}
		}
		add(name)
	}
	return out, nil
}

// UnknownSetError reports a name that is neither a column nor a column set.
type UnknownSetError struct {
	Name      string
	Available []string
}

func (e *UnknownSetError) Error() string {
	return "unknown column or set: " + e.Name + "; sets: " + strings.Join(e.Available, ", ")
}

func availableSets() []string {
	keys := make([]string, 0, len(Sets))
	for k := range Sets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
