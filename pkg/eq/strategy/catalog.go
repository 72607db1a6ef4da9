package strategy

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/komsit37/equisense/pkg/eq/columns"
)

var ErrNotFound = errors.New("strategy not found")

// Catalog is an ordered, immutable set of strategies keyed by id.
type Catalog struct {
	list []Strategy
	byID map[string]int
}

// NewCatalog validates strategies and builds a catalog. A later strategy
// with the same id replaces an earlier one in place.
func NewCatalog(strategies ...Strategy) (Catalog, error) {
	c := Catalog{byID: map[string]int{}}
	for _, s := range strategies {
		if err := s.Validate(); err != nil {
			return Catalog{}, err
		}
		s = clone(s)
		if i, ok := c.byID[s.ID]; ok {
			c.list[i] = s
			continue
		}
		c.byID[s.ID] = len(c.list)
		c.list = append(c.list, s)
	}
	return c, nil
}

// Get looks up a strategy by id, case-insensitively.
func (c Catalog) Get(id string) (Strategy, error) {
	if i, ok := c.byID[id]; ok {
		return clone(c.list[i]), nil
	}
	for _, s := range c.list {
		if strings.EqualFold(s.ID, id) {
			return clone(s), nil
		}
	}
	return Strategy{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List returns all strategies in registration order.
func (c Catalog) List() []Strategy {
	out := make([]Strategy, 0, len(c.list))
	for _, s := range c.list {
		out = append(out, clone(s))
	}
	return out
}

// With returns a new catalog extended (or overridden) by extra.
func (c Catalog) With(extra ...Strategy) (Catalog, error) {
	return NewCatalog(append(c.List(), extra...)...)
}

func clone(s Strategy) Strategy {
	s.Conditions = append([]Condition(nil), s.Conditions...)
	s.Columns = append([]string(nil), s.Columns...)
	return s
}

// Builtin returns the built-in strategies.
func Builtin() Catalog {
	c, err := NewCatalog(builtin()...)
	if err != nil {
		panic(err)
	}
	return c
}

func builtin() []Strategy {
	return []Strategy{
		{
			ID:          "growth",
			Name:        "Growth",
			Description: "Fast earnings growth, with a market willing to pay for it",
			Conditions: []Condition{
				{Field: columns.EarningsGrowth, Op: OpGE, Default: 20, Percent: true, Label: "Earnings Growth (min) %", Min: 0, Max: 100, Step: 5},
				{Field: columns.ForwardPE, Op: OpGE, Default: 25, Label: "Forward P/E (min)", Min: 10, Max: 100, Step: 5},
			},
			Columns: []string{columns.EarningsGrowth, columns.ForwardPE, columns.CurrentPrice},
		},
		{
			ID:          "value",
			Name:        "Value",
			Description: "Cheap on earnings and book, paying a dividend",
			Conditions: []Condition{
				{Field: columns.ForwardPE, Op: OpLE, Default: 15, Label: "Forward P/E (max)", Min: 5, Max: 50, Step: 1},
				{Field: columns.PriceToBook, Op: OpLE, Default: 1.0, Label: "P/B (max)", Min: 0.5, Max: 5, Step: 0.1},
				{Field: columns.DividendYield, Op: OpGE, Default: 3.0, Percent: true, Label: "Dividend Yield (min) %", Min: 0, Max: 10, Step: 0.5},
			},
			Columns: []string{columns.ForwardPE, columns.PriceToBook, columns.DividendYield, columns.CurrentPrice},
		},
		{
			ID:          "dividend",
			Name:        "High Dividend",
			Description: "High yield without an expensive book multiple",
			Conditions: []Condition{
				{Field: columns.DividendYield, Op: OpGE, Default: 4.0, Percent: true, Label: "Dividend Yield (min) %", Min: 0, Max: 10, Step: 0.5},
				{Field: columns.PriceToBook, Op: OpLE, Default: 2.0, Label: "P/B (max)", Min: 0.5, Max: 5, Step: 0.1},
			},
			Columns: []string{columns.DividendYield, columns.ForwardPE, columns.PriceToBook, columns.CurrentPrice},
		},
		{
			ID:          "stable",
			Name:        "Low Volatility",
			Description: "Moves less than the market",
			Conditions: []Condition{
				{Field: columns.Beta, Op: OpLT, Default: 0.8, Label: "Beta (max)", Min: 0, Max: 1.5, Step: 0.1},
			},
			Columns: []string{columns.Beta, columns.DividendYield, columns.ForwardPE, columns.CurrentPrice},
		},
	}
}

// fileFormat is the on-disk shape of a strategy extension file.
type fileFormat struct {
	Strategies []Strategy `yaml:"strategies"`
}

// LoadFile reads strategies from a YAML file.
func LoadFile(path string) ([]Strategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a strategies YAML document.
func Parse(data []byte) ([]Strategy, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse strategies: %w", err)
	}
	for i, s := range f.Strategies {
		if strings.TrimSpace(s.Name) == "" {
			f.Strategies[i].Name = s.ID
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Strategies, nil
}

// UnmarshalYAML decodes an operator from its symbol or alias.
func (o *Operator) UnmarshalYAML(value *yaml.Node) error {
	return o.UnmarshalText([]byte(value.Value))
}

// MarshalYAML encodes an operator as its symbol.
func (o Operator) MarshalYAML() (any, error) {
	return o.String(), nil
}
