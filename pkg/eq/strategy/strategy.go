// Package strategy holds the declarative screening strategy model and the
// catalog of named strategies.
package strategy

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/komsit37/equisense/pkg/eq/columns"
)

// Operator is a closed set of comparison operators.
type Operator int

const (
	OpGE Operator = iota + 1 // >=
	OpLE                     // <=
	OpGT                     // >
	OpLT                     // <
)

var ErrUnknownOperator = errors.New("unknown operator")

// ParseOperator accepts ">=", "<=", ">", "<" and the aliases ge, le, gt, lt.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ">=", "ge", "≥":
		return OpGE, nil
	case "<=", "le", "≤":
		return OpLE, nil
	case ">", "gt":
		return OpGT, nil
	case "<", "lt":
		return OpLT, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperator, s)
}

func (o Operator) String() string {
	switch o {
	case OpGE:
		return ">="
	case OpLE:
		return "<="
	case OpGT:
		return ">"
	case OpLT:
		return "<"
	}
	return "?"
}

// Compare evaluates v <op> threshold.
func (o Operator) Compare(v, threshold float64) bool {
	switch o {
	case OpGE:
		return v >= threshold
	case OpLE:
		return v <= threshold
	case OpGT:
		return v > threshold
	case OpLT:
		return v < threshold
	}
	return false
}

func (o Operator) MarshalText() ([]byte, error) {
	if o < OpGE || o > OpLT {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOperator, int(o))
	}
	return []byte(o.String()), nil
}

func (o *Operator) UnmarshalText(b []byte) error {
	op, err := ParseOperator(string(b))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// Condition is one threshold test over a canonical numeric field.
// Default is expressed in user units: when Percent is set it is a
// percentage (20 for 20%) and is divided by 100 before comparison against
// the fraction-form field.
type Condition struct {
	Field   string   `yaml:"field" json:"field"`
	Op      Operator `yaml:"op" json:"op"`
	Default float64  `yaml:"default" json:"default"`
	Percent bool     `yaml:"percent,omitempty" json:"percent,omitempty"`
	Label   string   `yaml:"label,omitempty" json:"label,omitempty"`
	Min     float64  `yaml:"min,omitempty" json:"min,omitempty"`
	Max     float64  `yaml:"max,omitempty" json:"max,omitempty"`
	Step    float64  `yaml:"step,omitempty" json:"step,omitempty"`
}

// Effective converts a threshold in user units into the value compared
// against the record field.
func (c Condition) Effective(userValue float64) float64 {
	if c.Percent {
		return userValue / 100
	}
	return userValue
}

// Describe renders the condition against a user-unit threshold, e.g.
// "Dividend Yield >= 3%".
func (c Condition) Describe(labels columns.Labels, userValue float64) string {
	name := c.Label
	if name == "" {
		name = labels.Header(c.Field)
	}
	v := strconv.FormatFloat(userValue, 'g', -1, 64)
	if c.Percent {
		v += "%"
	}
	return fmt.Sprintf("%s %s %s", name, c.Op, v)
}

// Strategy is a named screening profile.
type Strategy struct {
	ID          string      `yaml:"id" json:"id"`
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Conditions  []Condition `yaml:"conditions" json:"conditions"`
	Columns     []string    `yaml:"columns" json:"columns"`
}

// Fields returns the distinct condition fields in declaration order.
func (s Strategy) Fields() []string {
	out := make([]string, 0, len(s.Conditions))
	seen := map[string]struct{}{}
	for _, c := range s.Conditions {
		if _, ok := seen[c.Field]; ok {
			continue
		}
		seen[c.Field] = struct{}{}
		out = append(out, c.Field)
	}
	return out
}

// Condition returns the first condition over field.
func (s Strategy) Condition(field string) (Condition, bool) {
	for _, c := range s.Conditions {
		if c.Field == field {
			return c, true
		}
	}
	return Condition{}, false
}

// DisplayColumns returns the strategy columns with ticker and company name
// leading.
func (s Strategy) DisplayColumns() ([]string, error) {
	return columns.Compute(s.Columns)
}

// Validate checks that the strategy only references known numeric fields.
func (s Strategy) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("strategy: missing id")
	}
	if len(s.Conditions) == 0 {
		return fmt.Errorf("strategy %s: no conditions", s.ID)
	}
	for i, c := range s.Conditions {
		if !columns.IsNumeric(c.Field) {
			return fmt.Errorf("strategy %s: condition %d: %w", s.ID, i+1, &columns.UnknownColumnError{Name: c.Field})
		}
		if c.Op < OpGE || c.Op > OpLT {
			return fmt.Errorf("strategy %s: condition %d: %w", s.ID, i+1, ErrUnknownOperator)
		}
		if math.IsNaN(c.Default) || math.IsInf(c.Default, 0) {
			return fmt.Errorf("strategy %s: condition %d: default %g is not a finite number", s.ID, i+1, c.Default)
		}
	}
	if _, err := s.DisplayColumns(); err != nil {
		return fmt.Errorf("strategy %s: %w", s.ID, err)
	}
	return nil
}
