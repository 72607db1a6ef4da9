package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/komsit37/equisense/pkg/eq/types"
)

// Filter matches a security of the universe by code, symbol or name.
type Filter interface {
	Match(sec types.Security) bool
}

// Parse builds a filter from an expression:
// - Comma-separated exact codes or symbols: "7203,8306.T"
// - Glob over code or symbol: "13*"
// - Regex over code, symbol or name: "/銀行$/"
// - Anything else: case-insensitive substring of code, symbol or name
func Parse(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Always(true), nil
	}
	if strings.HasPrefix(expr, "/") && strings.HasSuffix(expr, "/") && len(expr) > 2 {
		re, err := regexp.Compile(expr[1 : len(expr)-1])
		if err != nil {
			return nil, err
		}
		return Regex{re: re}, nil
	}
	if strings.Contains(expr, ",") {
		parts := strings.Split(expr, ",")
		set := map[string]struct{}{}
		for _, p := range parts {
			p = strings.ToUpper(strings.TrimSpace(p))
			if p == "" {
				continue
			}
			set[p] = struct{}{}
		}
		return ExactSet{set: set}, nil
	}
	if strings.ContainsAny(expr, "*?") {
		return Glob{pattern: strings.ToUpper(expr)}, nil
	}
	return SubstrCI{needle: expr}, nil
}

// Apply keeps the matching securities in order, stopping after limit
// matches when limit > 0.
func Apply(secs []types.Security, f Filter, limit int) []types.Security {
	if f == nil {
		f = Always(true)
	}
	out := make([]types.Security, 0, len(secs))
	for _, s := range secs {
		if limit > 0 && len(out) >= limit {
			break
		}
		if f.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

// Implementations

type Always bool

func (a Always) Match(types.Security) bool { return bool(a) }

type ExactSet struct{ set map[string]struct{} }

func (e ExactSet) Match(sec types.Security) bool {
	if _, ok := e.set[strings.ToUpper(sec.Code)]; ok {
		return true
	}
	_, ok := e.set[strings.ToUpper(sec.Sym)]
	return ok
}

type Glob struct{ pattern string }

func (g Glob) Match(sec types.Security) bool {
	if ok, _ := filepath.Match(g.pattern, strings.ToUpper(sec.Code)); ok {
		return true
	}
	ok, _ := filepath.Match(g.pattern, strings.ToUpper(sec.Sym))
	return ok
}

type Regex struct{ re *regexp.Regexp }

func (r Regex) Match(sec types.Security) bool {
	return r.re.MatchString(sec.Code) || r.re.MatchString(sec.Sym) || r.re.MatchString(sec.Name)
}

// SubstrCI matches if code, symbol or name contains needle, case-insensitively.
type SubstrCI struct{ needle string }

func (s SubstrCI) Match(sec types.Security) bool {
	if s.needle == "" {
		return true
	}
	n := strings.ToLower(s.needle)
	return strings.Contains(strings.ToLower(sec.Sym), n) || strings.Contains(strings.ToLower(sec.Name), n)
}

// String provides a human-readable representation useful for logs/errors.
func (g Glob) String() string     { return fmt.Sprintf("glob:%s", g.pattern) }
func (r Regex) String() string    { return fmt.Sprintf("regex:%s", r.re) }
func (s SubstrCI) String() string { return fmt.Sprintf("substr-ci:%s", s.needle) }
