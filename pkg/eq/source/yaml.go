package source

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/komsit37/equisense/pkg/eq/types"
)

// YAMLSource loads a hand-written universe from a watchlist-style YAML file:
//
//	watchlist:
//	  - sym: 7203
//	    name: トヨタ自動車
//	  - name: Banks
//	    watchlist:
//	      - sym: 8306.T
//
// Nested groups are flattened in document order.
type YAMLSource struct {
	Suffix string
}

func (s YAMLSource) Load(ctx context.Context, path string) ([]types.Security, error) { //nolint:revive // ctx reserved for remote sources
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseYAML(data, s.Suffix)
}

func parseYAML(data []byte, suffix string) ([]types.Security, error) {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	// Normalize maps with non-string keys to map[string]any
	var norm func(v any) any
	norm = func(v any) any {
		switch m := v.(type) {
		case map[any]any:
			mm := make(map[string]any, len(m))
			for k, val := range m {
				mm[fmt.Sprint(k)] = norm(val)
			}
			return mm
		case map[string]any:
			for k, val := range m {
				m[k] = norm(val)
			}
			return m
		case []any:
			out := make([]any, 0, len(m))
			for _, e := range m {
				out = append(out, norm(e))
			}
			return out
		default:
			return v
		}
	}
	root = norm(root)

	m, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid yaml: expected map with 'watchlist'")
	}
	wlNode, ok := m["watchlist"]
	if !ok || wlNode == nil {
		return nil, fmt.Errorf("%w: watchlist", ErrMissingColumn)
	}

	var out []types.Security
	seen := map[string]struct{}{}
	var walk func(node any)
	walk = func(node any) {
		switch n := node.(type) {
		case []any:
			for _, e := range n {
				walk(e)
			}
		case map[string]any:
			if child, ok := n["watchlist"]; ok {
				walk(child)
				return
			}
			sym, ok := n["sym"]
			if !ok || sym == nil {
				return
			}
			var name string
			if v, ok := n["name"]; ok && v != nil {
				name = fmt.Sprint(v)
			}
			sec := NewSecurity(fmt.Sprint(sym), name, suffix)
			if sec.Sym == "" {
				return
			}
			if _, dup := seen[sec.Sym]; dup {
				return
			}
			seen[sec.Sym] = struct{}{}
			out = append(out, sec)
		}
	}
	walk(wlNode)
	return out, nil
}
