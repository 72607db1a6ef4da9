// Package render writes screening results to an output writer.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/komsit37/equisense/pkg/eq/columns"
	"github.com/komsit37/equisense/pkg/eq/screen"
)

// Renderer renders a screening result to an output writer.
type Renderer interface {
	Render(w io.Writer, res screen.Result, opts Options) error
}

type Options struct {
	// Columns overrides the strategy display columns when non-empty.
	Columns     []string
	Labels      columns.Labels
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
}

// Output formats.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatSyms  = "syms"
)

// For returns the renderer for a format name.
func For(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatTable:
		return NewTableRenderer(), nil
	case FormatCSV:
		return NewCSVRenderer(), nil
	case FormatJSON:
		return NewJSONRenderer(), nil
	case FormatSyms:
		return NewSymsRenderer(), nil
	}
	return nil, fmt.Errorf("unknown format %q (want table, csv, json or syms)", format)
}

// displayColumns resolves the columns to show for res.
func displayColumns(res screen.Result, opts Options) ([]string, error) {
	if len(opts.Columns) > 0 {
		return columns.Compute(opts.Columns)
	}
	return res.Strategy.DisplayColumns()
}
