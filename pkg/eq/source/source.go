// Package source loads the ticker universe.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/komsit37/equisense/pkg/eq/types"
)

var (
	ErrMissingColumn     = errors.New("missing required column")
	ErrUnsupportedFormat = errors.New("unsupported universe format")
)

// Source loads the universe from a location (e.g., filepath).
type Source interface {
	Load(ctx context.Context, path string) ([]types.Security, error)
}

// Options names the code and display-name columns of tabular sources and
// the market suffix appended to bare codes.
type Options struct {
	CodeColumn string
	NameColumn string
	Suffix     string
}

// ForPath picks a source by file extension.
func ForPath(path string, opts Options) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSVSource{Options: opts}, nil
	case ".xlsx", ".xlsm":
		return XLSXSource{Options: opts}, nil
	case ".yaml", ".yml":
		return YAMLSource{Suffix: opts.Suffix}, nil
	case ".xls":
		return nil, fmt.Errorf("%w: %s is a legacy Excel file; save it as .xlsx or .csv", ErrUnsupportedFormat, path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Load opens path with the source matching its extension. A missing file
// is reported as fs.ErrNotExist.
func Load(ctx context.Context, path string, opts Options) ([]types.Security, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("universe %s: %w", path, err)
	}
	src, err := ForPath(path, opts)
	if err != nil {
		return nil, err
	}
	secs, err := src.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("universe %s: %w", path, err)
	}
	return secs, nil
}

// fromRows converts a header row plus data rows into securities.
func fromRows(rows [][]string, opts Options) ([]types.Security, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s (empty file)", ErrMissingColumn, opts.CodeColumn)
	}
	header := rows[0]
	codeIdx := columnIndex(header, opts.CodeColumn)
	if codeIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, opts.CodeColumn)
	}
	nameIdx := columnIndex(header, opts.NameColumn)
	if nameIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, opts.NameColumn)
	}

	out := make([]types.Security, 0, len(rows)-1)
	seen := map[string]struct{}{}
	for _, row := range rows[1:] {
		code := cell(row, codeIdx)
		if code == "" {
			continue
		}
		sec := NewSecurity(code, cell(row, nameIdx), opts.Suffix)
		if _, dup := seen[sec.Sym]; dup {
			continue
		}
		seen[sec.Sym] = struct{}{}
		out = append(out, sec)
	}
	return out, nil
}

// NewSecurity builds a security from a raw exchange code. Codes already
// carrying a suffix ("7203.T") are kept as-is; spreadsheet floats such as
// "1301.0" are reduced to "1301".
func NewSecurity(code, name, suffix string) types.Security {
	code = strings.TrimSpace(code)
	code = strings.TrimSuffix(code, ".0")
	sym := code
	bare := code
	if suffix != "" && strings.HasSuffix(strings.ToUpper(code), strings.ToUpper(suffix)) {
		bare = code[:len(code)-len(suffix)]
	} else if !strings.Contains(code, ".") {
		sym = code + suffix
	}
	return types.Security{Sym: sym, Code: bare, Name: strings.TrimSpace(name)}
}

func columnIndex(header []string, name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
