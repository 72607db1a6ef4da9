package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/komsit37/equisense/pkg/eq/types"
)

// CSVSource loads the universe from a comma-separated file with a header row.
type CSVSource struct {
	Options Options
}

func (s CSVSource) Load(ctx context.Context, path string) ([]types.Security, error) { //nolint:revive // ctx reserved for remote sources
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return fromRows(rows, s.Options)
}

// XLSXSource loads the universe from the first sheet of an Excel workbook.
type XLSXSource struct {
	Options Options
}

func (s XLSXSource) Load(ctx context.Context, path string) ([]types.Security, error) { //nolint:revive // ctx reserved for remote sources
	if kind, err := SniffFile(path); err == nil && kind == KindXLS {
		return nil, fmt.Errorf("%w: %s holds legacy .xls data; re-save it as .xlsx or .csv", ErrUnsupportedFormat, path)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: %s (workbook has no sheets)", ErrMissingColumn, s.Options.CodeColumn)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return fromRows(rows, s.Options)
}

// File kinds recognized by Sniff.
const (
	KindXLSX = "xlsx"
	KindXLS  = "xls"
)

var (
	zipMagic  = []byte("PK\x03\x04")
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Sniff identifies a workbook by its leading bytes: KindXLSX for the zip
// container, KindXLS for the legacy OLE2 container, "" otherwise.
func Sniff(head []byte) string {
	switch {
	case bytes.HasPrefix(head, zipMagic):
		return KindXLSX
	case bytes.HasPrefix(head, ole2Magic):
		return KindXLS
	}
	return ""
}

// SniffFile runs Sniff on the start of the file at path.
func SniffFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	head := make([]byte, len(ole2Magic))
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	return Sniff(head[:n]), nil
}
