package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/komsit37/equisense/pkg/eq/columns"
	"github.com/komsit37/equisense/pkg/eq/screen"
)

// bom makes spreadsheet applications detect UTF-8.
const bom = "\ufeff"

// CSVRenderer writes the export format: a UTF-8 BOM, labeled headers and
// percent fields scaled to percentages.
type CSVRenderer struct{}

func NewCSVRenderer() *CSVRenderer { return &CSVRenderer{} }

func (r *CSVRenderer) Render(w io.Writer, res screen.Result, opts Options) error {
	cols, err := displayColumns(res, opts)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, bom); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	hdr := make([]string, len(cols))
	for i, c := range cols {
		hdr[i] = opts.Labels.ExportHeader(c)
	}
	if err := cw.Write(hdr); err != nil {
		return err
	}
	for _, rec := range res.Records {
		line := make([]string, len(cols))
		for i, c := range cols {
			line[i] = columns.Export(rec, c)
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename is the default download name for a strategy export.
func ExportFilename(strategyID string, at time.Time) string {
	return fmt.Sprintf("screen_%s_%s.csv", strategyID, at.Format("20060102_150405"))
}
