package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/equisense/pkg/eq/columns"
	"github.com/komsit37/equisense/pkg/eq/screen"
	"github.com/komsit37/equisense/pkg/eq/types"
)

type TableRenderer struct{}

func NewTableRenderer() *TableRenderer { return &TableRenderer{} }

func (r *TableRenderer) Render(w io.Writer, res screen.Result, opts Options) error {
	cols, err := displayColumns(res, opts)
	if err != nil {
		return err
	}

	// Strategy title and the conditions it was run with
	title := res.Strategy.Name
	if title == "" {
		title = res.Strategy.ID
	}
	title = strings.ToUpper(title)
	if opts.Color {
		title = text.Bold.Sprint(title)
	}
	fmt.Fprintln(w, title)
	for _, a := range res.Conditions {
		fmt.Fprintln(w, "  "+a.Describe(opts.Labels, a.Value))
	}
	if res.Price != nil {
		fmt.Fprintf(w, "  %s %s - %s\n", opts.Labels.Header(columns.CurrentPrice),
			columns.FormatFloat(res.Price.Min, 0), columns.FormatFloat(res.Price.Max, 0))
	}
	fmt.Fprintln(w)

	if res.Empty() {
		_, err := fmt.Fprintln(w, "No stocks match the conditions.")
		return err
	}

	tw := newTable(w, opts)
	hdr := make(table.Row, len(cols))
	for i, c := range cols {
		hdr[i] = opts.Labels.Header(c)
	}
	tw.AppendHeader(hdr)
	tw.SetColumnConfigs(columnConfigs(cols, opts.MaxColWidth))

	for _, rec := range res.Records {
		tw.AppendRow(tableRow(rec, cols))
	}
	tw.Render()
	_, err = fmt.Fprintf(w, "\n%d matches\n", res.Count)
	return err
}

func newTable(w io.Writer, opts Options) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if opts.Color {
		tw.SetStyle(table.StyleColoredDark)
	} else {
		tw.SetStyle(table.StyleLight)
	}
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = false
	return tw
}

// columnConfigs wraps text to maxWidth (default 40) and right-aligns numbers.
func columnConfigs(cols []string, maxWidth int) []table.ColumnConfig {
	maxWidth = maxWidthOrDefault(maxWidth)
	cfgs := make([]table.ColumnConfig, 0, len(cols))
	for i, c := range cols {
		cfg := table.ColumnConfig{Number: i + 1, WidthMax: maxWidth}
		if columns.IsNumeric(c) {
			cfg.Align = text.AlignRight
			cfg.AlignHeader = text.AlignRight
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs
}

func tableRow(rec types.Record, cols []string) table.Row {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = columns.Format(rec, c)
	}
	return row
}
