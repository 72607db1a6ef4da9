package render

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/equisense/pkg/eq/types"
)

// Quotes prints live quotes as a table, with the change colored by sign.
func Quotes(w io.Writer, quotes []types.Quote, opts Options) error {
	tw := newTable(w, opts)
	tw.AppendHeader(table.Row{"SYM", "NAME", "PRICE", "CHG%"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: maxWidthOrDefault(opts.MaxColWidth)},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignRight},
	})
	for _, q := range quotes {
		chg := q.ChgFmt
		if opts.Color {
			switch {
			case q.ChgRaw < 0:
				chg = text.Colors{text.FgRed}.Sprint(chg)
			case q.ChgRaw > 0:
				chg = text.Colors{text.FgGreen}.Sprint(chg)
			}
		}
		tw.AppendRow(table.Row{q.Sym, q.Name, q.Price, chg})
	}
	tw.Render()
	return nil
}

func maxWidthOrDefault(n int) int {
	if n <= 0 {
		return 40
	}
	return n
}
