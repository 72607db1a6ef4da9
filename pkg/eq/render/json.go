package render

import (
	"encoding/json"
	"io"

	"github.com/komsit37/equisense/pkg/eq/columns"
	"github.com/komsit37/equisense/pkg/eq/screen"
)

// Result is the JSON shape of a screening result. The HTTP API serves the
// same document.
type Result struct {
	Strategy   string             `json:"strategy"`
	Name       string             `json:"name"`
	Conditions []Condition        `json:"conditions"`
	Price      *screen.PriceRange `json:"price_range,omitempty"`
	Columns    []string           `json:"columns"`
	Count      int                `json:"count"`
	Rows       []map[string]any   `json:"rows"`
}

type Condition struct {
	screen.Applied
	Text string `json:"text"`
}

// NewResult builds the JSON document for res. Unknown values are null and
// percent fields stay in fraction form.
func NewResult(res screen.Result, opts Options) (Result, error) {
	cols, err := displayColumns(res, opts)
	if err != nil {
		return Result{}, err
	}
	out := Result{
		Strategy:   res.Strategy.ID,
		Name:       res.Strategy.Name,
		Conditions: make([]Condition, 0, len(res.Conditions)),
		Price:      res.Price,
		Columns:    cols,
		Count:      res.Count,
		Rows:       make([]map[string]any, 0, len(res.Records)),
	}
	for _, a := range res.Conditions {
		out.Conditions = append(out.Conditions, Condition{Applied: a, Text: a.Describe(opts.Labels, a.Value)})
	}
	for _, rec := range res.Records {
		row := make(map[string]any, len(cols))
		for _, c := range cols {
			switch c {
			case columns.Ticker:
				row[c] = rec.Ticker
			case columns.CompanyName:
				row[c] = rec.CompanyName
			default:
				v, _ := columns.Value(rec, c)
				row[c] = v
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) Render(w io.Writer, res screen.Result, opts Options) error {
	doc, err := NewResult(res, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if opts.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}
