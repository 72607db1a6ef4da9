package render

import (
	"fmt"
	"io"

	"github.com/komsit37/equisense/pkg/eq/columns"
)

// Explain prints the term description of every column that has one.
func Explain(w io.Writer, cols []string, labels columns.Labels) error {
	for _, c := range cols {
		d, ok := labels.Description(c)
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", labels.Header(c), d); err != nil {
			return err
		}
	}
	return nil
}
