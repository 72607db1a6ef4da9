package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/komsit37/equisense/pkg/eq/screen"
)

// symsRenderer prints all matched codes in a single comma-separated line,
// ready to paste into a watchlist.
type symsRenderer struct{}

func NewSymsRenderer() Renderer {
	return symsRenderer{}
}

func (symsRenderer) Render(w io.Writer, res screen.Result, _ Options) error {
	symbols := make([]string, 0, len(res.Records))
	for _, rec := range res.Records {
		sym := strings.TrimSpace(rec.Ticker)
		if sym == "" {
			continue
		}
		if dot := strings.LastIndexByte(sym, '.'); dot > 0 {
			sym = sym[:dot]
		}
		symbols = append(symbols, sym)
	}
	_, err := fmt.Fprintln(w, strings.Join(symbols, ","))
	return err
}
