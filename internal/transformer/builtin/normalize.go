package builtin

import (
	"strings"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/pkg/records"
)

// cleaner fixes text artifacts common in Dapodik exports: no-break spaces,
// the UTF-8 no-break space mis-decoded as Latin-1 (Â + NBSP), and NUL bytes,
// which Postgres rejects in text values.
var cleaner = strings.NewReplacer(
	"\u00c2\u00a0", " ",
	"\u00a0", " ",
	"\x00", "",
)

// Normalize cleans every string cell in place and trims surrounding
// whitespace. Cells that end up empty become nil.
type Normalize struct{}

func (Normalize) Apply(in []records.Row) ([]records.Row, error) {
	for _, row := range in {
		for k, v := range row.Fields {
			s, ok := v.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(cleaner.Replace(s))
			if s == "" {
				row.Fields[k] = nil
				continue
			}
			row.Fields[k] = s
		}
	}
	return in, nil
}
