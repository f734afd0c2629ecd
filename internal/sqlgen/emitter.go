package sqlgen

import (
	"fmt"
	"io"
	"strings"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/model"
)

// Options toggles the optional parts of a script.
type Options struct {
	IncludeSchemaPreamble bool
	ResetBeforeInsert     bool
	// Source is the input file name shown in the header comment. Empty
	// omits the comment.
	Source string
}

// Emitter turns normalized schools into an ordered statement list.
type Emitter struct {
	dialect Dialect
	opt     Options
}

// NewEmitter returns an Emitter for d.
func NewEmitter(d Dialect, opt Options) *Emitter {
	return &Emitter{dialect: d, opt: opt}
}

// Emit returns, in order: the header comment and schema preamble (when
// enabled), the reset statements (when enabled) and one insertion unit per
// school in input order. An empty input still yields the fixed parts.
func (e *Emitter) Emit(schools []model.School) ([]string, error) {
	out := make([]string, 0, len(schools)+8)

	if e.opt.Source != "" {
		out = append(out, fmt.Sprintf("-- seedgen %s script: %d school(s) from %s",
			e.dialect.Name(), len(schools), oneLine(e.opt.Source)))
	}
	if e.opt.IncludeSchemaPreamble {
		pre, err := e.dialect.Preamble()
		if err != nil {
			return nil, err
		}
		out = append(out, pre...)
	}
	if e.opt.ResetBeforeInsert {
		out = append(out, e.dialect.Reset()...)
	}
	for _, s := range schools {
		unit, err := e.dialect.Unit(s)
		if err != nil {
			return nil, err
		}
		out = append(out, unit)
	}
	return out, nil
}

// Script joins statements with newlines and terminates the text with one.
func Script(stmts []string) string {
	if len(stmts) == 0 {
		return ""
	}
	return strings.Join(stmts, "\n") + "\n"
}

// WriteScript writes Script(stmts) to w.
func WriteScript(w io.Writer, stmts []string) (int64, error) {
	n, err := io.WriteString(w, Script(stmts))
	return int64(n), err
}

// oneLine keeps a file name from breaking out of the header comment.
func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
