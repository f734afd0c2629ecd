// Package slug turns display names into lowercase, URL-safe identifiers.
//
// A slug only ever contains [a-z0-9-], never starts or ends with a hyphen and
// never contains two hyphens in a row. Make is total: every input, including
// the empty string, produces a slug (possibly empty).
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Options tunes slug generation. The zero value reproduces Make.
type Options struct {
	// FoldDiacritics strips accents before slugging ("Négeri" -> "negeri")
	// instead of treating accented letters as separators.
	FoldDiacritics bool

	// MaxLen truncates the slug to at most MaxLen bytes when > 0.
	MaxLen int
}

// Make lowercases s, collapses every run of characters outside [a-z0-9] into a
// single hyphen and trims hyphens from both ends.
func Make(s string) string {
	return Options{}.Make(s)
}

// Make applies o to s. See the package doc for the output guarantees.
func (o Options) Make(s string) string {
	s = strings.ToLower(s)
	if o.FoldDiacritics {
		s = Fold(s)
	}

	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteByte(c)
			continue
		}
		pendingHyphen = true
	}

	out := b.String()
	if o.MaxLen > 0 && len(out) > o.MaxLen {
		out = strings.TrimRight(out[:o.MaxLen], "-")
	}
	return out
}

// Fold removes nonspacing marks after canonical decomposition, so accented
// Latin letters reduce to their ASCII base.
func Fold(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Valid reports whether s already satisfies the slug invariant.
func Valid(s string) bool {
	if s == "" {
		return true
	}
	if s[0] == '-' || s[len(s)-1] == '-' || strings.Contains(s, "--") {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-') {
			return false
		}
	}
	return true
}
