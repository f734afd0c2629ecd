// Package schema describes the columns the seed generator needs from a
// Dapodik school export and resolves them against a spreadsheet header.
//
// Exports differ between years and between the web UI and the desktop
// application ("Nama Sekolah" vs "Sekolah", "PD" vs "Jml Siswa"), so every
// canonical field carries a list of aliases. Matching ignores case, accents
// and punctuation.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/slug"
)

// Canonical field names used as record keys after resolution.
const (
	FieldName    = "name"
	FieldNPSN    = "npsn"
	FieldBP      = "bp"
	FieldStatus  = "status"
	FieldPD      = "pd"
	FieldGuru    = "guru"
	FieldPegawai = "pegawai"
	FieldRombel  = "rombel"
)

// Column describes one canonical input column.
type Column struct {
	Field   string
	Label   string // header text of the reference export, used in messages
	Aliases []string
	Numeric bool
}

// Columns lists the required input columns in reference export order.
var Columns = []Column{
	{Field: FieldName, Label: "Nama Sekolah", Aliases: []string{"nama sekolah", "sekolah", "nama", "school name"}},
	{Field: FieldNPSN, Label: "NPSN", Aliases: []string{"npsn"}},
	{Field: FieldBP, Label: "BP", Aliases: []string{"bp", "bentuk pendidikan", "jenjang", "jenis", "tingkat"}},
	{Field: FieldStatus, Label: "Status", Aliases: []string{"status", "status sekolah"}},
	{Field: FieldPD, Label: "PD", Aliases: []string{"pd", "peserta didik", "siswa", "jumlah siswa", "jml siswa", "total siswa"}, Numeric: true},
	{Field: FieldGuru, Label: "Guru", Aliases: []string{"guru", "jumlah guru", "jml guru", "total guru"}, Numeric: true},
	{Field: FieldPegawai, Label: "Pegawai", Aliases: []string{"pegawai", "tendik", "jumlah pegawai", "jml pegawai"}, Numeric: true},
	{Field: FieldRombel, Label: "Rombel", Aliases: []string{"rombel", "jumlah rombel", "jml rombel"}, Numeric: true},
}

// Lookup returns the Column for a canonical field.
func Lookup(field string) (Column, bool) {
	for _, c := range Columns {
		if c.Field == field {
			return c, true
		}
	}
	return Column{}, false
}

// MissingColumnError reports required columns that could not be located in
// the header. It is fatal: nothing is generated when it occurs.
type MissingColumnError struct {
	Columns []string // labels of the missing columns
	Header  []string // the header that was searched
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column(s) %s in header [%s]",
		strings.Join(e.Columns, ", "), strings.Join(e.Header, " | "))
}

// Mapping maps canonical field names to header indexes.
type Mapping map[string]int

// Fields returns the mapped field names in sorted order.
func (m Mapping) Fields() []string {
	out := make([]string, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Resolve locates every canonical column in header. overrides pins a field to
// an exact header text (matched with the same normalization as aliases); an
// override that does not match is reported as missing rather than silently
// falling back to the aliases.
//
// For each field the aliases are tried in order, so a header carrying both
// "Nama" and "Nama Sekolah" resolves the name to "Nama Sekolah".
func Resolve(header []string, overrides map[string]string) (Mapping, error) {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = NormalizeHeader(h)
	}
	indexOf := func(want string) int {
		for i, h := range norm {
			if h != "" && h == want {
				return i
			}
		}
		return -1
	}

	m := Mapping{}
	var missing []string
	for _, c := range Columns {
		candidates := c.Aliases
		if o, ok := overrides[c.Field]; ok && strings.TrimSpace(o) != "" {
			candidates = []string{o}
		}
		found := -1
		for _, a := range candidates {
			if i := indexOf(NormalizeHeader(a)); i >= 0 {
				found = i
				break
			}
		}
		if found < 0 {
			missing = append(missing, c.Label)
			continue
		}
		m[c.Field] = found
	}
	if len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing, Header: header}
	}
	return m, nil
}

// NormalizeHeader lowercases h, strips accents and collapses every run of
// non-alphanumeric characters into one space.
func NormalizeHeader(h string) string {
	return strings.ReplaceAll(slug.Options{FoldDiacritics: true}.Make(h), "-", " ")
}
