// Package model holds the relational records derived from one spreadsheet row.
package model

// Organization is the parent record written to the organizations table.
type Organization struct {
	Name string
	Slug string
}

// Stats is the structured payload stored alongside a school. Field order is
// the serialized key order.
type Stats struct {
	Siswa   int64  `json:"siswa"`
	Guru    int64  `json:"guru"`
	Pegawai int64  `json:"pegawai"`
	Rombel  int64  `json:"rombel"`
	Jenis   string `json:"jenis"`
	Status  string `json:"status"`
}

// SchoolStats is the child record written to the school_data table. It is
// owned by exactly one Organization.
type SchoolStats struct {
	NPSN  string
	Stats Stats
}

// School pairs the two records built from a single source row. Line is the
// source line number, kept for logging and reject reports.
type School struct {
	Line         int
	Organization Organization
	Data         SchoolStats
}
