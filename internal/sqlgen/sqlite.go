package sqlgen

import (
	"fmt"
	"strings"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/ddl"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/model"
)

// sqliteDialect targets local verification databases. Ids are INTEGER rowid
// aliases and the parent key is captured with last_insert_rowid().
type sqliteDialect struct {
	opt DialectOptions
}

func (d *sqliteDialect) Name() string { return SQLite }

func (d *sqliteDialect) Preamble() ([]string, error) {
	orgs := sqliteIdent(d.opt.Tables.Organizations)
	defs := []ddl.TableDef{
		{
			FQN:         orgs,
			IfNotExists: true,
			Columns: []ddl.ColumnDef{
				{Name: "id", SQLType: "INTEGER", PrimaryKey: true},
				{Name: "name", SQLType: "TEXT"},
				{Name: "slug", SQLType: "TEXT", Unique: true},
			},
		},
		{
			FQN:         sqliteIdent(d.opt.Tables.SchoolData),
			IfNotExists: true,
			Columns: []ddl.ColumnDef{
				{Name: "id", SQLType: "INTEGER", PrimaryKey: true},
				{Name: "org_id", SQLType: "INTEGER", Unique: true, References: orgs + " (id) ON DELETE CASCADE"},
				{Name: "npsn", SQLType: "TEXT", Nullable: true, Unique: true},
				{Name: "stats", SQLType: "TEXT", Default: "'{}'"},
			},
		},
	}

	out := []string{"PRAGMA foreign_keys = ON;"}
	for _, t := range defs {
		stmt, err := ddl.BuildCreateTableSQL(t)
		if err != nil {
			return nil, fmt.Errorf("sqlgen: sqlite preamble: %w", err)
		}
		out = append(out, stmt)
	}
	return out, nil
}

// Reset deletes children first so it works with foreign keys disabled.
func (d *sqliteDialect) Reset() []string {
	return []string{
		fmt.Sprintf("DELETE FROM %s;", sqliteIdent(d.opt.Tables.SchoolData)),
		fmt.Sprintf("DELETE FROM %s;", sqliteIdent(d.opt.Tables.Organizations)),
	}
}

func (d *sqliteDialect) Unit(s model.School) (string, error) {
	stats, err := EncodeStats(s.Data.Stats)
	if err != nil {
		return "", fmt.Errorf("row %d: %w", s.Line, err)
	}

	var sb strings.Builder
	sb.WriteString("BEGIN;\n")
	fmt.Fprintf(&sb, "INSERT INTO %s (name, slug) VALUES (%s, %s);\n",
		sqliteIdent(d.opt.Tables.Organizations), Quote(s.Organization.Name), Quote(s.Organization.Slug))
	fmt.Fprintf(&sb, "INSERT INTO %s (org_id, npsn, stats) VALUES (last_insert_rowid(), %s, %s);\n",
		sqliteIdent(d.opt.Tables.SchoolData), quoteOrNull(s.Data.NPSN), Quote(stats))
	sb.WriteString("COMMIT;")
	return sb.String(), nil
}
