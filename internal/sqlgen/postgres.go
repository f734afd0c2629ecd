package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/ddl"
	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/model"
)

type postgresDialect struct {
	opt DialectOptions
}

func (d *postgresDialect) Name() string { return Postgres }

func (d *postgresDialect) tables() []ddl.TableDef {
	orgs := pgIdent(d.opt.Tables.Organizations)
	return []ddl.TableDef{
		{
			FQN:         orgs,
			IfNotExists: true,
			Columns: []ddl.ColumnDef{
				{Name: "id", SQLType: "uuid", PrimaryKey: true, Default: "gen_random_uuid()"},
				{Name: "name", SQLType: "text"},
				{Name: "slug", SQLType: "text", Unique: true},
				{Name: "created_at", SQLType: "timestamptz", Default: "now()"},
			},
		},
		{
			FQN:         pgIdent(d.opt.Tables.SchoolData),
			IfNotExists: true,
			Columns: []ddl.ColumnDef{
				{Name: "id", SQLType: "uuid", PrimaryKey: true, Default: "gen_random_uuid()"},
				{Name: "org_id", SQLType: "uuid", Unique: true, References: orgs + " (id) ON DELETE CASCADE"},
				{Name: "npsn", SQLType: "text", Nullable: true, Unique: true},
				{Name: "stats", SQLType: "jsonb", Default: "'{}'::jsonb"},
				{Name: "updated_at", SQLType: "timestamptz", Default: "now()"},
			},
		},
	}
}

// Preamble creates both tables, enables row level security and adds a public
// read policy to each. Policies are created only when pg_policies does not
// list them yet, so the block can be replayed.
func (d *postgresDialect) Preamble() ([]string, error) {
	var out []string
	for _, t := range d.tables() {
		stmt, err := ddl.BuildCreateTableSQL(t)
		if err != nil {
			return nil, fmt.Errorf("sqlgen: postgres preamble: %w", err)
		}
		out = append(out, stmt)
	}
	for _, fqn := range []string{d.opt.Tables.Organizations, d.opt.Tables.SchoolData} {
		out = append(out, fmt.Sprintf("ALTER TABLE %s ENABLE ROW LEVEL SECURITY;", pgIdent(fqn)))
		out = append(out, d.readPolicy(fqn))
	}
	return out, nil
}

func (d *postgresDialect) readPolicy(fqn string) string {
	parts := splitFQN(fqn)
	table := parts[len(parts)-1]
	schema := "current_schema()"
	if len(parts) > 1 {
		schema = Quote(parts[len(parts)-2])
	}
	policy := "Public read " + table

	var sb strings.Builder
	sb.WriteString("BEGIN\n")
	fmt.Fprintf(&sb, "  IF NOT EXISTS (SELECT 1 FROM pg_policies WHERE schemaname = %s AND tablename = %s AND policyname = %s) THEN\n",
		schema, Quote(table), Quote(policy))
	fmt.Fprintf(&sb, "    CREATE POLICY %s ON %s FOR SELECT USING (true);\n", pgIdent(policy), pgIdent(fqn))
	sb.WriteString("  END IF;\n")
	sb.WriteString("END")
	return doBlock(sb.String())
}

func (d *postgresDialect) Reset() []string {
	return []string{fmt.Sprintf("TRUNCATE %s, %s CASCADE;",
		pgIdent(d.opt.Tables.Organizations), pgIdent(d.opt.Tables.SchoolData))}
}

func (d *postgresDialect) Unit(s model.School) (string, error) {
	stats, err := EncodeStats(s.Data.Stats)
	if err != nil {
		return "", fmt.Errorf("row %d: %w", s.Line, err)
	}
	orgs := pgIdent(d.opt.Tables.Organizations)
	data := pgIdent(d.opt.Tables.SchoolData)
	name, slug := Quote(s.Organization.Name), Quote(s.Organization.Slug)
	npsn, payload := quoteOrNull(s.Data.NPSN), Quote(stats)+"::jsonb"

	var sb strings.Builder
	if d.opt.IDMode == IDDerived {
		id := Quote(DerivedID(d.opt.IDNamespace, s).String())
		sb.WriteString("BEGIN\n")
		fmt.Fprintf(&sb, "  INSERT INTO %s (id, name, slug) VALUES (%s, %s, %s);\n", orgs, id, name, slug)
		fmt.Fprintf(&sb, "  INSERT INTO %s (org_id, npsn, stats) VALUES (%s, %s, %s);\n", data, id, npsn, payload)
		sb.WriteString("END")
		return doBlock(sb.String()), nil
	}

	sb.WriteString("DECLARE new_org_id uuid;\n")
	sb.WriteString("BEGIN\n")
	fmt.Fprintf(&sb, "  INSERT INTO %s (name, slug) VALUES (%s, %s) RETURNING id INTO new_org_id;\n", orgs, name, slug)
	fmt.Fprintf(&sb, "  INSERT INTO %s (org_id, npsn, stats) VALUES (new_org_id, %s, %s);\n", data, npsn, payload)
	sb.WriteString("END")
	return doBlock(sb.String()), nil
}

// doBlock wraps body in an anonymous DO block. The dollar-quote tag is picked
// so that body never contains it.
func doBlock(body string) string {
	tag := dollarTag(body)
	return "DO " + tag + "\n" + body + " " + tag + ";"
}

func dollarTag(body string) string {
	tag := "$seed$"
	for i := 1; strings.Contains(body, tag); i++ {
		tag = "$seed" + strconv.Itoa(i) + "$"
	}
	return tag
}
