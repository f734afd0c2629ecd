// Package ddl defines a small, backend-agnostic model for SQL DDL and helpers
// to render simple CREATE TABLE statements from that model.
//
// The package stays generic: it does not assume a specific SQL dialect. In
// particular, it:
//
//   - Does not quote identifiers; it emits TableDef.FQN and ColumnDef.Name as-is.
//   - Treats ColumnDef.Default and ColumnDef.References as raw SQL (the caller
//     is responsible for safety and dialect correctness).
//
// The dialects in internal/sqlgen fill in types, defaults and quoting.
package ddl

import (
	"fmt"
	"strings"
)

// BuildCreateTableSQL renders a generic CREATE TABLE statement from a TableDef.
//
// Rules:
//
//   - t.FQN must be non-empty; it is emitted verbatim as the table name.
//
//   - Each column must have a non-empty Name and SQLType.
//
//   - A column is rendered as:
//
//     <Name> <SQLType> [NOT NULL] [UNIQUE] [DEFAULT <Default>] [REFERENCES <References>]
//
//     where NOT NULL is added when Nullable == false.
//
//   - Columns with PrimaryKey == true are collected and rendered as a separate
//     PRIMARY KEY (<col1>, <col2>, ...) clause at the end of the column list.
//
//   - The resulting statement has the form:
//
//     CREATE TABLE [IF NOT EXISTS] <FQN> (
//     <col1-def>,
//     <col2-def>,
//     ...,
//     [PRIMARY KEY (<pk-cols>)]
//     );
//
// The output is deterministic for a given TableDef.
func BuildCreateTableSQL(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(name)
		sb.WriteByte(' ')
		sb.WriteString(typ)

		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if c.Unique {
			sb.WriteString(" UNIQUE")
		}

		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			// Default is emitted as raw SQL expression.
			sb.WriteString(def)
		}

		if ref := strings.TrimSpace(c.References); ref != "" {
			sb.WriteString(" REFERENCES ")
			sb.WriteString(ref)
		}

		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, name)
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	create := "CREATE TABLE"
	if t.IfNotExists {
		create += " IF NOT EXISTS"
	}
	stmt := fmt.Sprintf(
		"%s %s (\n  %s\n);",
		create,
		fqn,
		strings.Join(cols, ",\n  "),
	)

	return stmt, nil
}
