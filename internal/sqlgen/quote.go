// Package sqlgen renders normalized schools as a seed script for a target SQL
// dialect. Every textual value reaches the script through Quote.
package sqlgen

import (
	"strings"

	"github.com/jackc/pgx/v5"
)

// Quote returns s as a single-quoted SQL string literal. Embedded single
// quotes are doubled and NUL bytes, which neither dialect accepts in text,
// are dropped.
func Quote(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// quoteOrNull renders an empty string as NULL so nullable UNIQUE columns do
// not collide on blanks.
func quoteOrNull(s string) string {
	if s == "" {
		return "NULL"
	}
	return Quote(s)
}

// splitFQN converts "schema.table" into its non-empty, trimmed segments.
func splitFQN(fqn string) []string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// pgIdent quotes a possibly schema-qualified table name for Postgres.
func pgIdent(fqn string) string {
	return pgx.Identifier(splitFQN(fqn)).Sanitize()
}

// sqliteIdent quotes a possibly schema-qualified table name for SQLite.
func sqliteIdent(fqn string) string {
	parts := splitFQN(fqn)
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}
