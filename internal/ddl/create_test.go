package ddl

import (
	"strings"
	"testing"
)

// TestBuildCreateTableSQL covers validation errors and the rendering of each
// column clause, including the seed schema shapes used by the SQL generator.
func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		wantSQL     string
		wantErr     bool
		errContains string
	}{
		{
			name:        "empty FQN returns error",
			def:         TableDef{Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}},
			wantErr:     true,
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no columns returns error",
			def:         TableDef{FQN: "organizations"},
			wantErr:     true,
			errContains: "at least one column is required",
		},
		{
			name: "column with empty name returns error",
			def: TableDef{
				FQN:     "organizations",
				Columns: []ColumnDef{{Name: " ", SQLType: "TEXT"}},
			},
			wantErr:     true,
			errContains: "column with empty name",
		},
		{
			name: "column with empty type returns error",
			def: TableDef{
				FQN:     "organizations",
				Columns: []ColumnDef{{Name: "slug"}},
			},
			wantErr:     true,
			errContains: "missing SQLType",
		},
		{
			name: "nullable and not null columns",
			def: TableDef{
				FQN: "t",
				Columns: []ColumnDef{
					{Name: "npsn", SQLType: "TEXT", Nullable: true},
					{Name: "name", SQLType: "TEXT"},
				},
			},
			wantSQL: "CREATE TABLE t (\n  npsn TEXT,\n  name TEXT NOT NULL\n);",
		},
		{
			name: "if not exists guard",
			def: TableDef{
				FQN:         "t",
				IfNotExists: true,
				Columns:     []ColumnDef{{Name: "id", SQLType: "INTEGER", PrimaryKey: true}},
			},
			wantSQL: "CREATE TABLE IF NOT EXISTS t (\n  id INTEGER NOT NULL,\n  PRIMARY KEY (id)\n);",
		},
		{
			name: "unique default and trimmed whitespace",
			def: TableDef{
				FQN: "  public.organizations  ",
				Columns: []ColumnDef{
					{Name: " id ", SQLType: " uuid ", PrimaryKey: true, Default: "  gen_random_uuid()  "},
					{Name: "slug", SQLType: "text", Unique: true},
				},
			},
			wantSQL: "CREATE TABLE public.organizations (\n" +
				"  id uuid NOT NULL DEFAULT gen_random_uuid(),\n" +
				"  slug text NOT NULL UNIQUE,\n" +
				"  PRIMARY KEY (id)\n);",
		},
		{
			name: "foreign key with cascade",
			def: TableDef{
				FQN:         "school_data",
				IfNotExists: true,
				Columns: []ColumnDef{
					{Name: "id", SQLType: "INTEGER", PrimaryKey: true},
					{Name: "org_id", SQLType: "INTEGER", Unique: true, References: "organizations (id) ON DELETE CASCADE"},
					{Name: "npsn", SQLType: "TEXT", Nullable: true, Unique: true},
					{Name: "stats", SQLType: "TEXT", Default: "'{}'"},
				},
			},
			wantSQL: "CREATE TABLE IF NOT EXISTS school_data (\n" +
				"  id INTEGER NOT NULL,\n" +
				"  org_id INTEGER NOT NULL UNIQUE REFERENCES organizations (id) ON DELETE CASCADE,\n" +
				"  npsn TEXT UNIQUE,\n" +
				"  stats TEXT NOT NULL DEFAULT '{}',\n" +
				"  PRIMARY KEY (id)\n);",
		},
		{
			name: "composite primary key",
			def: TableDef{
				FQN: "t",
				Columns: []ColumnDef{
					{Name: "org_id", SQLType: "INT", PrimaryKey: true},
					{Name: "npsn", SQLType: "TEXT", PrimaryKey: true},
				},
			},
			wantSQL: "CREATE TABLE t (\n  org_id INT NOT NULL,\n  npsn TEXT NOT NULL,\n  PRIMARY KEY (org_id, npsn)\n);",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gotSQL, err := BuildCreateTableSQL(tt.def)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("BuildCreateTableSQL() error = nil, want non-nil")
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("BuildCreateTableSQL() error = %q, want substring %q", err.Error(), tt.errContains)
				}
				return
			}

			if err != nil {
				t.Fatalf("BuildCreateTableSQL() unexpected error = %v", err)
			}
			if gotSQL != tt.wantSQL {
				t.Fatalf("BuildCreateTableSQL() =\n%s\nwant:\n%s", gotSQL, tt.wantSQL)
			}
		})
	}
}

var benchmarkSink string

func BenchmarkBuildCreateTableSQL(b *testing.B) {
	def := TableDef{
		FQN:         "school_data",
		IfNotExists: true,
		Columns: []ColumnDef{
			{Name: "id", SQLType: "uuid", PrimaryKey: true, Default: "gen_random_uuid()"},
			{Name: "org_id", SQLType: "uuid", Unique: true, References: "organizations (id) ON DELETE CASCADE"},
			{Name: "npsn", SQLType: "text", Nullable: true, Unique: true},
			{Name: "stats", SQLType: "jsonb"},
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sql, err := BuildCreateTableSQL(def)
		if err != nil {
			b.Fatalf("BuildCreateTableSQL() error = %v", err)
		}
		benchmarkSink = sql
	}
}
