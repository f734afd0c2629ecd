package ddl

// ColumnDef describes a single column in a table definition produced or
// consumed by ddl. It intentionally uses simple, database-agnostic fields.
//
// Fields:
//   - Name: column name, already quoted for the target dialect if needed
//   - SQLType: target SQL type (e.g., TEXT, BIGINT, TIMESTAMPTZ)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Unique: whether the column carries its own UNIQUE constraint
//   - Default: raw default expression (e.g., gen_random_uuid(), CURRENT_TIMESTAMP)
//   - References: raw foreign key target including actions, e.g.
//     organizations (id) ON DELETE CASCADE
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Unique     bool
	Default    string
	References string
}

// TableDef holds the table name (FQN) and an ordered list of columns. The FQN
// and column names are emitted verbatim; callers quote them for their dialect
// beforehand. IfNotExists guards the statement so the seed script can run
// against a database that already has the tables.
type TableDef struct {
	FQN         string
	Columns     []ColumnDef
	IfNotExists bool
}
