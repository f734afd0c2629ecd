package sqlgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/muhammadJRahmat-dev/datadik-cilebar/internal/model"
)

// Supported dialect names.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// Key modes for organization ids.
const (
	// IDGenerated lets the database assign the id and captures it per unit.
	IDGenerated = "generated"
	// IDDerived writes name-based v5 UUIDs computed from the NPSN (or the
	// slug when the NPSN is blank). Postgres only.
	IDDerived = "derived"
)

// DefaultNamespace is the UUID namespace used for derived ids when none is
// configured.
var DefaultNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/muhammadJRahmat-dev/datadik-cilebar/organizations"))

// Tables names the two target tables. Names may be schema-qualified.
type Tables struct {
	Organizations string
	SchoolData    string
}

func (t Tables) withDefaults() Tables {
	if strings.TrimSpace(t.Organizations) == "" {
		t.Organizations = "organizations"
	}
	if strings.TrimSpace(t.SchoolData) == "" {
		t.SchoolData = "school_data"
	}
	return t
}

// DialectOptions configures NewDialect.
type DialectOptions struct {
	Tables      Tables
	IDMode      string
	IDNamespace uuid.UUID
}

// Dialect renders the fixed parts of a seed script and one insertion unit per
// school. Implementations are stateless and deterministic.
type Dialect interface {
	Name() string
	// Preamble returns idempotent schema statements.
	Preamble() ([]string, error)
	// Reset returns the statements that clear both tables.
	Reset() []string
	// Unit returns one atomic block that inserts the organization and its
	// school data, linking them without a lookup query.
	Unit(s model.School) (string, error)
}

// NewDialect returns the dialect registered under name. An empty name selects
// Postgres.
func NewDialect(name string, opt DialectOptions) (Dialect, error) {
	opt.Tables = opt.Tables.withDefaults()
	mode := strings.ToLower(strings.TrimSpace(opt.IDMode))
	if mode == "" {
		mode = IDGenerated
	}
	if mode != IDGenerated && mode != IDDerived {
		return nil, fmt.Errorf("sqlgen: unknown id mode %q (want %s or %s)", opt.IDMode, IDGenerated, IDDerived)
	}
	opt.IDMode = mode
	if opt.IDNamespace == uuid.Nil {
		opt.IDNamespace = DefaultNamespace
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Postgres, "postgresql", "supabase":
		return &postgresDialect{opt: opt}, nil
	case SQLite, "sqlite3":
		if mode == IDDerived {
			return nil, fmt.Errorf("sqlgen: id mode %s is only supported by %s", IDDerived, Postgres)
		}
		return &sqliteDialect{opt: opt}, nil
	default:
		return nil, fmt.Errorf("sqlgen: unknown dialect %q", name)
	}
}

// DerivedID returns the deterministic organization id for s.
func DerivedID(ns uuid.UUID, s model.School) uuid.UUID {
	key := "npsn:" + s.Data.NPSN
	if s.Data.NPSN == "" {
		key = "slug:" + s.Organization.Slug
	}
	return uuid.NewSHA1(ns, []byte(key))
}
