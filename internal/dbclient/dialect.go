package dbclient

import (
	"fmt"
	"strconv"
	"strings"

	"fieldlookup/internal/domain"
)

// Dialect renders the engine-specific parts of generated SQL.
type Dialect interface {
	// Driver returns the engine this dialect targets.
	Driver() domain.DatabaseDriver

	// Quote quotes an identifier.
	Quote(ident string) string

	// Placeholder returns the bind parameter for the n-th argument (1-based).
	Placeholder(n int) string

	// ColumnType returns the column type used for a field type in DDL.
	ColumnType(t domain.FieldType) string
}

// DialectFor returns the dialect of the given driver.
func DialectFor(driver domain.DatabaseDriver) (Dialect, error) {
	switch driver {
	case domain.DatabaseDriverSQLite:
		return sqliteDialect{}, nil
	case domain.DatabaseDriverPostgres:
		return postgresDialect{}, nil
	case domain.DatabaseDriverMySQL:
		return mysqlDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}

type sqliteDialect struct{}

func (sqliteDialect) Driver() domain.DatabaseDriver { return domain.DatabaseDriverSQLite }
func (sqliteDialect) Quote(ident string) string     { return quoteWith(ident, '"') }
func (sqliteDialect) Placeholder(int) string        { return "?" }

func (sqliteDialect) ColumnType(t domain.FieldType) string {
	switch t {
	case domain.FieldTypeInteger:
		return "INTEGER"
	case domain.FieldTypeFloating:
		return "REAL"
	case domain.FieldTypeDecimal:
		return "NUMERIC"
	case domain.FieldTypeBoolean:
		return "BOOLEAN"
	case domain.FieldTypeDatetime:
		return "DATETIME"
	case domain.FieldTypeBlob:
		return "BLOB"
	default:
		return "TEXT"
	}
}

type postgresDialect struct{}

func (postgresDialect) Driver() domain.DatabaseDriver { return domain.DatabaseDriverPostgres }
func (postgresDialect) Quote(ident string) string     { return quoteWith(ident, '"') }
func (postgresDialect) Placeholder(n int) string      { return "$" + strconv.Itoa(n) }

func (postgresDialect) ColumnType(t domain.FieldType) string {
	switch t {
	case domain.FieldTypeInteger:
		return "BIGINT"
	case domain.FieldTypeFloating:
		return "DOUBLE PRECISION"
	case domain.FieldTypeDecimal:
		return "NUMERIC"
	case domain.FieldTypeBoolean:
		return "BOOLEAN"
	case domain.FieldTypeDatetime:
		return "TIMESTAMP"
	case domain.FieldTypeBlob:
		return "BYTEA"
	default:
		return "TEXT"
	}
}

type mysqlDialect struct{}

func (mysqlDialect) Driver() domain.DatabaseDriver { return domain.DatabaseDriverMySQL }
func (mysqlDialect) Quote(ident string) string     { return quoteWith(ident, '`') }
func (mysqlDialect) Placeholder(int) string        { return "?" }

func (mysqlDialect) ColumnType(t domain.FieldType) string {
	switch t {
	case domain.FieldTypeInteger:
		return "BIGINT"
	case domain.FieldTypeFloating:
		return "DOUBLE"
	case domain.FieldTypeDecimal:
		return "DECIMAL(38,10)"
	case domain.FieldTypeBoolean:
		return "BOOLEAN"
	case domain.FieldTypeDatetime:
		return "DATETIME(6)"
	case domain.FieldTypeBlob:
		return "LONGBLOB"
	default:
		// TEXT columns cannot be indexed without a prefix length.
		return "VARCHAR(255)"
	}
}

func quoteWith(ident string, q byte) string {
	s := string(q)
	return s + strings.ReplaceAll(ident, s, s+s) + s
}

// FieldTypeFromSQL maps a declared column type to a field type tag
// (best-effort, by substring, in the spirit of SQLite type affinity).
func FieldTypeFromSQL(sqlType string) (domain.FieldType, bool) {
	t := strings.ToUpper(strings.TrimSpace(sqlType))
	switch {
	// MySQL reports BOOLEAN columns as TINYINT(1).
	case strings.Contains(t, "BOOL"), t == "TINYINT(1)", t == "BIT(1)":
		return domain.FieldTypeBoolean, true
	case strings.Contains(t, "INTERVAL"), strings.Contains(t, "POINT"):
		return "", false
	case strings.Contains(t, "INT"):
		return domain.FieldTypeInteger, true
	case strings.Contains(t, "CHAR"), strings.Contains(t, "TEXT"), strings.Contains(t, "CLOB"),
		strings.Contains(t, "STRING"), strings.Contains(t, "UUID"), strings.Contains(t, "ENUM"):
		return domain.FieldTypeText, true
	case strings.Contains(t, "BLOB"), strings.Contains(t, "BYTEA"), strings.Contains(t, "BINARY"):
		return domain.FieldTypeBlob, true
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return domain.FieldTypeFloating, true
	case strings.Contains(t, "DEC"), strings.Contains(t, "NUMERIC"):
		return domain.FieldTypeDecimal, true
	case strings.Contains(t, "DATE"), strings.Contains(t, "TIME"):
		return domain.FieldTypeDatetime, true
	default:
		return "", false
	}
}
