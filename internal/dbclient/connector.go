package dbclient

import (
	"context"
	"database/sql"
	"fmt"

	"fieldlookup/internal/domain"
)

// Connector abstracts interaction with the SQL database that holds the
// driving and reference tables.
type Connector interface {
	// TestConnection verifies connectivity.
	TestConnection(ctx context.Context) error

	// Dialect returns the SQL dialect of the underlying engine.
	Dialect() Dialect

	// ExecContext runs a statement that returns no rows.
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)

	// QueryContext runs a query that returns rows.
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// QueryRowContext runs a query expected to return at most one row.
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row

	// Tables lists the user tables of the current database or schema.
	Tables(ctx context.Context) ([]string, error)

	// Introspect reads the fields and indices of a table.
	Introspect(ctx context.Context, table string) (*domain.Schema, error)

	// Close closes the connection pool.
	Close() error
}

// NewConnector creates a Connector for the given database connection.
// The password must be provided separately (from a secret.Store).
func NewConnector(conn *domain.DatabaseConnection, password string) (Connector, error) {
	switch conn.Driver {
	case domain.DatabaseDriverSQLite:
		return newSQLiteConnector(conn)
	case domain.DatabaseDriverMySQL:
		return newSQLConnector("mysql", buildMySQLDSN(conn, password), mysqlDialect{})
	case domain.DatabaseDriverPostgres:
		return newSQLConnector("postgres", buildPostgresDSN(conn, password), postgresDialect{})
	default:
		return nil, fmt.Errorf("unsupported driver: %s", conn.Driver)
	}
}
