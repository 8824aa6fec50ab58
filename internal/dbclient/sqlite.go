package dbclient

import (
	"fieldlookup/internal/domain"

	_ "modernc.org/sqlite"
)

// newSQLiteConnector creates a connector for a SQLite file.
// Opens in WAL mode with busy timeout for concurrent access.
func newSQLiteConnector(conn *domain.DatabaseConnection) (*sqlConnector, error) {
	c, err := newSQLConnector("sqlite", buildSQLiteDSN(conn), sqliteDialect{})
	if err != nil {
		return nil, err
	}
	// SQLite only supports one writer; a single connection prevents SQLITE_BUSY
	c.db.SetMaxOpenConns(1)
	return c, nil
}

func buildSQLiteDSN(conn *domain.DatabaseConnection) string {
	return conn.Host + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}
