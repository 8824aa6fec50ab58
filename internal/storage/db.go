// Package storage executes cursor operations against a SQL database: table
// and index creation, inserts, counts and scans with equality and semi-join
// filters.
package storage

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"fieldlookup/internal/dbclient"
	"fieldlookup/internal/domain"
	"fieldlookup/internal/logging"
)

// Record is a single row keyed by field name.
type Record map[string]any

// DB wraps a connector with the dialect-aware statement builders.
type DB struct {
	conn dbclient.Connector
	d    dbclient.Dialect
	log  *logrus.Entry
}

// New wraps an open connector.
func New(conn dbclient.Connector, log *logrus.Entry) *DB {
	log = logging.Default(log)
	return &DB{
		conn: conn,
		d:    conn.Dialect(),
		log:  log.WithField("component", "storage"),
	}
}

// Open connects to the database described by c.
func Open(c *domain.DatabaseConnection, password string, log *logrus.Entry) (*DB, error) {
	conn, err := dbclient.NewConnector(c, password)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Name, err)
	}
	return New(conn, log), nil
}

// Ping verifies the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.TestConnection(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", db.d.Driver(), err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
