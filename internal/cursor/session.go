// Package cursor provides session-scoped cursors over catalog tables.
//
// A cursor carries its own filter state: equality filters set with SetRange
// and at most one lookup installed with SetIn. Filters are never shared
// between cursors, so two sessions reading the same table do not see each
// other's filters.
package cursor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fieldlookup/internal/logging"
	"fieldlookup/internal/lookup"
	"fieldlookup/internal/storage"
)

var (
	// ErrUnknownTable is returned for tables missing from the session catalog.
	ErrUnknownTable = errors.New("unknown table")

	// ErrForeignLookup is returned by SetIn when the lookup drives another table.
	ErrForeignLookup = errors.New("lookup belongs to another table")

	// ErrStaleLookup is returned by SetIn when the lookup was built against a
	// schema other than the one in the session catalog.
	ErrStaleLookup = errors.New("lookup built against another schema")
)

// Session is one logical request or transaction context. It pins the catalog
// it was opened with.
type Session struct {
	id      string
	db      *storage.DB
	catalog *storage.Catalog
	log     *logrus.Entry
}

// NewSession opens a session over catalog.
func NewSession(db *storage.DB, catalog *storage.Catalog, log *logrus.Entry) *Session {
	id := uuid.New().String()
	log = logging.Default(log).WithFields(logrus.Fields{"component": "cursor", "session": id})
	log.Debug("session opened")
	return &Session{id: id, db: db, catalog: catalog, log: log}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Catalog returns the catalog the session was opened with.
func (s *Session) Catalog() *storage.Catalog { return s.catalog }

// Cursor opens a cursor on the named table with no filters.
func (s *Session) Cursor(table string) (*Cursor, error) {
	schema, ok := s.catalog.Table(table)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return &Cursor{sess: s, schema: schema, log: s.log.WithField("table", table)}, nil
}

// Lookup starts an empty lookup filtering driving by rows of reference.
func (s *Session) Lookup(driving, reference *Cursor) *lookup.Lookup {
	return lookup.New(driving.schema, reference.schema)
}
