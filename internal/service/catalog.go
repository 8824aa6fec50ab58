// Package service holds the long-lived state shared by sessions: the open
// database and the current table catalog.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"fieldlookup/internal/config"
	"fieldlookup/internal/cursor"
	"fieldlookup/internal/logging"
	"fieldlookup/internal/storage"
)

// ErrTableBusy is returned when a schema operation on the same table is
// already running.
var ErrTableBusy = errors.New("table busy")

// Catalog owns the database handle and the current catalog snapshot.
// Replacing the catalog never affects sessions opened before the swap.
type Catalog struct {
	db      *storage.DB
	current atomic.Pointer[storage.Catalog]
	emitter EventEmitter
	guard   tableGuard
	log     *logrus.Entry
}

// NewCatalog creates a Catalog serving initial. A nil emitter is allowed.
func NewCatalog(db *storage.DB, initial *storage.Catalog, emitter EventEmitter, log *logrus.Entry) *Catalog {
	s := &Catalog{
		db:      db,
		emitter: emitter,
		log:     logging.Default(log).WithField("component", "service"),
	}
	if initial == nil {
		initial, _ = storage.NewCatalog()
	}
	s.current.Store(initial)
	return s
}

// Current returns the catalog snapshot in use.
func (s *Catalog) Current() *storage.Catalog { return s.current.Load() }

// Swap replaces the catalog and returns the previous one.
func (s *Catalog) Swap(ctx context.Context, next *storage.Catalog) *storage.Catalog {
	prev := s.current.Swap(next)
	s.log.WithField("tables", next.Len()).Info("catalog swapped")
	s.emit(ctx, EventCatalogSwapped, next.Names())
	return prev
}

// ApplyConfig swaps in the tables declared by cfg.
func (s *Catalog) ApplyConfig(ctx context.Context, cfg *config.Config) error {
	next, err := cfg.Catalog()
	if err != nil {
		return fmt.Errorf("apply config: %w", err)
	}
	s.Swap(ctx, next)
	return nil
}

// Introspect reads the named tables (or all tables) from the database and
// swaps in the result.
func (s *Catalog) Introspect(ctx context.Context, tables ...string) error {
	next, err := s.db.LoadCatalog(ctx, tables...)
	if err != nil {
		return err
	}
	s.Swap(ctx, next)
	return nil
}

// Sync creates every table of the current catalog, with its indices, if it
// does not exist yet. It returns the names of the tables processed.
func (s *Catalog) Sync(ctx context.Context) ([]string, error) {
	cat := s.Current()
	var done []string
	for _, name := range cat.Names() {
		if !s.guard.TryLock(name) {
			return done, fmt.Errorf("sync %s: %w", name, ErrTableBusy)
		}
		schema, _ := cat.Table(name)
		err := s.db.CreateTable(ctx, schema)
		s.guard.Unlock(name)
		if err != nil {
			return done, err
		}
		done = append(done, name)
		s.emit(ctx, EventTableSynced, name)
	}
	return done, nil
}

// Truncate deletes every row of table.
func (s *Catalog) Truncate(ctx context.Context, table string) (int, error) {
	if _, ok := s.Current().Table(table); !ok {
		return 0, fmt.Errorf("%w: %s", cursor.ErrUnknownTable, table)
	}
	if !s.guard.TryLock(table) {
		return 0, fmt.Errorf("truncate %s: %w", table, ErrTableBusy)
	}
	defer s.guard.Unlock(table)
	return s.db.DeleteAll(ctx, table)
}

// NewSession opens a session pinned to the current catalog.
func (s *Catalog) NewSession() *cursor.Session {
	return cursor.NewSession(s.db, s.Current(), s.log)
}

// Close waits for running schema operations, then closes the database.
func (s *Catalog) Close(ctx context.Context) error {
	s.guard.WaitAll(ctx)
	return s.db.Close()
}

func (s *Catalog) emit(ctx context.Context, event string, data any) {
	if s.emitter != nil {
		s.emitter.Emit(ctx, event, data)
	}
}
