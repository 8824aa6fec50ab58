package storage

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"fieldlookup/internal/domain"
)

// Catalog is an immutable set of table schemas keyed by table name.
type Catalog struct {
	tables map[string]*domain.Schema
}

// NewCatalog indexes schemas by name. Duplicate names are an error.
func NewCatalog(schemas ...*domain.Schema) (*Catalog, error) {
	c := &Catalog{tables: make(map[string]*domain.Schema, len(schemas))}
	for _, s := range schemas {
		if _, dup := c.tables[s.Name()]; dup {
			return nil, fmt.Errorf("catalog: duplicate table %q", s.Name())
		}
		c.tables[s.Name()] = s
	}
	return c, nil
}

// Table returns the schema of the named table.
func (c *Catalog) Table(name string) (*domain.Schema, bool) {
	s, ok := c.tables[name]
	return s, ok
}

// Names returns the table names in lexical order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.tables))
	for n := range c.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of tables.
func (c *Catalog) Len() int { return len(c.tables) }

// LoadCatalog introspects the given tables, or every table when none are
// named. Tables are introspected concurrently.
func (db *DB) LoadCatalog(ctx context.Context, tables ...string) (*Catalog, error) {
	if len(tables) == 0 {
		var err error
		if tables, err = db.conn.Tables(ctx); err != nil {
			return nil, err
		}
	}

	schemas := make([]*domain.Schema, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, name := range tables {
		i, name := i, name
		g.Go(func() error {
			s, err := db.conn.Introspect(gctx, name)
			if err != nil {
				return err
			}
			schemas[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	db.log.WithField("tables", len(schemas)).Info("catalog loaded")
	return NewCatalog(schemas...)
}
