package cursor

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"fieldlookup/internal/domain"
	"fieldlookup/internal/lookup"
	"fieldlookup/internal/storage"
)

// Cursor reads one table through the filters installed on it.
// A Cursor belongs to its session and is not safe for concurrent use.
type Cursor struct {
	sess   *Session
	schema *domain.Schema
	log    *logrus.Entry

	equals []storage.Equal
	in     *lookup.Predicate
}

// Schema returns the schema of the cursor's table.
func (c *Cursor) Schema() *domain.Schema { return c.schema }

// SetRange restricts field to value, replacing any earlier value for the same
// field. A nil value matches NULL.
func (c *Cursor) SetRange(field string, value any) error {
	if _, ok := c.schema.Field(field); !ok {
		return &lookup.UnknownFieldError{Side: lookup.Driving, Source: c.schema.Name(), Field: field}
	}
	for i := range c.equals {
		if c.equals[i].Field == field {
			c.equals[i].Value = value
			return nil
		}
	}
	c.equals = append(c.equals, storage.Equal{Field: field, Value: value})
	return nil
}

// ClearRange removes the equality filter on field, if any.
func (c *Cursor) ClearRange(field string) {
	for i := range c.equals {
		if c.equals[i].Field == field {
			c.equals = append(c.equals[:i:i], c.equals[i+1:]...)
			return
		}
	}
}

// SetIn installs l as the cursor's lookup filter. The cursor then retains only
// rows with at least one matching row in the reference table. A previously
// installed lookup is replaced; equality filters are kept. On error the
// cursor's filters are unchanged.
func (c *Cursor) SetIn(l *lookup.Lookup) error {
	if got := l.Driving(); got != c.schema {
		if got.Name() != c.schema.Name() {
			return fmt.Errorf("%w: lookup drives %s, cursor reads %s", ErrForeignLookup, got.Name(), c.schema.Name())
		}
		return fmt.Errorf("%w: driving table %s", ErrStaleLookup, got.Name())
	}
	ref := l.Reference()
	current, ok := c.sess.catalog.Table(ref.Name())
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, ref.Name())
	}
	if current != ref {
		return fmt.Errorf("%w: reference table %s", ErrStaleLookup, ref.Name())
	}
	pred, err := l.Check()
	if err != nil {
		c.log.WithError(err).Debug("lookup rejected")
		return err
	}
	c.in = &pred
	c.log.WithFields(logrus.Fields{
		"reference":       pred.Reference,
		"driving_index":   pred.DrivingIndex.Name,
		"reference_index": pred.ReferenceIndex.Name,
	}).Debug("lookup installed")
	return nil
}

// In returns the installed lookup predicate.
func (c *Cursor) In() (lookup.Predicate, bool) {
	if c.in == nil {
		return lookup.Predicate{}, false
	}
	return *c.in, true
}

// ClearIn removes the lookup filter.
func (c *Cursor) ClearIn() { c.in = nil }

// Reset removes every filter.
func (c *Cursor) Reset() {
	c.equals = nil
	c.in = nil
}

func (c *Cursor) query() storage.Query {
	q := storage.Query{Table: c.schema.Name(), In: c.in}
	if len(c.equals) > 0 {
		q.Equals = append([]storage.Equal(nil), c.equals...)
	}
	return q
}

// Count returns the number of rows passing every filter.
func (c *Cursor) Count(ctx context.Context) (int, error) {
	return c.sess.db.Count(ctx, c.query())
}

// Iterate calls fn for each row passing every filter, ordered by orderBy.
func (c *Cursor) Iterate(ctx context.Context, fn func(storage.Record) error, orderBy ...string) error {
	for _, f := range orderBy {
		if _, ok := c.schema.Field(f); !ok {
			return &lookup.UnknownFieldError{Side: lookup.Driving, Source: c.schema.Name(), Field: f}
		}
	}
	q := c.query()
	q.OrderBy = orderBy
	return c.sess.db.Scan(ctx, c.schema, q, fn)
}

// SQL returns the count statement the cursor would run.
func (c *Cursor) SQL() (string, []any) {
	return c.sess.db.CountSQL(c.query())
}

// Insert adds a row to the cursor's table. Filters do not apply.
func (c *Cursor) Insert(ctx context.Context, rec storage.Record) error {
	return c.sess.db.Insert(ctx, c.schema, rec)
}

// DeleteAll removes every row of the table, ignoring filters.
func (c *Cursor) DeleteAll(ctx context.Context) (int, error) {
	return c.sess.db.DeleteAll(ctx, c.schema.Name())
}
