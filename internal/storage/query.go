package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fieldlookup/internal/domain"
	"fieldlookup/internal/lookup"
)

const (
	drivingAlias   = "d"
	referenceAlias = "r"
)

// Equal restricts a field to a single value.
type Equal struct {
	Field string
	Value any
}

// Query describes the filters of a count or scan. All filters combine
// conjunctively.
type Query struct {
	Table   string
	Equals  []Equal
	In      *lookup.Predicate
	OrderBy []string
}

// where renders the WHERE clause (without the keyword) and its arguments.
// It returns an empty clause when the query has no filters.
func (db *DB) where(q Query) (string, []any) {
	var terms []string
	var args []any
	for _, eq := range q.Equals {
		col := drivingAlias + "." + db.d.Quote(eq.Field)
		if eq.Value == nil {
			terms = append(terms, col+" IS NULL")
			continue
		}
		args = append(args, eq.Value)
		terms = append(terms, col+" = "+db.d.Placeholder(len(args)))
	}
	if q.In != nil {
		conds := make([]string, len(q.In.Pairs))
		for i, p := range q.In.Pairs {
			conds[i] = fmt.Sprintf("%s.%s = %s.%s",
				referenceAlias, db.d.Quote(p.Reference), drivingAlias, db.d.Quote(p.Driving))
		}
		terms = append(terms, fmt.Sprintf("EXISTS (SELECT 1 FROM %s %s WHERE %s)",
			db.d.Quote(q.In.Reference), referenceAlias, strings.Join(conds, " AND ")))
	}
	return strings.Join(terms, " AND "), args
}

// CountSQL renders the count statement for q.
func (db *DB) CountSQL(q Query) (string, []any) {
	stmt := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", db.d.Quote(q.Table), drivingAlias)
	where, args := db.where(q)
	if where != "" {
		stmt += " WHERE " + where
	}
	return stmt, args
}

// SelectSQL renders the scan statement for q returning fields in order.
func (db *DB) SelectSQL(q Query, fields []string) (string, []any) {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = drivingAlias + "." + db.d.Quote(f)
	}
	stmt := fmt.Sprintf("SELECT %s FROM %s %s", strings.Join(cols, ", "), db.d.Quote(q.Table), drivingAlias)
	where, args := db.where(q)
	if where != "" {
		stmt += " WHERE " + where
	}
	if len(q.OrderBy) > 0 {
		order := make([]string, len(q.OrderBy))
		for i, f := range q.OrderBy {
			order[i] = drivingAlias + "." + db.d.Quote(f)
		}
		stmt += " ORDER BY " + strings.Join(order, ", ")
	}
	return stmt, args
}

// Count returns the number of rows of the table satisfying q.
func (db *DB) Count(ctx context.Context, q Query) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	stmt, args := db.CountSQL(q)
	var n int
	if err := db.conn.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", q.Table, err)
	}
	return n, nil
}

// Scan streams the rows satisfying q to fn, stopping at the first error fn
// returns.
func (db *DB) Scan(ctx context.Context, s *domain.Schema, q Query, fn func(Record) error) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	fields := s.FieldNames()
	stmt, args := db.SelectSQL(q, fields)
	rows, err := db.conn.QueryContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("query %s: %w", q.Table, err)
	}
	defer rows.Close()

	for rows.Next() {
		values := make([]any, len(fields))
		ptrs := make([]any, len(fields))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		rec := make(Record, len(fields))
		for i, f := range fields {
			rec[f] = normalize(values[i])
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate: %w", err)
	}
	return nil
}

func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
