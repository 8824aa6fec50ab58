package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fieldlookup/internal/domain"
)

type columnRow struct {
	name    string
	sqlType string
}

type indexColumn struct {
	index  string
	column string
}

// indexPart is one key part as reported by the engine. Expression key parts
// have no column name.
type indexPart struct {
	index  string
	column sql.NullString
}

// columnIndices drops every index with an expression key part, keeping the
// order of the rest.
func columnIndices(parts []indexPart) []indexColumn {
	expr := map[string]bool{}
	for _, p := range parts {
		if !p.column.Valid {
			expr[p.index] = true
		}
	}
	out := make([]indexColumn, 0, len(parts))
	for _, p := range parts {
		if !expr[p.index] {
			out = append(out, indexColumn{index: p.index, column: p.column.String})
		}
	}
	return out
}

func (c *sqlConnector) Tables(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var q string
	switch c.driverName {
	case "sqlite":
		q = `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	case "mysql":
		q = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = DATABASE() ORDER BY TABLE_NAME`
	default:
		q = `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name`
	}
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return scanStrings(rows)
}

// Introspect builds a Schema from the live catalog of the database.
func (c *sqlConnector) Introspect(ctx context.Context, table string) (*domain.Schema, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var (
		cols []columnRow
		idx  []indexColumn
		err  error
	)
	switch c.driverName {
	case "sqlite":
		cols, idx, err = c.introspectSQLite(ctx, table)
	default:
		cols, idx, err = c.introspectInfoSchema(ctx, table)
	}
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("introspect %s: table not found", table)
	}
	return buildSchema(table, cols, idx)
}

func buildSchema(table string, cols []columnRow, idx []indexColumn) (*domain.Schema, error) {
	fields := make([]domain.Field, 0, len(cols))
	for _, col := range cols {
		t, ok := FieldTypeFromSQL(col.sqlType)
		if !ok {
			return nil, fmt.Errorf("introspect %s.%s: unsupported column type %q", table, col.name, col.sqlType)
		}
		fields = append(fields, domain.Field{Name: col.name, Type: t})
	}

	// idx is ordered by index, then by position within the index.
	var indices []domain.Index
	for _, ic := range idx {
		if n := len(indices); n > 0 && indices[n-1].Name == ic.index {
			indices[n-1].Fields = append(indices[n-1].Fields, ic.column)
			continue
		}
		indices = append(indices, domain.Index{Name: ic.index, Fields: []string{ic.column}})
	}
	return domain.NewSchema(table, fields, indices)
}

// introspectSQLite uses PRAGMA table_info, index_list and index_info.
// Index names are collected before index_info runs so that no two result sets
// are open on the single SQLite connection at once.
func (c *sqlConnector) introspectSQLite(ctx context.Context, table string) ([]columnRow, []indexColumn, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", c.dialect.Quote(table)))
	if err != nil {
		return nil, nil, fmt.Errorf("table info %s: %w", table, err)
	}
	var cols []columnRow
	for rows.Next() {
		var cid, notNull, pk int
		var name, colType string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("scan table info: %w", err)
		}
		cols = append(cols, columnRow{name: name, sqlType: colType})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	names, err := c.sqliteIndexNames(ctx, table)
	if err != nil {
		return nil, nil, err
	}

	var out []indexColumn
	for _, name := range names {
		part, err := c.sqliteIndexColumns(ctx, name)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, part...)
	}
	return cols, out, nil
}

func (c *sqlConnector) sqliteIndexNames(ctx context.Context, table string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", c.dialect.Quote(table)))
	if err != nil {
		return nil, fmt.Errorf("index list %s: %w", table, err)
	}
	defer rows.Close()

	// The column set of index_list differs between SQLite versions; the
	// index name is always the second column.
	colNames, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var names []string
	for rows.Next() {
		vals := make([]any, len(colNames))
		ptrs := make([]any, len(colNames))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan index list: %w", err)
		}
		switch v := vals[1].(type) {
		case string:
			names = append(names, v)
		case []byte:
			names = append(names, string(v))
		}
	}
	return names, rows.Err()
}

func (c *sqlConnector) sqliteIndexColumns(ctx context.Context, index string) ([]indexColumn, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", c.dialect.Quote(index)))
	if err != nil {
		return nil, fmt.Errorf("index info %s: %w", index, err)
	}
	defer rows.Close()

	var out []indexColumn
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("scan index info: %w", err)
		}
		// Expression indexes have no column name and cannot serve a lookup.
		if !name.Valid {
			return nil, rows.Err()
		}
		out = append(out, indexColumn{index: index, column: name.String})
	}
	return out, rows.Err()
}

// introspectInfoSchema works for MySQL and Postgres.
func (c *sqlConnector) introspectInfoSchema(ctx context.Context, table string) ([]columnRow, []indexColumn, error) {
	var colQuery, idxQuery string
	switch c.driverName {
	case "mysql":
		colQuery = `SELECT COLUMN_NAME, COLUMN_TYPE FROM INFORMATION_SCHEMA.COLUMNS
			WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION`
		idxQuery = `SELECT INDEX_NAME, COLUMN_NAME FROM INFORMATION_SCHEMA.STATISTICS
			WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
			ORDER BY INDEX_NAME, SEQ_IN_INDEX`
	default:
		colQuery = `SELECT column_name, data_type FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position`
		idxQuery = `SELECT i.relname, a.attname
			FROM pg_index x
			JOIN pg_class t ON t.oid = x.indrelid
			JOIN pg_class i ON i.oid = x.indexrelid
			JOIN pg_namespace n ON n.oid = t.relnamespace
			CROSS JOIN LATERAL unnest(x.indkey) WITH ORDINALITY AS k(attnum, ord)
			LEFT JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum AND k.attnum <> 0
			WHERE n.nspname = current_schema() AND t.relname = $1
			ORDER BY i.relname, k.ord`
	}

	rows, err := c.db.QueryContext(ctx, colQuery, table)
	if err != nil {
		return nil, nil, fmt.Errorf("columns %s: %w", table, err)
	}
	var cols []columnRow
	for rows.Next() {
		var col columnRow
		if err := rows.Scan(&col.name, &col.sqlType); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, col)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	rows, err = c.db.QueryContext(ctx, idxQuery, table)
	if err != nil {
		return nil, nil, fmt.Errorf("indices %s: %w", table, err)
	}
	defer rows.Close()
	var parts []indexPart
	for rows.Next() {
		var p indexPart
		if err := rows.Scan(&p.index, &p.column); err != nil {
			return nil, nil, fmt.Errorf("scan index: %w", err)
		}
		parts = append(parts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cols, columnIndices(parts), nil
}
