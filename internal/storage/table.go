package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fieldlookup/internal/domain"
)

// TableDDL returns the statements that create the table and its indices.
func (db *DB) TableDDL(s *domain.Schema) []string {
	fields := s.Fields()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = "  " + db.d.Quote(f.Name) + " " + db.d.ColumnType(f.Type)
	}
	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", db.d.Quote(s.Name()), strings.Join(cols, ",\n")),
	}
	for _, idx := range s.Indices() {
		stmts = append(stmts, db.indexDDL(s.Name(), idx))
	}
	return stmts
}

func (db *DB) indexDDL(table string, idx domain.Index) string {
	cols := make([]string, len(idx.Fields))
	for i, f := range idx.Fields {
		cols[i] = db.d.Quote(f)
	}
	// MySQL has no CREATE INDEX IF NOT EXISTS; duplicates are skipped in CreateTable.
	ifNotExists := " IF NOT EXISTS"
	if db.d.Driver() == domain.DatabaseDriverMySQL {
		ifNotExists = ""
	}
	return fmt.Sprintf("CREATE INDEX%s %s ON %s (%s)",
		ifNotExists, db.d.Quote(idx.Name), db.d.Quote(table), strings.Join(cols, ", "))
}

// CreateTable creates the table and its indices if they do not exist yet.
// Existing tables are left as they are.
func (db *DB) CreateTable(ctx context.Context, s *domain.Schema) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, stmt := range db.TableDDL(s) {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			if db.d.Driver() == domain.DatabaseDriverMySQL && strings.Contains(err.Error(), "Duplicate key name") {
				continue
			}
			return fmt.Errorf("create table %s: %w", s.Name(), err)
		}
	}
	db.log.WithField("table", s.Name()).Debug("table ready")
	return nil
}

// Insert adds one row. Fields missing from rec are stored as NULL.
func (db *DB) Insert(ctx context.Context, s *domain.Schema, rec Record) error {
	var cols, marks []string
	var args []any
	for _, name := range s.FieldNames() {
		v, ok := rec[name]
		if !ok {
			continue
		}
		cols = append(cols, db.d.Quote(name))
		args = append(args, v)
		marks = append(marks, db.d.Placeholder(len(args)))
	}
	for name := range rec {
		if _, ok := s.Field(name); !ok {
			return fmt.Errorf("insert into %s: unknown field %q", s.Name(), name)
		}
	}

	var query string
	if len(cols) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", db.d.Quote(s.Name()))
		if db.d.Driver() == domain.DatabaseDriverMySQL {
			query = fmt.Sprintf("INSERT INTO %s () VALUES ()", db.d.Quote(s.Name()))
		}
	} else {
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			db.d.Quote(s.Name()), strings.Join(cols, ", "), strings.Join(marks, ", "))
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", s.Name(), err)
	}
	return nil
}

// DeleteAll removes every row of the table.
func (db *DB) DeleteAll(ctx context.Context, table string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, "DELETE FROM "+db.d.Quote(table))
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}
