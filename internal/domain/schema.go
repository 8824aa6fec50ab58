package domain

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidSchema is wrapped by every error NewSchema returns.
var ErrInvalidSchema = errors.New("invalid schema")

// FieldType is the primitive type tag of a table field.
type FieldType string

const (
	FieldTypeInteger  FieldType = "integer"
	FieldTypeFloating FieldType = "floating"
	FieldTypeDecimal  FieldType = "decimal"
	FieldTypeText     FieldType = "text"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeDatetime FieldType = "datetime"
	FieldTypeBlob     FieldType = "blob"
)

// Valid reports whether t is one of the known type tags.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeInteger, FieldTypeFloating, FieldTypeDecimal, FieldTypeText,
		FieldTypeBoolean, FieldTypeDatetime, FieldTypeBlob:
		return true
	}
	return false
}

// Field describes a single column of a table.
type Field struct {
	Name string    `json:"name" yaml:"name"`
	Type FieldType `json:"type" yaml:"type"`
}

// Index is a composite index in declared field order.
type Index struct {
	Name   string   `json:"name" yaml:"name"`
	Fields []string `json:"fields" yaml:"fields"`
}

// Schema describes one table: its typed fields and the indices declared on it.
// A Schema is immutable once built; accessors return copies, so it can be
// shared by any number of sessions without locking.
type Schema struct {
	name    string
	fields  []Field
	byName  map[string]FieldType
	indices []Index
}

// NewSchema builds a Schema and checks its invariants: field names are unique
// and typed, and every index is non-empty, uniquely named, free of duplicate
// fields and references only declared fields.
func NewSchema(name string, fields []Field, indices []Index) (*Schema, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: table name required", ErrInvalidSchema)
	}
	s := &Schema{
		name:   name,
		fields: make([]Field, 0, len(fields)),
		byName: make(map[string]FieldType, len(fields)),
	}
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: %s: empty field name", ErrInvalidSchema, name)
		}
		if !f.Type.Valid() {
			return nil, fmt.Errorf("%w: %s.%s: unknown type %q", ErrInvalidSchema, name, f.Name, f.Type)
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate field %q", ErrInvalidSchema, name, f.Name)
		}
		s.byName[f.Name] = f.Type
		s.fields = append(s.fields, f)
	}

	seen := make(map[string]bool, len(indices))
	for _, idx := range indices {
		if idx.Name == "" {
			return nil, fmt.Errorf("%w: %s: unnamed index", ErrInvalidSchema, name)
		}
		if seen[idx.Name] {
			return nil, fmt.Errorf("%w: %s: duplicate index %q", ErrInvalidSchema, name, idx.Name)
		}
		seen[idx.Name] = true
		if len(idx.Fields) == 0 {
			return nil, fmt.Errorf("%w: %s: index %q has no fields", ErrInvalidSchema, name, idx.Name)
		}
		used := make(map[string]bool, len(idx.Fields))
		for _, f := range idx.Fields {
			if _, ok := s.byName[f]; !ok {
				return nil, fmt.Errorf("%w: %s: index %q references unknown field %q", ErrInvalidSchema, name, idx.Name, f)
			}
			if used[f] {
				return nil, fmt.Errorf("%w: %s: index %q repeats field %q", ErrInvalidSchema, name, idx.Name, f)
			}
			used[f] = true
		}
		s.indices = append(s.indices, Index{Name: idx.Name, Fields: slices.Clone(idx.Fields)})
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. Intended for fixtures.
func MustSchema(name string, fields []Field, indices []Index) *Schema {
	s, err := NewSchema(name, fields, indices)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the table name.
func (s *Schema) Name() string { return s.name }

// Field returns the type of the named field.
func (s *Schema) Field(name string) (FieldType, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// Fields returns the fields in declared order.
func (s *Schema) Fields() []Field {
	return slices.Clone(s.fields)
}

// FieldNames returns an ordered list of field names.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Indices returns the declared indices. The returned slices are copies.
func (s *Schema) Indices() []Index {
	out := make([]Index, len(s.indices))
	for i, idx := range s.indices {
		out[i] = Index{Name: idx.Name, Fields: slices.Clone(idx.Fields)}
	}
	return out
}

// EachIndex calls fn for every index until fn returns false. The field slice
// passed to fn must not be modified.
func (s *Schema) EachIndex(fn func(name string, fields []string) bool) {
	for _, idx := range s.indices {
		if !fn(idx.Name, idx.Fields) {
			return
		}
	}
}
