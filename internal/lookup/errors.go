package lookup

import (
	"fmt"
	"strings"

	"fieldlookup/internal/domain"
)

// Side identifies which of the two correlated tables an error refers to.
type Side int

const (
	Driving Side = iota
	Reference
)

func (s Side) String() string {
	switch s {
	case Driving:
		return "driving"
	case Reference:
		return "reference"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// UnknownFieldError reports a field name that does not exist in its table.
type UnknownFieldError struct {
	Side   Side
	Source string
	Field  string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("lookup: %s table %q has no field %q", e.Side, e.Source, e.Field)
}

// TypeMismatchError reports a pair whose fields resolve to different types.
type TypeMismatchError struct {
	Pair          Pair
	DrivingType   domain.FieldType
	ReferenceType domain.FieldType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("lookup: cannot pair %s (%s) with %s (%s): types differ",
		e.Pair.Driving, e.DrivingType, e.Pair.Reference, e.ReferenceType)
}

// NoMatchingIndexError reports that the fields paired so far on one side are
// not a prefix of any index on that table.
type NoMatchingIndexError struct {
	Side   Side
	Source string
	Fields []string
}

func (e *NoMatchingIndexError) Error() string {
	return fmt.Sprintf("lookup: no index on %s table %q starts with (%s)",
		e.Side, e.Source, strings.Join(e.Fields, ", "))
}

// IncompleteLookupError reports that the full pair set does not cover exactly
// one index on a side.
type IncompleteLookupError struct {
	Side   Side
	Source string
	Fields []string
}

func (e *IncompleteLookupError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("lookup: no fields paired for %s table %q", e.Side, e.Source)
	}
	return fmt.Sprintf("lookup: fields (%s) on %s table %q do not match any index exactly",
		strings.Join(e.Fields, ", "), e.Side, e.Source)
}
