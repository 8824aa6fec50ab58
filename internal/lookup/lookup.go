// Package lookup builds correlated semi-join filters between two tables.
//
// A Lookup pairs fields of a driving table with fields of a reference table.
// Pairs are validated as they are added: both fields must exist, share a
// type, and the fields paired so far must remain a prefix of some index on
// each table. Check performs the stricter test used when the lookup is
// installed on a cursor: the paired fields must cover one full index on each
// side.
package lookup

import (
	"fmt"
	"slices"
	"strings"

	"fieldlookup/internal/domain"
)

// Lookup accumulates field pairs between a driving and a reference table.
// It is not safe for concurrent mutation; use one per session.
type Lookup struct {
	driving   *domain.Schema
	reference *domain.Schema
	pairs     []Pair
}

// New returns an empty lookup correlating driving with reference.
func New(driving, reference *domain.Schema) *Lookup {
	return &Lookup{driving: driving, reference: reference}
}

// Driving returns the schema of the table being filtered.
func (l *Lookup) Driving() *domain.Schema { return l.driving }

// Reference returns the schema of the table consulted for matches.
func (l *Lookup) Reference() *domain.Schema { return l.reference }

// Len returns the number of committed pairs.
func (l *Lookup) Len() int { return len(l.pairs) }

// Pairs returns the committed pairs in insertion order.
func (l *Lookup) Pairs() []Pair { return slices.Clone(l.pairs) }

// Add pairs df on the driving table with rf on the reference table.
// On error the lookup is left exactly as it was.
func (l *Lookup) Add(df, rf string) error {
	p, err := ValidatePair(l.driving, l.reference, df, rf)
	if err != nil {
		return err
	}

	next := make([]Pair, len(l.pairs), len(l.pairs)+1)
	copy(next, l.pairs)
	next = append(next, p)

	dfs, rfs := split(next)
	if !HasPrefixMatch(l.driving, dfs) {
		return &NoMatchingIndexError{Side: Driving, Source: l.driving.Name(), Fields: dfs}
	}
	if !HasPrefixMatch(l.reference, rfs) {
		return &NoMatchingIndexError{Side: Reference, Source: l.reference.Name(), Fields: rfs}
	}
	l.pairs = next
	return nil
}

// MustAdd is Add for chained construction of lookups known to be valid.
func (l *Lookup) MustAdd(df, rf string) *Lookup {
	if err := l.Add(df, rf); err != nil {
		panic(err)
	}
	return l
}

// Check verifies that the paired fields cover exactly one full index on each
// side and returns a frozen predicate describing the lookup.
func (l *Lookup) Check() (Predicate, error) {
	dfs, rfs := split(l.pairs)
	di, ok := ExactIndex(l.driving, dfs)
	if !ok {
		return Predicate{}, &IncompleteLookupError{Side: Driving, Source: l.driving.Name(), Fields: dfs}
	}
	ri, ok := ExactIndex(l.reference, rfs)
	if !ok {
		return Predicate{}, &IncompleteLookupError{Side: Reference, Source: l.reference.Name(), Fields: rfs}
	}
	return Predicate{
		Driving:        l.driving.Name(),
		Reference:      l.reference.Name(),
		Pairs:          slices.Clone(l.pairs),
		DrivingIndex:   di,
		ReferenceIndex: ri,
	}, nil
}

func (l *Lookup) String() string {
	parts := make([]string, len(l.pairs))
	for i, p := range l.pairs {
		parts[i] = p.Driving + "=" + p.Reference
	}
	return fmt.Sprintf("%s IN %s (%s)", l.driving.Name(), l.reference.Name(), strings.Join(parts, ", "))
}

// Predicate is an immutable snapshot of a checked lookup. A driving row R is
// retained when some reference row S has R.Driving == S.Reference for every
// pair.
type Predicate struct {
	Driving        string
	Reference      string
	Pairs          []Pair
	DrivingIndex   domain.Index
	ReferenceIndex domain.Index
}

func split(pairs []Pair) (driving, reference []string) {
	driving = make([]string, len(pairs))
	reference = make([]string, len(pairs))
	for i, p := range pairs {
		driving[i] = p.Driving
		reference[i] = p.Reference
	}
	return driving, reference
}
