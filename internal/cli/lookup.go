package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fieldlookup/internal/cursor"
	"fieldlookup/internal/domain"
	"fieldlookup/internal/lookup"
)

// lookupFlags are shared by count and explain.
type lookupFlags struct {
	driving   string
	reference string
	pairs     []string
	where     []string
}

func (f *lookupFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.driving, "driving", "", "table to filter")
	cmd.Flags().StringVar(&f.reference, "reference", "", "table whose rows drive the filter")
	cmd.Flags().StringArrayVar(&f.pairs, "pair", nil, "field pair drivingField=referenceField (repeatable, in index order)")
	cmd.Flags().StringArrayVar(&f.where, "where", nil, "equality filter field=value on the driving table (repeatable)")
	_ = cmd.MarkFlagRequired("driving")
}

// splitAssign parses "left=right".
func splitAssign(s string) (string, string, error) {
	l, r, ok := strings.Cut(s, "=")
	l, r = strings.TrimSpace(l), strings.TrimSpace(r)
	if !ok || l == "" {
		return "", "", fmt.Errorf("expected name=value, got %q", s)
	}
	return l, r, nil
}

// apply opens the driving cursor in sess, installs the --where filters and,
// when a reference table is given, builds and installs the lookup.
func (f *lookupFlags) apply(sess *cursor.Session) (*cursor.Cursor, *lookup.Lookup, error) {
	drv, err := sess.Cursor(f.driving)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range f.where {
		field, raw, err := splitAssign(w)
		if err != nil {
			return nil, nil, fmt.Errorf("--where: %w", err)
		}
		ft, ok := drv.Schema().Field(field)
		if !ok {
			return nil, nil, &lookup.UnknownFieldError{Side: lookup.Driving, Source: f.driving, Field: field}
		}
		v, err := parseValue(ft, raw)
		if err != nil {
			return nil, nil, fmt.Errorf("--where %s: %w", field, err)
		}
		if err := drv.SetRange(field, v); err != nil {
			return nil, nil, err
		}
	}

	if f.reference == "" {
		if len(f.pairs) > 0 {
			return nil, nil, errors.New("--pair needs --reference")
		}
		return drv, nil, nil
	}
	ref, err := sess.Cursor(f.reference)
	if err != nil {
		return nil, nil, err
	}
	l := sess.Lookup(drv, ref)
	for _, p := range f.pairs {
		df, rf, err := splitAssign(p)
		if err != nil {
			return nil, nil, fmt.Errorf("--pair: %w", err)
		}
		if err := l.Add(df, rf); err != nil {
			return nil, nil, err
		}
	}
	if err := drv.SetIn(l); err != nil {
		return nil, nil, err
	}
	return drv, l, nil
}

// parseValue converts a flag value to the Go type stored for t. The literal
// "null" selects NULL.
func parseValue(t domain.FieldType, raw string) (any, error) {
	if raw == "null" {
		return nil, nil
	}
	switch t {
	case domain.FieldTypeInteger:
		return strconv.ParseInt(raw, 10, 64)
	case domain.FieldTypeFloating, domain.FieldTypeDecimal:
		return strconv.ParseFloat(raw, 64)
	case domain.FieldTypeBoolean:
		return strconv.ParseBool(raw)
	case domain.FieldTypeDatetime:
		return time.Parse(time.RFC3339, raw)
	case domain.FieldTypeBlob:
		return []byte(raw), nil
	default:
		return raw, nil
	}
}

// describe renders lookup failures with the side and table at fault.
func describe(err error) string {
	var (
		unknown    *lookup.UnknownFieldError
		mismatch   *lookup.TypeMismatchError
		noIndex    *lookup.NoMatchingIndexError
		incomplete *lookup.IncompleteLookupError
	)
	switch {
	case errors.As(err, &unknown):
		return fmt.Sprintf("unknown field %q in %s table %s", unknown.Field, unknown.Side, unknown.Source)
	case errors.As(err, &mismatch):
		return fmt.Sprintf("cannot pair %s with %s: %s vs %s",
			mismatch.Pair.Driving, mismatch.Pair.Reference, mismatch.DrivingType, mismatch.ReferenceType)
	case errors.As(err, &noIndex):
		return fmt.Sprintf("no index of %s table %s starts with (%s); reorder or drop the last --pair",
			noIndex.Side, noIndex.Source, strings.Join(noIndex.Fields, ", "))
	case errors.As(err, &incomplete):
		return fmt.Sprintf("(%s) does not cover a whole index of %s table %s; add the remaining --pair flags",
			strings.Join(incomplete.Fields, ", "), incomplete.Side, incomplete.Source)
	default:
		return err.Error()
	}
}
