package lookup

import "fieldlookup/internal/domain"

// Pair binds a driving-table field to a reference-table field.
type Pair struct {
	Driving   string `json:"driving"`
	Reference string `json:"reference"`
}

// ValidatePair resolves df against the driving schema and rf against the
// reference schema and checks that both have the same type. It does not look
// at indices.
func ValidatePair(driving, reference *domain.Schema, df, rf string) (Pair, error) {
	dt, ok := driving.Field(df)
	if !ok {
		return Pair{}, &UnknownFieldError{Side: Driving, Source: driving.Name(), Field: df}
	}
	rt, ok := reference.Field(rf)
	if !ok {
		return Pair{}, &UnknownFieldError{Side: Reference, Source: reference.Name(), Field: rf}
	}
	p := Pair{Driving: df, Reference: rf}
	if dt != rt {
		return Pair{}, &TypeMismatchError{Pair: p, DrivingType: dt, ReferenceType: rt}
	}
	return p, nil
}
