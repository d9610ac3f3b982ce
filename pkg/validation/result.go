package validation

import (
	"sort"
	"strings"
)

// FieldErrors maps a json field name to every message raised for it.
// "non_field_errors" holds errors that belong to the payload as a whole.
type FieldErrors map[string][]string

const NonFieldErrors = "non_field_errors"

func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

func (fe FieldErrors) Merge(other FieldErrors) {
	for field, msgs := range other {
		fe[field] = append(fe[field], msgs...)
	}
}

func (fe FieldErrors) HasErrors() bool { return len(fe) > 0 }

// Error renders "field: msg; field: msg" in field order.
func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(fe[f], ", "))
	}
	return strings.Join(parts, "; ")
}

// Result is either a validated value or the field errors that prevented it.
type Result[T any] struct {
	value  T
	errors FieldErrors
}

func Valid[T any](v T) Result[T] { return Result[T]{value: v} }

func Invalid[T any](errs FieldErrors) Result[T] { return Result[T]{errors: errs} }

// Value returns the validated value and true, or the zero value and false.
func (r Result[T]) Value() (T, bool) {
	if r.errors.HasErrors() {
		var zero T
		return zero, false
	}
	return r.value, true
}

func (r Result[T]) Errors() FieldErrors { return r.errors }
