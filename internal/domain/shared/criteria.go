package shared

import (
	"reflect"

	"github.com/google/uuid"
)

// Operator is a predicate operator
type Operator int

const (
	OpEq Operator = iota
	OpIn
)

// Condition is one equality or set-membership predicate over a column.
// A nil value (or typed nil pointer) with OpEq means IS NULL.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// Eq builds a column = value predicate
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// In builds a column IN (values) predicate
func In(field string, values any) Condition {
	return Condition{Field: field, Op: OpIn, Value: values}
}

// ByID is shorthand for the primary-key predicate
func ByID(id uuid.UUID) Condition {
	return Eq("id", id)
}

// IsNull reports whether the condition value is nil or a nil pointer
func (c Condition) IsNull() bool {
	if c.Value == nil {
		return true
	}
	v := reflect.ValueOf(c.Value)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
