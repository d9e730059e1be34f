package reader

import (
	"errors"
	"fmt"

	"dictlookup/internal/array"
)

var (
	ErrArityMismatch       = errors.New("columns number mismatch in dictionary reader")
	ErrTypeMismatch        = errors.New("type mismatch in dictionary reader")
	ErrUnsupportedKeyArity = errors.New("composite dictionary keys are not supported")
	ErrInvalidKeyArity     = errors.New("dictionary reader needs at least one key column")
)

// TypeMismatchError reports a callable whose return type disagrees with the
// declared type of the attribute it was bound for. Attribute is empty for the
// existence check.
type TypeMismatchError struct {
	Attribute string
	Expected  array.DataType
	Actual    array.DataType
}

func (e *TypeMismatchError) Error() string {
	if e.Attribute == "" {
		return fmt.Sprintf("%v: existence check returns %s, expected %s", ErrTypeMismatch, e.Actual, e.Expected)
	}
	return fmt.Sprintf("%v: attribute %s is %s, declared %s", ErrTypeMismatch, e.Attribute, e.Actual, e.Expected)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }
