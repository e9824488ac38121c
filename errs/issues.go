package errs

import (
	"errors"
	"fmt"
)

// Issue validation errors. Their messages are the exact strings clients see.
var (
	ErrMissingRequiredField = errors.New("required field(s) missing")
	ErrMissingIdentifier    = errors.New("missing _id")
	ErrEmptyUpdateSet       = errors.New("no update field(s) sent")
	ErrInvalidField         = errors.New("invalid field")
)

// FieldError names the field that failed validation.
type FieldError struct {
	Field string
	err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.err.Error(), e.Field)
}

func (e *FieldError) Unwrap() error {
	return e.err
}

func NewMissingRequiredFieldError(field string) error {
	return &FieldError{Field: field, err: ErrMissingRequiredField}
}

func NewInvalidFieldError(field string, cause error) error {
	if cause == nil {
		return &FieldError{Field: field, err: ErrInvalidField}
	}
	return &FieldError{Field: field, err: fmt.Errorf("%w (%v)", ErrInvalidField, cause)}
}

func IsMissingRequiredFieldError(err error) bool {
	return errors.Is(err, ErrMissingRequiredField)
}

func IsMissingIdentifierError(err error) bool {
	return errors.Is(err, ErrMissingIdentifier)
}

func IsEmptyUpdateSetError(err error) bool {
	return errors.Is(err, ErrEmptyUpdateSet)
}

func IsInvalidFieldError(err error) bool {
	return errors.Is(err, ErrInvalidField)
}
