package models

import (
	"errors"
	"fmt"
)

var ErrMissingField = errors.New("missing field")

// MissingFieldError reports a required attribute the platform did not supply.
type MissingFieldError struct {
	Object string
	ID     string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s %s: missing field %q", e.Object, e.ID, e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}
