package storage

import (
	"fmt"

	"provenance/pkg/platform/sentinel"
)

// UniqueViolation names the field whose uniqueness constraint was violated.
// It unwraps to sentinel.ErrAlreadyUsed.
type UniqueViolation struct {
	Field string
}

func (e *UniqueViolation) Error() string {
	return fmt.Sprintf("%s %s", e.Field, sentinel.ErrAlreadyUsed)
}

func (e *UniqueViolation) Unwrap() error {
	return sentinel.ErrAlreadyUsed
}

// Unique builds a UniqueViolation for field.
func Unique(field string) error {
	return &UniqueViolation{Field: field}
}
