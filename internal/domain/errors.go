package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record or scan document does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicateAddress is returned when a device with the same IP address exists
	ErrDuplicateAddress = errors.New("device with this ip address already exists")
)

// ValidationError reports an invalid field value
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
