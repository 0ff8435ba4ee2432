package scan

import (
	"errors"
	"fmt"
)

// ErrParse matches any ParseError via errors.Is
var ErrParse = errors.New("malformed scan document")

// ParseError reports a scan document that could not be decoded
type ParseError struct {
	Document string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Document == "" {
		return fmt.Sprintf("parse scan document: %v", e.Err)
	}
	return fmt.Sprintf("parse scan document %s: %v", e.Document, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrParse) match
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
