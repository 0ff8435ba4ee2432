package monitor

import "fmt"

// RoundError is a store or infrastructure failure that abandoned a round
type RoundError struct {
	Op  string
	Err error
}

func (e *RoundError) Error() string {
	return fmt.Sprintf("monitor round: %s: %v", e.Op, e.Err)
}

func (e *RoundError) Unwrap() error {
	return e.Err
}
