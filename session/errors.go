// Package session composes the tape, dispatcher, and checkpoint codec into
// a thin stateful façade: create a variable, run an op, read a value, run
// backward, read a gradient, snapshot/restore. It carries no policy of its
// own — every decision is forwarded to the layer that owns it.
package session

import (
	"errors"
	"fmt"
)

var ErrUnknownVariable = errors.New("session: unknown variable id")

// UnknownVariableError reports a variable id outside the session's tape.
type UnknownVariableError struct{ ID int }

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("session: unknown variable id %d", e.ID)
}
func (e *UnknownVariableError) Unwrap() error { return ErrUnknownVariable }
