package session

import (
	"errors"
	"fmt"

	"github.com/BioHazard786/eggcombat/internal/protocol"
)

var (
	ErrTransportOpen     = errors.New("transport open failed")
	ErrTransportConnect  = errors.New("transport connect failed")
	ErrPeerDisconnected  = errors.New("peer disconnected")
	ErrMalformedMessage  = protocol.ErrMalformed
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrNotConnected      = errors.New("session not connected")
)

// Error records the coordinator operation that failed.
type Error struct {
	Op      string
	Err     error
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *Error {
	return &Error{Op: op, Err: err, Details: details}
}
