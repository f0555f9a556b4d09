package rpc

import (
	"errors"
	"fmt"
)

// ErrProtocol marks output of the game server that does not follow the
// expected format: stderr on the exec channel or an unparseable result.
var ErrProtocol = errors.New("protocol violation")

// ParseError reports a result that is not a well-formed tuple.
type ParseError struct {
	Input  string
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse result %q at offset %d: %s", e.Input, e.Offset, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrProtocol
}

// ErrTooManySlices is returned when a chunked value does not terminate.
var ErrTooManySlices = errors.New("chunked value did not terminate")
