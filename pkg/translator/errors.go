package translator

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnexpectedEOF   = errors.New("unexpected end of input")
	ErrInvalidCommand  = errors.New("invalid command")
	ErrInvalidSegment  = errors.New("invalid memory segment")
	ErrOutsideFunction = errors.New("outside function")
	ErrOutOfRange      = errors.New("out of range")
	ErrMalformedNumber = errors.New("malformed number")
)

// SyntaxError reports a command that could not be parsed or translated,
// with the unit, line and command ordinal it came from.
type SyntaxError struct {
	Unit    string
	Line    int
	Ordinal int
	Err     error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: command %d: %v", e.Unit, e.Line, e.Ordinal, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }
