// Package fverr provides the typed error kinds shared across params, fv,
// and sim, so callers can errors.As into a *fverr.Error and switch on
// Kind instead of parsing message text.
package fverr

import "fmt"

// Kind classifies why an operation failed.
type Kind int

const (
	// InvalidArgument: a well-formed operand violates a declared invariant
	// (coefficient >= q, exponent = 0, empty list, etc).
	InvalidArgument Kind = iota
	// LogicError: the parameters forbid the requested path (NTT requested
	// but not enabled, relinearization needed without evaluation keys).
	LogicError
	// OutOfRange: an index or coefficient count exceeds the polynomial
	// modulus degree.
	OutOfRange
	// InvariantViolation: a coprimality check failed inside a Euclidean
	// routine.
	InvariantViolation
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case LogicError:
		return "LogicError"
	case OutOfRange:
		return "OutOfRange"
	case InvariantViolation:
		return "InvariantViolation"
	default:
		return "Unknown"
	}
}

// Error is the typed error value returned by params/fv/sim operations.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error wrapping msg under op and kind.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf("%s", msg)}
}

// Wrap builds an *Error wrapping an existing error under op and kind.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
