// Package harperr implements the engine's closed error taxonomy.
//
// Every error the engine returns carries one of a fixed set of Kinds so
// that callers can dispatch on failure class without parsing messages.
// Causes are preserved with github.com/pkg/errors so Cause/Unwrap still
// reach the underlying driver or I/O failure.
package harperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the closed error taxonomy from the engine's error handling design.
type Kind string

const (
	OutOfMemory     Kind = "out_of_memory"
	InvalidArgument Kind = "invalid_argument"
	Operation       Kind = "operation"
	Script          Kind = "script"
	Import          Kind = "import"
	Product         Kind = "product"
)

// Position locates a script error in source text.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	if p.Line == 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Error is the engine's error value. It is never partially populated by a
// successful operation: either an operation returns nil, or it returns an
// Error and leaves its receiver unchanged.
type Error struct {
	Kind    Kind
	Message string
	Pos     Position
	cause   error
}

func (e *Error) Error() string {
	if e.Pos.Line != 0 {
		return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Message, e.Pos)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap lets errors.Is/errors.As reach the wrapped cause.
func (e *Error) Unwrap() error { return e.cause }

// Cause returns the root cause via github.com/pkg/errors semantics.
func (e *Error) Cause() error {
	if e.cause == nil {
		return e
	}
	return errors.Cause(e.cause)
}

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AtPosition attaches a source position, for Script errors.
func (e *Error) AtPosition(line, col int) *Error {
	e.Pos = Position{Line: line, Column: col}
	return e
}

// Wrap attaches cause to a new Error of the given kind.
func Wrap(cause error, kind Kind, message string) *Error {
	if cause == nil {
		return New(kind, "%s", message)
	}
	return &Error{Kind: kind, Message: message, cause: errors.WithMessage(cause, message)}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(cause error, kind Kind, format string, args ...interface{}) *Error {
	return Wrap(cause, kind, fmt.Sprintf(format, args...))
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// OOM is a convenience constructor for allocation failures.
func OOM(format string, args ...interface{}) *Error {
	return New(OutOfMemory, format, args...)
}

// InvalidArg is a convenience constructor for invalid_argument errors.
func InvalidArg(format string, args ...interface{}) *Error {
	return New(InvalidArgument, format, args...)
}

// Op is a convenience constructor for operation errors.
func Op(format string, args ...interface{}) *Error {
	return New(Operation, format, args...)
}

// ScriptErr is a convenience constructor for parse errors at a position.
func ScriptErr(line, col int, format string, args ...interface{}) *Error {
	return New(Script, format, args...).AtPosition(line, col)
}
