package result

import (
	"fmt"

	"github.com/goccy/go-reflect"
)

// Error is an immutable expected-failure value identified by a stable code
// (for example "Document.NoActiveDocument") and an ordered list of opaque
// arguments used for message formatting. Two errors are equal iff both the
// code and the arguments match.
type Error struct {
	code string
	args []any
}

// NewError constructs a catalog error. Prefer Def.New from a pre-declared
// catalog entry so callers can match on the code.
func NewError(code string, args ...any) *Error {
	e := &Error{code: code}
	if len(args) > 0 {
		e.args = append(make([]any, 0, len(args)), args...)
	}
	return e
}

// Code returns the stable identifier of the failure.
func (e *Error) Code() string {
	return e.code
}

// Args returns a copy of the formatting arguments.
func (e *Error) Args() []any {
	if len(e.args) == 0 {
		return nil
	}
	return append(make([]any, 0, len(e.args)), e.args...)
}

// Error implements the error interface for logging and tracing interop.
func (e *Error) Error() string {
	if len(e.args) == 0 {
		return e.code
	}
	return fmt.Sprintf("%s %v", e.code, e.args)
}

// Equal reports value equality: same code and deeply equal arguments.
func (e *Error) Equal(other *Error) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.code == other.code && reflect.DeepEqual(e.args, other.args)
}

// Is matches errors by code, making catalog errors work with errors.Is.
// Arguments are intentionally ignored here; use Equal for exact identity.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.code == e.code
}

// Def is a catalog entry: a pre-declared failure code with a constructor.
// Domains declare their catalogs as package-level var blocks of Defs so the
// set of expected failures is closed and matchable.
type Def struct {
	code string
}

// Define declares a catalog entry for the given code.
func Define(code string) Def {
	return Def{code: code}
}

// Code returns the code this entry constructs.
func (d Def) Code() string {
	return d.code
}

// New constructs an Error for this catalog entry.
func (d Def) New(args ...any) *Error {
	return NewError(d.code, args...)
}

// Is reports whether err was produced by this catalog entry.
func (d Def) Is(err *Error) bool {
	return err != nil && err.code == d.code
}
