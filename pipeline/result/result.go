// Package result provides the two-variant outcome type used by every handler
// and middleware in the pipeline, together with the error catalog primitives.
// Expected failures travel as catalog errors inside a Result; plain Go errors
// are reserved for infrastructure faults at registration time.
package result

// Unit is the payload type for commands that succeed without producing data.
type Unit = struct{}

// Result holds exactly one of a success value or a catalog error. The zero
// value is not meaningful; construct instances with Ok or Err only.
type Result[T any] struct {
	value T
	err   *Error
	ok    bool
}

// Ok creates a successful result carrying value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value, ok: true}
}

// Err creates a failed result carrying a catalog error.
// A nil error is a programming error and panics immediately.
func Err[T any](err *Error) Result[T] {
	if err == nil {
		panic("result: Err called with a nil error")
	}
	return Result[T]{err: err}
}

// IsOK reports whether the result holds a success value.
func (r Result[T]) IsOK() bool {
	return r.ok
}

// IsErr reports whether the result holds an error.
func (r Result[T]) IsErr() bool {
	return !r.ok
}

// Value returns the success value. Only meaningful after IsOK.
func (r Result[T]) Value() T {
	return r.value
}

// Err returns the catalog error, or nil for a successful result.
func (r Result[T]) Err() *Error {
	return r.err
}

// Map transforms the success value with fn and passes an error through
// unchanged. Declared at package level because Go methods cannot introduce
// new type parameters.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.IsErr() {
		return Err[U](r.err)
	}
	return Ok(fn(r.value))
}

// AndThen chains a result-producing step, short-circuiting on error.
func AndThen[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if r.IsErr() {
		return Err[U](r.err)
	}
	return fn(r.value)
}

// Match reduces the result to a single value by applying exactly one of the
// two branch functions.
func Match[T, U any](r Result[T], onOK func(T) U, onErr func(*Error) U) U {
	if r.IsOK() {
		return onOK(r.value)
	}
	return onErr(r.err)
}
