package core

import "fmt"

// The error taxonomy named in spec §7. Names are semantic, matching the
// spec's vocabulary — not Go convention dressing.

// ParseError means the main script (or an imported module) failed to parse.
type ParseError struct {
	File string
	Err  error
}

func (e ParseError) Error() string { return fmt.Sprintf("parse error in %s: %v", e.File, e.Err) }
func (e ParseError) Unwrap() error { return e.Err }

// CompileError means the script compiled as a module but instantiation or
// linking failed (e.g. an import could not be resolved).
type CompileError struct {
	File  string
	Stack string
	Err   error
}

func (e CompileError) Error() string {
	return fmt.Sprintf("compile error in %s: %v\n%s", e.File, e.Err, e.Stack)
}
func (e CompileError) Unwrap() error { return e.Err }

// MainScriptError wraps a failure evaluating the top-level main script body
// (as opposed to a parse/link failure caught earlier).
type MainScriptError struct {
	Stack string
	Err   error
}

func (e MainScriptError) Error() string { return fmt.Sprintf("%v\n%s", e.Err, e.Stack) }
func (e MainScriptError) Unwrap() error { return e.Err }

// HandleExpired is returned from the Value Bridge when a weak handle's slot
// has already been explicitly deinited (tag == Null).
type HandleExpired struct {
	ID int32
}

func (e HandleExpired) Error() string { return fmt.Sprintf("handle %d has expired", e.ID) }

// CantConvert is returned from the Value Bridge on a native<->script type
// mismatch; it surfaces script-side as a TypeError.
type CantConvert struct {
	From, To string
}

func (e CantConvert) Error() string { return fmt.Sprintf("cannot convert %s to %s", e.From, e.To) }

// OutOfBounds and IndexOutOfBounds bridge to script as rejected promises or
// thrown errors per spec §7.
type OutOfBounds struct {
	Detail string
}

func (e OutOfBounds) Error() string { return "out of bounds: " + e.Detail }

type IndexOutOfBounds struct {
	Index, Length int
}

func (e IndexOutOfBounds) Error() string {
	return fmt.Sprintf("index %d out of bounds for length %d", e.Index, e.Length)
}

// Panic wraps an internal invariant violation recovered at the top-level
// caller of a native path; Message carries the recovered value for
// diagnostics.
type Panic struct {
	Message string
}

func (e Panic) Error() string { return "panic: " + e.Message }
