// Package assertx provides lightweight invariant assertions for internal
// state that must never be violated given a correct implementation. It is
// not a substitute for error handling at package boundaries: use it only
// for conditions whose failure indicates a bug in this codebase, never for
// conditions caused by external input or the environment.
package assertx

import "fmt"

// Assert panics with a formatted message if cond is false.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
}

// IsNotNil panics if v is nil.
func IsNotNil(v any, format string, args ...any) {
	if v == nil {
		panic(fmt.Sprintf("assertion failed (expected non-nil): "+format, args...))
	}
}

// IsNil panics if err is non-nil.
func IsNil(err error) {
	if err != nil {
		panic(fmt.Sprintf("assertion failed (expected nil error): %v", err))
	}
}

// Never panics unconditionally. Use for code paths that must be
// unreachable.
func Never(format string, args ...any) {
	panic(fmt.Sprintf("unreachable: "+format, args...))
}
