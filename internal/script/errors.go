package script

import "errors"

// Runtime errors.
var (
	// ErrClosed is returned when using a closed runtime.
	ErrClosed = errors.New("script runtime is closed")

	// ErrNotAFunction is returned when calling a global that is not a function.
	ErrNotAFunction = errors.New("global is not a function")
)
