// Package errors defines the error taxonomy shared by the BB84 simulation
// packages. All failures are configuration mistakes caught at construction
// time; nothing inside the engine is recoverable or transient.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter indicates an out-of-domain construction argument:
	// a basis or bit outside its domain, a non-positive key length, a
	// transmission multiplier below 2, an intercept probability outside
	// [0, 1], or an unrecognized eavesdropping strategy.
	ErrInvalidParameter = errors.New("bb84: invalid parameter")

	// ErrLengthMismatch indicates parallel sequences of differing lengths
	// were passed to a batch operation.
	ErrLengthMismatch = errors.New("bb84: length mismatch")
)

// InvalidParameterf wraps ErrInvalidParameter with detail about the
// offending argument.
func InvalidParameterf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

// LengthMismatchf wraps ErrLengthMismatch with the mismatched lengths.
func LengthMismatchf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrLengthMismatch, fmt.Sprintf(format, args...))
}
