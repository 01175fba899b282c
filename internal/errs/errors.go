// Package errs declares the failure kinds shared across the service.
//
// Each kind is a registered sentinel; call sites wrap them with context and
// callers test with errors.Is. The RPC layer maps kinds onto wire codes.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a malformed or incomplete request: missing
	// beneficiary list, missing group, bad enum value.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a disbursement, group or beneficiary that does not
	// resolve.
	ErrNotFound = errors.New("not found")

	// ErrGateway marks a custodial-service or chain RPC failure: unreachable,
	// rejected, or malformed response.
	ErrGateway = errors.New("gateway failure")

	// ErrDuplicate marks a unique-key violation.
	ErrDuplicate = errors.New("duplicate")

	// ErrState marks an operation invalid for the entity's current state,
	// such as a backwards status transition.
	ErrState = errors.New("invalid state")
)

// Wrap annotates a sentinel kind with a message. The result satisfies
// errors.Is(err, kind).
func Wrap(kind error, msg string) error {
	return fmt.Errorf("%w: %s", kind, msg)
}

// Wrapf annotates a sentinel kind with a formatted message.
func Wrapf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
