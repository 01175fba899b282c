package errs

import (
	"errors"
	"testing"
)

func TestWrapPreservesKind(t *testing.T) {
	err := Wrap(ErrNotFound, "disbursement abc")
	if !errors.Is(err, ErrNotFound) {
		t.Error("wrapped error lost its kind")
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Error("wrapped error matches the wrong kind")
	}
	if err.Error() != "not found: disbursement abc" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestWrapfPreservesKind(t *testing.T) {
	err := Wrapf(ErrState, "cannot move %s -> %s", "COMPLETED", "PENDING")
	if !errors.Is(err, ErrState) {
		t.Error("wrapped error lost its kind")
	}
	if err.Error() != "invalid state: cannot move COMPLETED -> PENDING" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
