package rpc

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/rahat-c2c/disburse/internal/errs"
)

// connectError maps service errors onto Connect codes. Unrecognized errors
// become CodeInternal.
func connectError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}

	code := connect.CodeInternal
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		code = connect.CodeInvalidArgument
	case errors.Is(err, errs.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, errs.ErrDuplicate):
		code = connect.CodeAlreadyExists
	case errors.Is(err, errs.ErrState):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, errs.ErrGateway):
		code = connect.CodeUnavailable
	}
	return connect.NewError(code, err)
}
