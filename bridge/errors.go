package bridge

import (
	"github.com/pkg/errors"

	"github.com/kopia/scryptkdf/scrypt"
)

// ErrorCode classifies errors reported to the host.
type ErrorCode string

// Error codes.
const (
	CodeInvalidParameter   ErrorCode = "InvalidParameter"
	CodeInsufficientMemory ErrorCode = "InsufficientMemory"
	CodeInvalidArguments   ErrorCode = "InvalidArguments"
	CodeInternal           ErrorCode = "Internal"
)

// Error is the host-facing form of a derivation failure. Message carries the engine's reason verbatim.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"error"`
}

func (e *Error) Error() string {
	return e.Message
}

func invalidArguments(msg string) *Error {
	return &Error{Code: CodeInvalidArguments, Message: msg}
}

// translateError converts an engine error into *Error.
func translateError(err error) *Error {
	var be *Error

	switch {
	case err == nil:
		return nil
	case errors.As(err, &be):
		return be
	case errors.Is(err, scrypt.ErrInvalidParameter):
		return &Error{Code: CodeInvalidParameter, Message: scrypt.Reason(err)}
	case errors.Is(err, scrypt.ErrInsufficientMemory):
		return &Error{Code: CodeInsufficientMemory, Message: scrypt.Reason(err)}
	default:
		return &Error{Code: CodeInternal, Message: err.Error()}
	}
}
