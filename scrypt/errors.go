package scrypt

import (
	"github.com/pkg/errors"
)

const (
	reasonBadN               = "N must be a power of 2 greater than 1."
	reasonBadR               = "r must be greater than 0."
	reasonBadP               = "p must be greater than 0."
	reasonTooLarge           = "parameters are too large: 128 * r * p must be less than 2^30."
	reasonBadKeyLength       = "dkLen must be greater than 0."
	reasonInsufficientMemory = "Insufficient memory available."
)

var (
	// ErrInvalidParameter is matched (via errors.Is) by every *InvalidParameterError.
	ErrInvalidParameter = errors.New("invalid scrypt parameter")

	// ErrInsufficientMemory is returned when the working memory of a derivation cannot be obtained.
	ErrInsufficientMemory = errors.New("insufficient memory for scrypt")
)

// InvalidParameterError is returned when cost parameters or key length are unusable.
type InvalidParameterError struct {
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return "invalid scrypt parameter: " + e.Reason
}

// Is implements errors.Is.
func (e *InvalidParameterError) Is(target error) bool {
	return target == ErrInvalidParameter //nolint:errorlint
}

func invalidParameter(reason string) error {
	return &InvalidParameterError{Reason: reason}
}

// Reason returns the human-readable reason carried by an error returned from this package.
// Other errors are described by their message.
func Reason(err error) string {
	if err == nil {
		return ""
	}

	var ipe *InvalidParameterError
	if errors.As(err, &ipe) {
		return ipe.Reason
	}

	if errors.Is(err, ErrInsufficientMemory) {
		return reasonInsufficientMemory
	}

	return err.Error()
}
