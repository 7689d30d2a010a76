// Package serverapi contains Go types corresponding to the scryptkdf HTTP API.
package serverapi

import (
	"github.com/kopia/scryptkdf/bridge"
)

// ScryptRequest is the request of the 'scrypt' HTTP API command.
type ScryptRequest struct {
	Passphrase bridge.Input   `json:"passphrase"`
	Salt       bridge.Input   `json:"salt"`
	Options    bridge.Options `json:"options"`
}

// Wipe zeroes the passphrase and salt.
func (r *ScryptRequest) Wipe() {
	r.Passphrase.Wipe()
	r.Salt.Wipe()
}

// ScryptResponse is the response of the 'scrypt' HTTP API command.
type ScryptResponse struct {
	Key string `json:"key"`
}

// DefaultsResponse is the response of the 'defaults' HTTP API command.
type DefaultsResponse = bridge.Options

// APIErrorCode indicates machine-readable error code returned in API responses.
type APIErrorCode string

// Supported error codes.
const (
	ErrorInternal           APIErrorCode = APIErrorCode(bridge.CodeInternal)
	ErrorInvalidParameter   APIErrorCode = APIErrorCode(bridge.CodeInvalidParameter)
	ErrorInsufficientMemory APIErrorCode = APIErrorCode(bridge.CodeInsufficientMemory)
	ErrorInvalidArguments   APIErrorCode = APIErrorCode(bridge.CodeInvalidArguments)
	ErrorMalformedRequest   APIErrorCode = "MalformedRequest"
	ErrorNotFound           APIErrorCode = "NotFound"
)

// ErrorResponse represents error response.
type ErrorResponse struct {
	Code  APIErrorCode `json:"code"`
	Error string       `json:"error"`
}
