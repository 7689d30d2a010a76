package server

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/kopia/scryptkdf/bridge"
	"github.com/kopia/scryptkdf/internal/serverapi"
)

type apiError struct {
	httpErrorCode int
	apiErrorCode  serverapi.APIErrorCode
	message       string
}

func requestError(apiErrorCode serverapi.APIErrorCode, message string) *apiError {
	return &apiError{http.StatusBadRequest, apiErrorCode, message}
}

func unableToDecodeRequest(err error) *apiError {
	return requestError(serverapi.ErrorMalformedRequest, "unable to decode request: "+err.Error())
}

func internalServerError(err error) *apiError {
	return &apiError{http.StatusInternalServerError, serverapi.ErrorInternal, fmt.Sprintf("internal server error: %v", err)}
}

// derivationError maps derivation failures onto HTTP status codes, keeping the reason verbatim.
func derivationError(err error) *apiError {
	var be *bridge.Error

	if !errors.As(err, &be) {
		return internalServerError(err)
	}

	code := serverapi.APIErrorCode(be.Code)

	switch be.Code {
	case bridge.CodeInvalidParameter, bridge.CodeInvalidArguments:
		return &apiError{http.StatusBadRequest, code, be.Message}
	case bridge.CodeInsufficientMemory:
		return &apiError{http.StatusServiceUnavailable, code, be.Message}
	default:
		return &apiError{http.StatusInternalServerError, code, be.Message}
	}
}
