// Package server implements the scryptkdf HTTP API handlers.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kopia/scryptkdf/bridge"
	"github.com/kopia/scryptkdf/internal/ctxutil"
	"github.com/kopia/scryptkdf/internal/serverapi"
	"github.com/kopia/scryptkdf/logging"
)

var log = logging.Module("scryptkdf/server")

// maxRequestBodySize bounds the size of API request bodies.
const maxRequestBodySize = 1 << 20

const requestIDHeader = "X-Request-Id"

type apiRequestFunc func(ctx context.Context, r *http.Request, body []byte) (interface{}, *apiError)

// Options encapsulates all server options.
type Options struct {
	LogRequests bool
}

// Server exposes the key derivation bridge over HTTP.
type Server struct {
	options Options
	bridge  *bridge.Bridge
}

// New creates a Server that derives keys using the provided bridge.
func New(b *bridge.Bridge, options Options) *Server {
	return &Server{
		options: options,
		bridge:  b,
	}
}

// APIHandlers returns HTTP handler for the API.
func (s *Server) APIHandlers() http.Handler {
	m := mux.NewRouter()

	m.HandleFunc("/api/v1/scrypt", s.handleAPI(s.handleScrypt)).Methods(http.MethodPost)
	m.HandleFunc("/api/v1/defaults", s.handleAPI(handleDefaults)).Methods(http.MethodGet)

	m.NotFoundHandler = s.handleAPI(func(_ context.Context, r *http.Request, _ []byte) (interface{}, *apiError) {
		return nil, &apiError{http.StatusNotFound, serverapi.ErrorNotFound, "not found: " + r.URL.Path}
	})

	return m
}

func (s *Server) handleAPI(f apiRequestFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, berr := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
		if berr != nil {
			http.Error(w, "error reading request body", http.StatusInternalServerError)
			return
		}

		defer clear(body)

		ctx := ctxutil.WithRequestID(r.Context())

		if s.options.LogRequests {
			log(ctx).Debugw("request", "method", r.Method, "url", r.URL.String(), "bytes", len(body), "requestID", ctxutil.RequestID(ctx))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(requestIDHeader, ctxutil.RequestID(ctx))
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")

		v, err := f(ctx, r, body)
		if err == nil {
			if eerr := e.Encode(v); eerr != nil {
				log(ctx).Errorf("error encoding response: %v", eerr)
			}

			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(err.httpErrorCode)

		if s.options.LogRequests {
			log(ctx).Debugf("%v: error code %v message %v", r.URL, err.apiErrorCode, err.message)
		}

		_ = e.Encode(&serverapi.ErrorResponse{
			Code:  err.apiErrorCode,
			Error: err.message,
		})
	}
}
