package server

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/kopia/scryptkdf/bridge"
	"github.com/kopia/scryptkdf/internal/serverapi"
)

func (s *Server) handleScrypt(ctx context.Context, _ *http.Request, body []byte) (interface{}, *apiError) {
	var req serverapi.ScryptRequest

	defer req.Wipe()

	if err := json.Unmarshal(body, &req); err != nil {
		return nil, unableToDecodeRequest(err)
	}

	if req.Passphrase == nil || req.Salt == nil {
		return nil, requestError(serverapi.ErrorInvalidArguments, "passphrase and salt are required")
	}

	key, err := s.bridge.Scrypt(ctx, req.Passphrase, req.Salt, req.Options)
	if err != nil {
		return nil, derivationError(err)
	}

	defer clear(key)

	return &serverapi.ScryptResponse{Key: hex.EncodeToString(key)}, nil
}

func handleDefaults(_ context.Context, _ *http.Request, _ []byte) (interface{}, *apiError) {
	return bridge.DefaultOptions(), nil
}
