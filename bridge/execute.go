package bridge

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"

	"github.com/kopia/scryptkdf/internal/ctxutil"
)

// ActionScrypt is the only action understood by Execute.
const ActionScrypt = "scrypt"

// CallbackContext receives the outcome of an asynchronous request. Exactly one of its methods
// is invoked, exactly once.
type CallbackContext interface {
	Success(message string)
	Error(message string)
}

// Execute starts the named action with JSON-encoded arguments and reports the outcome through cb.
// For "scrypt" the arguments are [passphrase, salt, options], options may be omitted or null.
// The derived key is reported as a lowercase hex string. Execute returns false for unknown actions,
// in which case cb is never invoked.
//
// The work is not canceled when ctx is.
func (b *Bridge) Execute(ctx context.Context, action string, args []json.RawMessage, cb CallbackContext) bool {
	if action != ActionScrypt {
		return false
	}

	ctx = ctxutil.WithRequestID(ctx)
	requestID := ctxutil.RequestID(ctx)

	b.mu.Lock()

	if b.closed {
		b.mu.Unlock()
		cb.Error("bridge is closed")

		return true
	}

	ctxutil.GoDetached(ctx, &b.asyncWork, func(ctx context.Context) {
		log(ctx).Debugw("scrypt request started", "requestID", requestID)

		key, err := b.executeScrypt(ctx, args)
		if err != nil {
			log(ctx).Debugw("scrypt request failed", "requestID", requestID, "error", err)
			cb.Error(err.Message)

			return
		}

		encoded := hex.EncodeToString(key)
		clear(key)

		log(ctx).Debugw("scrypt request succeeded", "requestID", requestID)
		cb.Success(encoded)
	})

	b.mu.Unlock()

	return true
}

func (b *Bridge) executeScrypt(ctx context.Context, args []json.RawMessage) ([]byte, *Error) {
	passphrase, salt, opt, perr := parseScryptArgs(args)

	defer passphrase.Wipe()
	defer salt.Wipe()

	if perr != nil {
		return nil, perr
	}

	key, err := b.Scrypt(ctx, passphrase, salt, opt)
	if err != nil {
		return nil, translateError(err)
	}

	return key, nil
}

const (
	argPassphrase = iota
	argSalt
	argOptions
	maxArgs
)

func parseScryptArgs(args []json.RawMessage) (passphrase, salt Input, opt Options, _ *Error) {
	if len(args) < argOptions || len(args) > maxArgs {
		return nil, nil, opt, invalidArguments("expected passphrase, salt and options")
	}

	if err := json.Unmarshal(args[argPassphrase], &passphrase); err != nil || passphrase == nil {
		return passphrase, nil, opt, invalidArguments("passphrase must be a string or an array of integers")
	}

	if err := json.Unmarshal(args[argSalt], &salt); err != nil || salt == nil {
		return passphrase, salt, opt, invalidArguments("salt must be a string or an array of integers")
	}

	if len(args) > argOptions && !isNull(args[argOptions]) {
		if err := json.Unmarshal(args[argOptions], &opt); err != nil {
			return passphrase, salt, opt, invalidArguments("options must be an object with non-negative integer N, r, p and dkLen")
		}
	}

	return passphrase, salt, opt, nil
}

func isNull(b json.RawMessage) bool {
	return len(b) == 0 || bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}
