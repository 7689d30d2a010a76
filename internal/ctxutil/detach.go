// Package ctxutil implements utilities for manipulating context.
package ctxutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// Detach returns a context that keeps the values of ctx but is never canceled and has no deadline.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// GoDetached invokes the provided function in a goroutine where the context is detached.
// When wg is not nil, the goroutine is added to it before GoDetached returns.
func GoDetached(ctx context.Context, wg *sync.WaitGroup, fun func(ctx context.Context)) {
	if wg != nil {
		wg.Add(1)
	}

	dctx := Detach(ctx)

	go func() {
		if wg != nil {
			defer wg.Done()
		}

		fun(dctx)
	}()
}

// WithRequestID returns a context carrying a new random request ID, unless ctx already has one.
func WithRequestID(ctx context.Context) context.Context {
	if RequestID(ctx) != "" {
		return ctx
	}

	return context.WithValue(ctx, requestIDKey{}, uuid.NewString())
}

// RequestID returns the request ID attached to ctx or an empty string.
func RequestID(ctx context.Context) string {
	s, _ := ctx.Value(requestIDKey{}).(string)

	return s
}
