// Package reqid carries the request correlation id through contexts, from
// the HTTP edge to published events and back out of the consumer.
package reqid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header that carries the id in both directions.
const Header = "X-Request-ID"

const maxLen = 64

type ctxKey struct{}

func With(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// From returns the id stored in ctx, or "".
func From(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Accept returns id if it is safe to echo and log, otherwise a fresh UUID.
func Accept(id string) string {
	if id == "" || len(id) > maxLen {
		return uuid.NewString()
	}
	for _, r := range id {
		ok := r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' || r == '.'
		if !ok {
			return uuid.NewString()
		}
	}
	return id
}
