// Package actorctx carries the authenticated caller's email through a
// request context so code below the HTTP layer can resolve the actor.
package actorctx

import "context"

type ctxKey struct{}

func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ctxKey{}, email)
}

func EmailFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKey{}).(string)

	return v, ok && v != ""
}
