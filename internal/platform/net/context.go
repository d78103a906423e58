// Package net provides request context helpers shared by the http layer
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const keyUserToken ctxKey = "user_token"

// RequestID returns the request id placed on the context by the middleware
func RequestID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// WithUserToken annotates ctx with the caller's opaque identity token
func WithUserToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, keyUserToken, token)
}

// UserToken returns the caller's identity token, empty when anonymous
func UserToken(ctx context.Context) string {
	if v, ok := ctx.Value(keyUserToken).(string); ok {
		return v
	}
	return ""
}
