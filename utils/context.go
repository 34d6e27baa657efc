package utils

import (
	"context"

	"github.com/jane4246/coffee-advisory/globals"
)

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, globals.UserIDKey, userID)
}

// GetUserIDFromContext returns "" for anonymous requests.
func GetUserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(globals.UserIDKey).(string)
	return id
}
