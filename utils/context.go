package utils

import (
	"context"
	"net/http"

	"github.com/vocadeck/vocadeck-api/models"
)

type contextKey string

const userKey contextKey = "user"

// WithUser attaches the authenticated user to the context.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFrom returns the authenticated user attached by the auth middleware.
func UserFrom(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(userKey).(*models.User)
	return user, ok
}
