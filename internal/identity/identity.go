// Package identity exposes the authenticated patient identity to the rest of
// the application. Credentials are never handled here; the external identity
// provider issues tokens and the HTTP middleware validates them.
package identity

import "context"

// User is the authenticated principal for a request.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

type contextKey string

const userKey contextKey = "identity.user"

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// FromContext retrieves the authenticated user, if any.
func FromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	if !ok || u.ID == "" {
		return User{}, false
	}
	return u, true
}
