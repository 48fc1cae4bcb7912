package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marquee/internal/services"
)

var (
	// ErrMissingToken is returned when a request carries no bearer token.
	ErrMissingToken = fmt.Errorf("session: missing bearer token: %w", services.ErrUnauthorized)
	// ErrInvalidToken is returned when a bearer token fails verification.
	ErrInvalidToken = fmt.Errorf("session: invalid bearer token: %w", services.ErrUnauthorized)
)

// Session identifies the authenticated caller.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Local builds a session for a trusted local caller such as the CLI.
func Local(userID string) (Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Session{}, fmt.Errorf("session: user id required: %w", services.ErrValidation)
	}
	return Session{UserID: userID, Role: "local"}, nil
}

// Expired reports whether the session has a deadline that has passed.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type contextKey struct{}

// WithSession returns a child context carrying s. The user id is also
// attached for log correlation.
func WithSession(ctx context.Context, s Session) context.Context {
	ctx = context.WithValue(ctx, contextKey{}, s)
	return services.WithUserID(ctx, s.UserID)
}

// FromContext returns the session stored in ctx.
func FromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	s, ok := ctx.Value(contextKey{}).(Session)
	if !ok || s.UserID == "" {
		return Session{}, false
	}
	return s, true
}

// Require returns the session stored in ctx or ErrMissingToken.
func Require(ctx context.Context) (Session, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return Session{}, ErrMissingToken
	}
	return s, nil
}
