package session_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"marquee/internal/services"
	"marquee/internal/session"
)

const secret = "super-secret-signing-key"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func validClaims() *session.Claims {
	return &session.Claims{
		Email: "ada@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    "https://auth.example.com/auth/v1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(fixedNow.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(fixedNow.Add(time.Hour)),
		},
	}
}

func newVerifier(t *testing.T, opts ...session.VerifierOption) *session.Verifier {
	t.Helper()
	opts = append([]session.VerifierOption{session.WithClock(func() time.Time { return fixedNow })}, opts...)
	v, err := session.NewVerifier(secret, opts...)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return v
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	_, err := session.NewVerifier("  ")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestVerifyValidToken(t *testing.T) {
	v := newVerifier(t,
		session.WithIssuer("https://auth.example.com/auth/v1"),
		session.WithAudience("authenticated"),
	)
	s, err := v.Verify(sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims()))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if s.UserID != "user-123" || s.Email != "ada@example.com" || s.Role != "authenticated" {
		t.Fatalf("unexpected session %+v", s)
	}
	if !s.ExpiresAt.Equal(fixedNow.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", s.ExpiresAt)
	}
	if s.Expired(fixedNow) {
		t.Fatal("session should not be expired yet")
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(fixedNow.Add(-time.Hour))

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	noSubject := validClaims()
	noSubject.Subject = ""

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "https://evil.example.com"

	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"anon"}

	tests := []struct {
		name  string
		token string
	}{
		{"wrong signature", sign(t, jwt.SigningMethodHS256, []byte("another-secret"), validClaims())},
		{"wrong algorithm", sign(t, jwt.SigningMethodHS512, []byte(secret), validClaims())},
		{"none algorithm", sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, validClaims())},
		{"expired", sign(t, jwt.SigningMethodHS256, []byte(secret), expired)},
		{"missing expiry", sign(t, jwt.SigningMethodHS256, []byte(secret), noExpiry)},
		{"missing subject", sign(t, jwt.SigningMethodHS256, []byte(secret), noSubject)},
		{"wrong issuer", sign(t, jwt.SigningMethodHS256, []byte(secret), wrongIssuer)},
		{"wrong audience", sign(t, jwt.SigningMethodHS256, []byte(secret), wrongAudience)},
		{"malformed", "not.a.jwt"},
	}

	v := newVerifier(t,
		session.WithIssuer("https://auth.example.com/auth/v1"),
		session.WithAudience("authenticated"),
	)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(tc.token)
			if !errors.Is(err, session.ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
			if !errors.Is(err, services.ErrUnauthorized) {
				t.Fatalf("expected unauthorized classification, got %v", err)
			}
		})
	}
}

func TestVerifyLeewayToleratesSkew(t *testing.T) {
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(fixedNow.Add(-10 * time.Second))
	token := sign(t, jwt.SigningMethodHS256, []byte(secret), claims)

	if _, err := newVerifier(t).Verify(token); err != nil {
		t.Fatalf("expected default leeway to accept token, got %v", err)
	}
	if _, err := newVerifier(t, session.WithLeeway(0)).Verify(token); !errors.Is(err, session.ErrInvalidToken) {
		t.Fatalf("expected zero leeway to reject token, got %v", err)
	}
}

func TestAuthenticateReadsBearerHeader(t *testing.T) {
	v := newVerifier(t)
	token := sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims())

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"missing", "", session.ErrMissingToken},
		{"empty bearer", "Bearer   ", session.ErrMissingToken},
		{"basic scheme", "Basic dXNlcjpwYXNz", session.ErrInvalidToken},
		{"lowercase scheme", "bearer " + token, nil},
		{"valid", "Bearer " + token, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/favorites", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			s, err := v.Authenticate(req)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil || s.UserID != "user-123" {
				t.Fatalf("expected user-123, got %+v err=%v", s, err)
			}
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	if _, ok := session.FromContext(context.Background()); ok {
		t.Fatal("expected no session in empty context")
	}
	if _, err := session.Require(context.Background()); !errors.Is(err, session.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}

	s, err := session.Local(" user-9 ")
	if err != nil {
		t.Fatalf("Local: %v", err)
	}
	ctx := session.WithSession(context.Background(), s)
	got, err := session.Require(ctx)
	if err != nil || got.UserID != "user-9" {
		t.Fatalf("unexpected session %+v err=%v", got, err)
	}
	if id, ok := services.UserIDFromContext(ctx); !ok || id != "user-9" {
		t.Fatalf("expected user id in context, got %q", id)
	}
	if _, err := session.Local(""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
