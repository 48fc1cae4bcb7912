package testsupport

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"marquee/internal/config"
)

// Token signs an HS256 bearer token for userID with the configured secret.
func Token(t testing.TB, cfg *config.Config, userID string) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	if cfg.Auth.Issuer != "" {
		claims.Issuer = cfg.Auth.Issuer
	}
	if cfg.Auth.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Auth.Audience}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
