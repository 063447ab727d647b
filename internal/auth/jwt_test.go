package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager("secret", 15*time.Minute)

	raw, err := m.GenerateAccessToken("u-1", "alice@example.com", "ORGANIZER")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.VerifyAccessToken(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Email != "alice@example.com" || claims.Role != "ORGANIZER" || claims.UserID != "u-1" {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.JTI == "" {
		t.Fatalf("missing jti")
	}
}

func TestVerifyRejects(t *testing.T) {
	m := NewManager("secret", 15*time.Minute)
	good, _ := m.GenerateAccessToken("u-1", "alice@example.com", "USER")

	expired := NewManager("secret", 15*time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, _ := expired.GenerateAccessToken("u-1", "alice@example.com", "USER")

	other, _ := NewManager("other-secret", 15*time.Minute).GenerateAccessToken("u-1", "alice@example.com", "USER")

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email:     "alice@example.com",
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	refreshRaw, _ := refresh.SignedString([]byte("secret"))

	noEmail, _ := m.GenerateAccessToken("u-1", "", "USER")

	tests := []struct {
		name, token string
	}{
		{"expired", stale},
		{"wrong secret", other},
		{"refresh type", refreshRaw},
		{"no email", noEmail},
		{"tampered", good[:len(good)-2] + "xx"},
		{"garbage", strings.Repeat("a", 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.VerifyAccessToken(tt.token); err == nil {
				t.Fatalf("expected rejection")
			}
		})
	}

	if _, err := m.VerifyAccessToken(good); err != nil {
		t.Fatalf("good token rejected: %v", err)
	}
}
