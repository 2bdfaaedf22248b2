package api

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "ok", header: "Bearer header.payload.signature", want: "header.payload.signature"},
		{name: "padded", header: "  Bearer header.payload.signature ", want: "header.payload.signature"},
		{name: "missing", header: "", wantErr: errMissingAuthorization},
		{name: "blank", header: "   ", wantErr: errMissingAuthorization},
		{name: "scheme", header: "Basic header.payload.signature", wantErr: errBadAuthorization},
		{name: "noToken", header: "Bearer ", wantErr: errBadAuthorization},
		{name: "manyPeriods", header: "Bearer " + strings.Repeat(".", 1000), wantErr: errBadAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bearerToken(tt.header)
			if err != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Fatalf("unexpected token %q", got)
			}
		})
	}
}

func TestUserIDFromAuthHeaderHS256(t *testing.T) {
	auth := NewAuth(nil, "api://aud", "https://issuer/", AuthOptions{TestSecret: "test-secret"})
	now := time.Now()
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": "user-123",
			"aud": "api://aud",
			"iss": "https://issuer/",
			"exp": now.Add(5 * time.Minute).Unix(),
			"nbf": now.Add(-time.Minute).Unix(),
			"iat": now.Add(-time.Minute).Unix(),
		}
	}

	userID, err := auth.UserIDFromAuthHeader("Bearer " + signHS256(t, "test-secret", base()))
	if err != nil {
		t.Fatalf("unexpected error verifying token: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("unexpected user id: %s", userID)
	}

	tests := []struct {
		name   string
		secret string
		mutate func(jwt.MapClaims)
	}{
		{name: "wrongSecret", secret: "other", mutate: func(jwt.MapClaims) {}},
		{name: "expired", secret: "test-secret", mutate: func(c jwt.MapClaims) { c["exp"] = now.Add(-time.Hour).Unix() }},
		{name: "issuedInFuture", secret: "test-secret", mutate: func(c jwt.MapClaims) { c["iat"] = now.Add(10 * time.Minute).Unix() }},
		{name: "noExpiry", secret: "test-secret", mutate: func(c jwt.MapClaims) { delete(c, "exp") }},
		{name: "audience", secret: "test-secret", mutate: func(c jwt.MapClaims) { c["aud"] = "api://other" }},
		{name: "issuer", secret: "test-secret", mutate: func(c jwt.MapClaims) { c["iss"] = "https://evil/" }},
		{name: "missingSub", secret: "test-secret", mutate: func(c jwt.MapClaims) { delete(c, "sub") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := base()
			tt.mutate(claims)
			if _, err := auth.UserIDFromToken(signHS256(t, tt.secret, claims)); err == nil {
				t.Fatal("expected token to be rejected")
			}
		})
	}
}

func TestRS256WithoutJWKS(t *testing.T) {
	auth := NewAuth(nil, "", "", AuthOptions{})
	if auth.TestMode {
		t.Fatal("test mode must require a secret")
	}
	token := signHS256(t, "secret", jwt.MapClaims{"sub": "u", "exp": time.Now().Add(time.Hour).Unix()})
	if _, err := auth.UserIDFromToken(token); err == nil {
		t.Fatal("HS256 token must be rejected outside test mode")
	}
}

func TestSignTestToken(t *testing.T) {
	if _, err := SignTestToken("", "u", time.Hour); err == nil {
		t.Fatal("expected missing secret error")
	}
	token, err := SignTestToken("secret", "board-owner", 0)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	auth := NewAuth(nil, "", "", AuthOptions{TestSecret: "secret"})
	userID, err := auth.UserIDFromAuthHeader("Bearer " + token)
	if err != nil || userID != "board-owner" {
		t.Fatalf("unexpected result %q %v", userID, err)
	}
}
