package authUtils

import (
	"errors"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
)

func TestGenerateAndParseToken(t *testing.T) {
	tests := []struct {
		name     string
		identity string
	}{
		{"resident", "42"},
		{"admin", "admin:3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken("secret", tt.identity, time.Hour)
			if err != nil {
				t.Fatalf("GenerateToken() error = %v", err)
			}
			got, err := ParseToken("secret", token)
			if err != nil {
				t.Fatalf("ParseToken() error = %v", err)
			}
			if got != tt.identity {
				t.Fatalf("ParseToken() = %q, want %q", got, tt.identity)
			}
		})
	}
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	if _, err := GenerateToken("", "1", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestParseTokenRejects(t *testing.T) {
	expired, _ := GenerateToken("secret", "1", -time.Minute)
	wrongKey, _ := GenerateToken("other", "1", time.Hour)
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	wrongAlg, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong key", wrongKey},
		{"no subject", noSubject},
		{"wrong algorithm", wrongAlg},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken("secret", tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("ParseToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}
