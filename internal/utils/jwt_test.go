package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewAccessTokenClaims(t *testing.T) {
	at, err := NewAccessToken("secret", 42, "reader", 15)
	if err != nil {
		t.Fatalf("new access token: %v", err)
	}
	if at.Token == "" {
		t.Fatal("empty token")
	}
	if until := time.Until(at.Exp); until < 14*time.Minute || until > 16*time.Minute {
		t.Fatalf("unexpected expiry distance %v", until)
	}

	tok, err := jwt.Parse(at.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !tok.Valid {
		t.Fatalf("parse: %v", err)
	}
	claims := tok.Claims.(jwt.MapClaims)
	if claims["sub"].(float64) != 42 {
		t.Fatalf("sub claim: %v", claims["sub"])
	}
	if claims["role"].(string) != "reader" {
		t.Fatalf("role claim: %v", claims["role"])
	}
}

func TestNewRefreshTokenUnique(t *testing.T) {
	a, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("refresh a: %v", err)
	}
	b, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("refresh b: %v", err)
	}
	if a.Raw == b.Raw {
		t.Fatal("two refresh tokens share a value")
	}
	if HashRefreshRaw(a.Raw) == HashRefreshRaw(b.Raw) {
		t.Fatal("hash collision on distinct tokens")
	}
	if HashRefreshRaw(a.Raw) != HashRefreshRaw(a.Raw) {
		t.Fatal("hash not deterministic")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "hunter2") {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword(hash, "hunter3") {
		t.Fatal("wrong password accepted")
	}
}

func TestPasswordCostClamped(t *testing.T) {
	// An out-of-range cost falls back to the bcrypt default instead of
	// erroring, so a misconfigured BCRYPT_COST cannot break signup.
	if _, err := HashPassword("pw", 99); err != nil {
		t.Fatalf("oversized cost: %v", err)
	}
	if _, err := HashPassword("pw", -1); err != nil {
		t.Fatalf("negative cost: %v", err)
	}
}
