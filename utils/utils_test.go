package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateJWT("user@example.com")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	parsed, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if !parsed.Valid {
		t.Fatal("expected token to be valid")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("expected MapClaims")
	}
	if claims["email"] != "user@example.com" {
		t.Errorf("email claim = %v, want user@example.com", claims["email"])
	}
	if claims["type"] != "access" {
		t.Errorf("type claim = %v, want access", claims["type"])
	}
}

func TestRefreshTokenCarriesSession(t *testing.T) {
	token, err := GenerateRefreshToken("user@example.com", "session-123")
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	parsed, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}

	claims := parsed.Claims.(jwt.MapClaims)
	if claims["type"] != "refresh" {
		t.Errorf("type claim = %v, want refresh", claims["type"])
	}
	if claims["sessionId"] != "session-123" {
		t.Errorf("sessionId claim = %v, want session-123", claims["sessionId"])
	}
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	if _, err := ValidateJWT("not.a.token"); err == nil {
		t.Error("expected error for malformed token")
	}
	if _, err := ValidateJWT(""); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret!" {
		t.Fatal("hash must not equal the plain password")
	}

	if !ValidatePassword(hash, "s3cret!") {
		t.Error("correct password rejected")
	}
	if ValidatePassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}
