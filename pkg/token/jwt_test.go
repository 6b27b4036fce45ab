package token_test

import (
	"testing"
	"time"

	"eventsite-api/pkg/token"
)

func TestJWTManager_GenerateAndVerify(t *testing.T) {
	m := token.NewJWTManager("secret", time.Hour, "eventsite-api")
	signed, expiresAt, err := m.GenerateToken("admin")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected expiry in the future")
	}
	claims, err := m.VerifyToken(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "admin" || claims.Role != token.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTManager_RejectsForeignSecretAndExpired(t *testing.T) {
	signed, _, _ := token.NewJWTManager("other", time.Hour, "eventsite-api").GenerateToken("admin")
	if _, err := token.NewJWTManager("secret", time.Hour, "eventsite-api").VerifyToken(signed); err == nil {
		t.Fatalf("expected signature mismatch")
	}

	expired, _, _ := token.NewJWTManager("secret", -time.Minute, "eventsite-api").GenerateToken("admin")
	if _, err := token.NewJWTManager("secret", time.Hour, "eventsite-api").VerifyToken(expired); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}
