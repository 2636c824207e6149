package auth

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

const testSecret = "test-secret-at-least-32-characters-long!"

func TestJWTRoundTrip(t *testing.T) {
	h := NewJWTHandler(testSecret, time.Minute)
	token, err := h.GenerateAccessToken("operator", RoleOperator)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := h.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.Username != "operator" || claims.Role != RoleOperator {
		t.Errorf("claims = %q/%q, want operator/%s", claims.Username, claims.Role, RoleOperator)
	}
}

func TestJWTRejectsWrongKey(t *testing.T) {
	h := NewJWTHandler(testSecret, time.Minute)
	token, err := h.GenerateAccessToken("operator", RoleOperator)
	if err != nil {
		t.Fatal(err)
	}

	other := NewJWTHandler("another-secret-also-32-characters-xx", time.Minute)
	if _, err := other.ValidateAccessToken(token); err == nil {
		t.Error("token signed with a different key validated")
	}
}

func TestSecretHashRoundTrip(t *testing.T) {
	h := NewSecretHasher()
	encoded, err := h.HashSecret("hunter2")
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}

	ok, err := h.VerifySecret("hunter2", encoded)
	if err != nil || !ok {
		t.Errorf("correct secret rejected: ok=%v err=%v", ok, err)
	}
	ok, err = h.VerifySecret("hunter3", encoded)
	if err != nil || ok {
		t.Errorf("wrong secret accepted: ok=%v err=%v", ok, err)
	}
}

func TestLogin(t *testing.T) {
	hasher := NewSecretHasher()
	hash, err := hasher.HashSecret("sim-operator-secret")
	if err != nil {
		t.Fatal(err)
	}

	svc := NewAuthService(zap.NewNop(), testSecret, time.Minute, "operator", hash)

	if _, err := svc.Login("operator", "sim-operator-secret"); err != nil {
		t.Errorf("valid login failed: %v", err)
	}
	if _, err := svc.Login("operator", "wrong"); err == nil {
		t.Error("wrong secret logged in")
	}
	if _, err := svc.Login("admin", "sim-operator-secret"); err == nil {
		t.Error("unknown user logged in")
	}

	disabled := NewAuthService(zap.NewNop(), testSecret, time.Minute, "operator", "")
	if _, err := disabled.Login("operator", "anything"); err == nil {
		t.Error("login succeeded with no configured secret")
	}
}
