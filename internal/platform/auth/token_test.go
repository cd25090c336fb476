package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMakeParseToken(t *testing.T) {
	uid := uuid.New()
	raw, err := MakeToken(uid, RoleDoctor, "test-secret", 15*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ParseToken(raw, "test-secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject != uid.String() {
		t.Errorf("expected subject %s, got %s", uid, claims.Subject)
	}
	if claims.Role != RoleDoctor {
		t.Errorf("expected role doctor, got %s", claims.Role)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	raw, _ := MakeToken(uuid.New(), RoleUser, "secret-a", 15*time.Minute)
	if _, err := ParseToken(raw, "secret-b"); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	raw, _ := MakeToken(uuid.New(), RoleUser, "test-secret", -time.Minute)
	if _, err := ParseToken(raw, "test-secret"); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestParseToken_Garbage(t *testing.T) {
	if _, err := ParseToken("not.a.token", "test-secret"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestHashCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !CheckPassword(hash, "hunter22") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "hunter23") {
		t.Error("expected mismatch for wrong password")
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range []string{RoleUser, RoleDoctor, RoleAdmin} {
		if !ValidRole(r) {
			t.Errorf("expected %q to be valid", r)
		}
	}
	if ValidRole("superuser") {
		t.Error("expected unknown role to be invalid")
	}
}
