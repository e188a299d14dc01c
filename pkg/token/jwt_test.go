package token

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestSubjectVerified(t *testing.T) {
	parser := NewParser("local-secret")
	tok := signedToken(t, "local-secret", jwt.MapClaims{"sub": "manager-7"})

	sub, err := parser.Subject(tok)
	if err != nil {
		t.Fatalf("Subject: %v", err)
	}
	if sub != "manager-7" {
		t.Errorf("subject = %q, want manager-7", sub)
	}
}

func TestSubjectForeignTokenFallsBackToUnverified(t *testing.T) {
	// 外部 IdP 签发的 token：签名验证必然失败，但 subject 仍可用于分键
	parser := NewParser("local-secret")
	tok := signedToken(t, "other-idp-secret", jwt.MapClaims{"sub": "idp-user"})

	sub, err := parser.Subject(tok)
	if err != nil {
		t.Fatalf("Subject: %v", err)
	}
	if sub != "idp-user" {
		t.Errorf("subject = %q, want idp-user", sub)
	}
}

func TestSubjectEmailFallback(t *testing.T) {
	parser := NewParser("")
	tok := signedToken(t, "whatever", jwt.MapClaims{"email": "manager@deco.example"})

	sub, err := parser.Subject(tok)
	if err != nil {
		t.Fatalf("Subject: %v", err)
	}
	if sub != "manager@deco.example" {
		t.Errorf("subject = %q, want email claim", sub)
	}
}

func TestSubjectErrors(t *testing.T) {
	parser := NewParser("secret")
	if _, err := parser.Subject("not-a-jwt"); err == nil {
		t.Error("expected error for malformed token")
	}
	tok := signedToken(t, "secret", jwt.MapClaims{"aud": "nobody"})
	if _, err := parser.Subject(tok); err == nil {
		t.Error("expected error for token without subject")
	}
}
