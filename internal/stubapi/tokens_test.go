package stubapi

import (
	"testing"
	"time"
)

func TestTokenIssueValidateRevoke(t *testing.T) {
	m := newTokenManager()
	token, err := m.Issue(42, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if id, ok := m.Validate(token); !ok || id != 42 {
		t.Fatalf("Validate = (%d, %v), want (42, true)", id, ok)
	}
	m.Revoke(token)
	if _, ok := m.Validate(token); ok {
		t.Fatal("revoked token still validates")
	}
}

func TestTokenExpiry(t *testing.T) {
	m := newTokenManager()
	token, err := m.Issue(7, time.Millisecond)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok := m.Validate(token); ok {
		t.Fatal("expired token still validates")
	}
}

func TestTokensAreUnique(t *testing.T) {
	m := newTokenManager()
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		token, err := m.Issue(int64(i), time.Hour)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token issued: %q", token)
		}
		seen[token] = true
	}
}
