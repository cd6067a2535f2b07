package mockapi

import (
	"errors"
	"testing"
	"time"
)

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("0123456789abcdef", time.Hour)

	signed, err := tokens.Issue(7, "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := tokens.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "alice" || claims.ID == "" {
		t.Fatalf("unexpected claims: %#v", claims)
	}
}

func TestTokensRejects(t *testing.T) {
	tokens := NewTokens("0123456789abcdef", time.Hour)
	signed, err := tokens.Issue(1, "bob")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewTokens("fedcba9876543210", time.Hour)
	if _, err := other.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign secret, got %v", err)
	}

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := tokens.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
	tokens.now = time.Now

	claims, err := tokens.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	tokens.Revoke(claims)
	if _, err := tokens.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after revoke, got %v", err)
	}
}

func TestParseTokenHeader(t *testing.T) {
	tests := map[string]string{
		"":            "",
		"Token abc":   "abc",
		"token  abc ": "abc",
		"Bearer abc":  "",
		"Tokenabc":    "",
		"Token a.b.c": "a.b.c",
	}
	for header, want := range tests {
		if got := parseTokenHeader(header); got != want {
			t.Errorf("parseTokenHeader(%q) = %q, want %q", header, got, want)
		}
	}
}
