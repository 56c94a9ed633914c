package security

import (
	"errors"
	"testing"
	"time"
)

func newTestProvider() *TokenProvider {
	return NewTokenProvider(
		[]byte("test-access-secret"),
		[]byte("test-refresh-secret"),
		15*time.Minute,
		168*time.Hour,
	)
}

func TestTokenProvider_IssueAndVerifyAccess(t *testing.T) {
	p := newTestProvider()
	token, expiresAt, err := p.IssueAccess("acct-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if token == "" {
		t.Fatal("IssueAccess returned empty token")
	}
	if !expiresAt.After(time.Now()) {
		t.Error("expiresAt should be in the future")
	}

	claims, err := p.Verify(token, TokenClassAccess)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.AccountID() != "acct-1" {
		t.Errorf("AccountID = %q, want %q", claims.AccountID(), "acct-1")
	}
	if claims.TokenClass != TokenClassAccess {
		t.Errorf("TokenClass = %q, want access", claims.TokenClass)
	}
}

func TestTokenProvider_IssueAndVerifyRefresh(t *testing.T) {
	p := newTestProvider()
	token, _, err := p.IssueRefresh("acct-2")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	claims, err := p.Verify(token, TokenClassRefresh)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.AccountID() != "acct-2" {
		t.Errorf("AccountID = %q, want %q", claims.AccountID(), "acct-2")
	}
}

func TestTokenProvider_WrongClass(t *testing.T) {
	p := newTestProvider()

	refresh, _, _ := p.IssueRefresh("acct-3")
	if _, err := p.Verify(refresh, TokenClassAccess); !errors.Is(err, ErrWrongTokenClass) {
		t.Errorf("refresh token as access = %v, want ErrWrongTokenClass", err)
	}

	access, _, _ := p.IssueAccess("acct-3")
	if _, err := p.Verify(access, TokenClassRefresh); !errors.Is(err, ErrWrongTokenClass) {
		t.Errorf("access token as refresh = %v, want ErrWrongTokenClass", err)
	}
}

func TestTokenProvider_Expired(t *testing.T) {
	p := newTestProvider()
	token, _, err := p.IssueAccess("acct-4")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	// Move the provider's clock past the 15m TTL.
	p.now = func() time.Time { return time.Now().UTC().Add(16 * time.Minute) }
	if _, err := p.Verify(token, TokenClassAccess); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Verify after expiry = %v, want ErrTokenExpired", err)
	}
}

func TestTokenProvider_ExpiresExactlyAtTTL(t *testing.T) {
	p := newTestProvider()
	issuedAt := time.Now().UTC()
	p.now = func() time.Time { return issuedAt }
	token, expiresAt, err := p.IssueAccess("acct-5")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if got, want := expiresAt, issuedAt.Add(15*time.Minute); !got.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", got, want)
	}

	// One second past expiry must fail.
	p.now = func() time.Time { return issuedAt.Add(15*time.Minute + time.Second) }
	if _, err := p.Verify(token, TokenClassAccess); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Verify at ttl+1s = %v, want ErrTokenExpired", err)
	}
}

func TestTokenProvider_Malformed(t *testing.T) {
	p := newTestProvider()
	testCases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"two segments", "abc.def"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := p.Verify(tc.token, TokenClassAccess); !errors.Is(err, ErrMalformedToken) {
				t.Errorf("Verify(%q) = %v, want ErrMalformedToken", tc.token, err)
			}
		})
	}
}

func TestTokenProvider_TamperedSignature(t *testing.T) {
	p := newTestProvider()
	other := NewTokenProvider(
		[]byte("different-access-secret"),
		[]byte("different-refresh-secret"),
		15*time.Minute,
		168*time.Hour,
	)
	token, _, _ := other.IssueAccess("acct-6")
	if _, err := p.Verify(token, TokenClassAccess); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Verify foreign-signed token = %v, want ErrInvalidSignature", err)
	}
}
