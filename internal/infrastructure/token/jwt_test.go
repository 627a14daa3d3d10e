package token

import (
	"errors"
	"testing"
	"time"
)

func testIdentity() Identity {
	return Identity{UID: "u-1", Email: "ada@example.com", Role: "customer"}
}

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret")

	pair, err := m.Issue(testIdentity())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := m.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if got != testIdentity() {
		t.Errorf("identity = %+v", got)
	}

	got, err = m.VerifyRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if got.UID != "u-1" {
		t.Errorf("refresh identity = %+v", got)
	}
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret")

	pair, err := m.Issue(testIdentity())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.VerifyAccess(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Error("refresh token verified as access token")
	}
	if _, err := m.VerifyRefresh(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Error("access token verified as refresh token")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	issuer := NewManager("access-secret", "refresh-secret")
	verifier := NewManager("other-secret", "refresh-secret")

	pair, err := issuer.Issue(testIdentity())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := verifier.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret")

	issued := time.Now()
	m.now = func() time.Time { return issued }

	pair, err := m.Issue(testIdentity())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Just inside the access TTL.
	m.now = func() time.Time { return issued.Add(accessTokenTTL - time.Minute) }
	if _, err := m.VerifyAccess(pair.AccessToken); err != nil {
		t.Errorf("token rejected before expiry: %v", err)
	}

	// Just past it. The refresh token outlives the access token.
	m.now = func() time.Time { return issued.Add(accessTokenTTL + time.Minute) }
	if _, err := m.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken after expiry, got %v", err)
	}
	if _, err := m.VerifyRefresh(pair.RefreshToken); err != nil {
		t.Errorf("refresh token rejected inside its TTL: %v", err)
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret")

	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := m.VerifyAccess(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("raw %q: expected ErrInvalidToken, got %v", raw, err)
		}
	}
}
