package auth

import (
	"testing"
	"time"

	"github.com/Asim-Shah-2004/medicine-app/internal/shared/config"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/types"
)

func testIssuer(accessTTL time.Duration) *TokenIssuer {
	return NewTokenIssuer(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: time.Hour,
	})
}

func TestIssueAndVerify(t *testing.T) {
	issuer := testIssuer(time.Hour)
	userID := types.NewID()

	pair, err := issuer.Issue(userID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	got, err := issuer.Verify(pair.AccessToken, TokenTypeAccess)
	if err != nil {
		t.Fatalf("Verify access: %v", err)
	}
	if got != userID {
		t.Errorf("subject = %s, want %s", got, userID)
	}

	got, err = issuer.Verify(pair.RefreshToken, TokenTypeRefresh)
	if err != nil {
		t.Fatalf("Verify refresh: %v", err)
	}
	if got != userID {
		t.Errorf("refresh subject = %s, want %s", got, userID)
	}
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	issuer := testIssuer(time.Hour)
	pair, err := issuer.Issue(types.NewID())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := issuer.Verify(pair.RefreshToken, TokenTypeAccess); err == nil {
		t.Error("refresh token must not pass as an access token")
	}
	if _, err := issuer.Verify(pair.AccessToken, TokenTypeRefresh); err == nil {
		t.Error("access token must not pass as a refresh token")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := testIssuer(-time.Minute)
	pair, err := issuer.Issue(types.NewID())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := issuer.Verify(pair.AccessToken, TokenTypeAccess); err == nil {
		t.Error("expired token must not verify")
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	pair, err := testIssuer(time.Hour).Issue(types.NewID())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := NewTokenIssuer(config.AuthConfig{
		JWTSecret:       "different-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: time.Hour,
	})
	if _, err := other.Verify(pair.AccessToken, TokenTypeAccess); err == nil {
		t.Error("token signed with another secret must not verify")
	}
}
