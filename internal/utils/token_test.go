package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueAndVerifyToken(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService("secret").WithClock(fixedClock(issuedAt))

	token, err := svc.IssueToken(map[string]interface{}{"email": "a@b.com", "name": "A"})
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "A", claims.Claims["name"])
	assert.Equal(t, issuedAt.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, TokenLifetime, claims.ExpiresAt.Sub(claims.IssuedAt))
}

func TestVerifyTokenExpiryBoundary(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenService("secret").WithClock(fixedClock(issuedAt))
	token, err := issuer.IssueToken(map[string]interface{}{"email": "a@b.com"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{name: "just issued", at: issuedAt},
		{name: "one second before expiry", at: issuedAt.Add(TokenLifetime - time.Second)},
		{name: "at expiry", at: issuedAt.Add(TokenLifetime)},
		{name: "one second after expiry", at: issuedAt.Add(TokenLifetime + time.Second), wantErr: ErrTokenExpired},
		{name: "a day later", at: issuedAt.Add(24 * time.Hour), wantErr: ErrTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := NewTokenService("secret").WithClock(fixedClock(tt.at))
			_, err := verifier.VerifyToken(token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestVerifyTokenKeepsSubSecondIssueTime(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 900_000_000, time.UTC)
	token, err := NewTokenService("secret").WithClock(fixedClock(issuedAt)).IssueToken(map[string]interface{}{"email": "a@b.com"})
	require.NoError(t, err)

	verifyAt := func(at time.Time) error {
		_, err := NewTokenService("secret").WithClock(fixedClock(at)).VerifyToken(token)
		return err
	}
	assert.NoError(t, verifyAt(time.Date(2024, 3, 1, 12, 59, 59, 500_000_000, time.UTC)))
	assert.NoError(t, verifyAt(time.Date(2024, 3, 1, 13, 0, 0, 500_000_000, time.UTC)))
	assert.NoError(t, verifyAt(issuedAt.Add(TokenLifetime)))
	assert.ErrorIs(t, verifyAt(issuedAt.Add(TokenLifetime+time.Millisecond)), ErrTokenExpired)
}

func TestIssueTokenOverridesLifetimeClaims(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService("secret").WithClock(fixedClock(issuedAt))

	token, err := svc.IssueToken(map[string]interface{}{
		"email": "a@b.com",
		"exp":   issuedAt.Add(365 * 24 * time.Hour).Unix(),
	})
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(TokenLifetime).Unix(), claims.ExpiresAt.Unix())
}

func TestVerifyTokenRejectsBadTokens(t *testing.T) {
	svc := NewTokenService("secret")
	token, err := svc.IssueToken(map[string]interface{}{"email": "a@b.com"})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	other, err := NewTokenService("other-secret").IssueToken(map[string]interface{}{"email": "a@b.com"})
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"tampered":     tampered,
		"wrong secret": other,
		"unsigned":     "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJlbWFpbCI6ImFAYi5jb20ifQ.",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.VerifyToken(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
