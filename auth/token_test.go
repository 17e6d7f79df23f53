package auth

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokenService_Issue_Then_Verify(t *testing.T) {
	req := require.New(t)
	tokens := NewTokenService("secret", time.Hour)

	token, err := tokens.Issue(domain.User{ID: "42", Username: "alice"})
	req.NoError(err)

	identity, err := tokens.Verify(token)
	req.NoError(err)
	req.Equal(domain.Identity("alice"), identity)
}

func TestTokenService_Rejects(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)
	valid, err := tokens.Issue(domain.User{Username: "alice"})
	require.NoError(t, err)

	expired := NewTokenService("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.Issue(domain.User{Username: "alice"})
	require.NoError(t, err)

	otherSecret, err := NewTokenService("other", time.Hour).Issue(domain.User{Username: "alice"})
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", Issuer: issuer},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"expired", expiredToken},
		{"wrong secret", otherSecret},
		{"none algorithm", unsigned},
		{"tampered", valid + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Verify(tt.token)
			require.ErrorIs(t, err, errors.ErrUnauthenticated)
		})
	}
}

func TestTokenService_Issue_Requires_Username(t *testing.T) {
	_, err := NewTokenService("secret", time.Hour).Issue(domain.User{ID: "1"})
	require.ErrorIs(t, err, errors.ErrTokenGeneration)
}
