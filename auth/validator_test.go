package auth

import (
	"chat-relay/errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRegister(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"Valid request", RegisterRequest{"alice", "password1"}, false},
		{"Username too short", RegisterRequest{"al", "password1"}, true},
		{"Username too long", RegisterRequest{strings.Repeat("a", 33), "password1"}, true},
		{"Username with symbols", RegisterRequest{"alice!", "password1"}, true},
		{"Missing username", RegisterRequest{"", "password1"}, true},
		{"Password too short", RegisterRequest{"alice", "short"}, true},
		{"Password too long", RegisterRequest{"alice", strings.Repeat("a", 73)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.req)
			if tt.wantErr {
				require.ErrorIs(t, err, errors.ErrInvalidRequest)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateLogin(t *testing.T) {
	req := require.New(t)
	req.NoError(ValidateLogin(LoginRequest{"alice", "x"}))
	req.ErrorIs(ValidateLogin(LoginRequest{"alice", ""}), errors.ErrInvalidRequest)
}
