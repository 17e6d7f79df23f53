package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("BADGER_FILEPATH", "/tmp/badger")
	t.Setenv("BLUGE_FILEPATH", "/tmp/bluge")
	t.Setenv("JWT_SECRET", "0123456789abcdef")
}

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	setRequired(t)

	config, err := Load()

	req.NoError(err)
	req.Equal("0.0.0.0:8080", config.Address())
	req.Equal(time.Hour, config.AuthTokenDuration)
	req.Equal(64, config.ConnectionBufferSize)
	req.Equal([]string{"*"}, config.Origins())
	req.True(config.EnableModeration)
	req.Equal(200*time.Millisecond, config.RestartInterval)
}

func TestLoad_Overrides(t *testing.T) {
	req := require.New(t)
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("CHARACTER_REPLACEMENT", "#")
	t.Setenv("AUTH_TOKEN_DURATION", "15m")

	config, err := Load()

	req.NoError(err)
	req.Equal(9090, config.Port)
	req.Equal([]string{"https://a.example.com", "https://b.example.com"}, config.Origins())
	req.Equal("#", config.CharReplacement)
	req.Equal(15*time.Minute, config.AuthTokenDuration)
}

func TestLoad_Rejects_Invalid_Values(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"short secret", "JWT_SECRET", "short"},
		{"multi rune replacement", "CHARACTER_REPLACEMENT", "**"},
		{"zero shards", "REGISTRY_SHARDS", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)
	r, err := CharacterRune("€")
	req.NoError(err)
	req.Equal('€', r)

	_, err = CharacterRune("")
	req.Error(err)
}
