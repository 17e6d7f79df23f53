package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	ContentDir     string `env:"CONTENT_DIR,default=content"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=1h"`

	ConnectionBufferSize int    `env:"CONNECTION_BUFFER_SIZE,default=64"`
	RegistryShards       int    `env:"REGISTRY_SHARDS,default=32"`
	AllowedOrigins       string `env:"ALLOWED_ORIGINS,default=*"`

	LimitMessages    int   `env:"LIMIT_MESSAGES,default=100"`
	MaxContentLength int   `env:"MAX_CONTENT_LENGTH,default=2000"`
	MaxUploadSize    int64 `env:"MAX_UPLOAD_SIZE,default=10485760"`

	EnableModeration bool   `env:"ENABLE_MODERATION,default=true"`
	CharReplacement  string `env:"CHARACTER_REPLACEMENT,default=*"`

	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=5s"`
	GCInterval      time.Duration `env:"GC_INTERVAL,default=10m"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	InspectorPort int `env:"INSPECTOR_PORT,default=0"`
}

// Load reads the configuration from the environment and checks the values
// the type system cannot.
func Load() (Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if len(config.JWTSecret) < 16 {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if _, err := CharacterRune(config.CharReplacement); err != nil {
		return Config{}, err
	}
	if config.ConnectionBufferSize <= 0 || config.RegistryShards <= 0 {
		return Config{}, fmt.Errorf("CONNECTION_BUFFER_SIZE and REGISTRY_SHARDS must be positive")
	}
	return config, nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Origins splits ALLOWED_ORIGINS on commas, dropping blanks.
func (c Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
