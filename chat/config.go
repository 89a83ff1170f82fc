package chat

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config controls how the engine connects. The bearer token and the self id
// come from the external auth collaborator; everything else is deployment
// configuration.
type Config struct {
	// WSURL is the websocket endpoint of the pub/sub channel.
	WSURL string `envconfig:"WS_URL" validate:"required,url"`

	// APIBaseURL is the base URL of the REST surface (history, upload).
	APIBaseURL string `envconfig:"API_URL" validate:"required,url"`

	// Token is the bearer credential for both surfaces.
	Token string `envconfig:"TOKEN"`

	// SelfID is the numeric id of the current participant.
	SelfID int64 `envconfig:"SELF_ID"`

	HandshakeTimeout time.Duration `envconfig:"HANDSHAKE_TIMEOUT"`
	WriteTimeout     time.Duration `envconfig:"WRITE_TIMEOUT"`

	// ReadTimeout bounds a single frame read. Zero disables it; a chat
	// channel can legitimately sit idle for a long time.
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT"`

	// ReconnectDelay is the fixed pause between reconnect attempts. The
	// delay is deliberately constant rather than exponential: the user is
	// actively viewing the conversation and wants fast recovery.
	ReconnectDelay time.Duration `envconfig:"RECONNECT_DELAY" validate:"gt=0"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      0,
		ReconnectDelay:   2 * time.Second,
	}
}

// FromEnv loads configuration from CHAT_-prefixed environment variables on
// top of the defaults.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := envconfig.Process("chat", &cfg); err != nil {
		return Config{}, WrapError(ErrorInvalidConfig, "load environment", err)
	}
	return cfg, nil
}

// Validate checks the config against its declared constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return WrapError(ErrorInvalidConfig, "validate config", err)
	}
	return nil
}
