package chat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FarahDimassi/coachchat-go/chat"
)

func Test_FromEnv_overrides_defaults(t *testing.T) {
	t.Setenv("CHAT_WS_URL", "ws://chat.example.com/ws")
	t.Setenv("CHAT_API_URL", "https://chat.example.com/api")
	t.Setenv("CHAT_RECONNECT_DELAY", "500ms")
	t.Setenv("CHAT_SELF_ID", "7")

	cfg, err := chat.FromEnv()

	require.NoError(t, err)
	assert.Equal(t, "ws://chat.example.com/ws", cfg.WSURL)
	assert.Equal(t, "https://chat.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.ReconnectDelay)
	assert.Equal(t, int64(7), cfg.SelfID)
	assert.Equal(t, 10*time.Second, cfg.HandshakeTimeout, "untouched defaults survive")
}

func Test_Validate_rejects_missing_endpoints(t *testing.T) {
	cfg := chat.DefaultConfig()

	err := cfg.Validate()

	require.Error(t, err)
	assert.ErrorIs(t, err, chat.NewError(chat.ErrorInvalidConfig, ""))
}

func Test_Validate_accepts_complete_config(t *testing.T) {
	cfg := chat.DefaultConfig()
	cfg.WSURL = "ws://localhost:8080/ws"
	cfg.APIBaseURL = "http://localhost:8080/api"

	assert.NoError(t, cfg.Validate())
}
