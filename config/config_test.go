package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "test")

	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, StorageBackendMinio, cfg.Storage.Backend)
	assert.Empty(t, cfg.Events.Backend)
}

func TestLoadConfig_MailProviderFollowsEnvironment(t *testing.T) {
	t.Setenv("EMAIL_PROVIDER", "")

	t.Setenv("ENV", "production")
	assert.Equal(t, EmailProviderSendGrid, LoadConfig().Mail.Provider)

	t.Setenv("ENV", "test")
	assert.Equal(t, EmailProviderSMTP, LoadConfig().Mail.Provider)
}

func TestLoadConfig_MailProviderOverride(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("EMAIL_PROVIDER", EmailProviderSMTP)

	assert.Equal(t, EmailProviderSMTP, LoadConfig().Mail.Provider)
}

func TestLoadConfig_TrimsBaseURL(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("APP_BASE_URL", "https://accounts.example.com/")

	assert.Equal(t, "https://accounts.example.com", LoadConfig().BaseURL)
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("FLAG", "true")
	assert.True(t, getEnvBool("FLAG", false))

	t.Setenv("FLAG", "off")
	assert.False(t, getEnvBool("FLAG", true))

	t.Setenv("FLAG", "sideways")
	assert.True(t, getEnvBool("FLAG", true))
}
