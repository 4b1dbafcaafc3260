package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("ITEMSTORE_DATABASE_URL", "postgres://localhost:5432/itemstore")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Primary.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15, cfg.Server.ReadTimeout)
	assert.Empty(t, cfg.Logging.Token, "remote sink disabled without a token")
	assert.Equal(t, "itemstore", cfg.Observability.ServiceName)
	assert.Equal(t, "development", cfg.Observability.Environment)
	assert.False(t, cfg.Observability.Enabled())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("ITEMSTORE_DATABASE_URL", "postgres://db:5432/items")
	t.Setenv("ITEMSTORE_PRIMARY_ENV", "production")
	t.Setenv("ITEMSTORE_SERVER_PORT", "9000")
	t.Setenv("ITEMSTORE_SERVER_CORSORIGINS", "https://a.example, https://b.example")
	t.Setenv("ITEMSTORE_LOGGING_TOKEN", "xaat-123")
	t.Setenv("ITEMSTORE_OBSERVABILITY_LICENSEKEY", "0123456789012345678901234567890123456789")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Primary.Env)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins())
	assert.Equal(t, "xaat-123", cfg.Logging.Token)
	assert.Equal(t, "itemstore-dev", cfg.Logging.Dataset, "dataset falls back to default")
	assert.True(t, cfg.Observability.Enabled())
	assert.Equal(t, "production", cfg.Observability.Environment)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	// No ITEMSTORE_DATABASE_URL in the test environment.
	_, err := Load()
	require.Error(t, err)
}
