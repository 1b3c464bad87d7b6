package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	for _, key := range []string{"APP_PORT", "MONGODB_URI", "MONGODB_DB_NAME", "AUTH_TOKEN_TTL",
		"SUMMARY_CRON_SCHEDULE", "TIMEZONE", "ALERT_WEBHOOK_URL", "GOOGLE_SHEETS_CREDENTIALS_PATH"} {
		t.Setenv(key, "")
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	assert.Equal(t, "kgl_groceries", cfg.MongoDB.DBName)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "0 20 * * *", cfg.Reporting.CronSchedule)
	assert.Equal(t, "Africa/Kampala", cfg.Reporting.Timezone)
	assert.False(t, cfg.Alerts.Enabled())
	assert.False(t, cfg.Sheets.Enabled())
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("APP_PORT", "8081")
	t.Setenv("AUTH_TOKEN_TTL", "2h")
	t.Setenv("ALERT_WEBHOOK_URL", "https://hooks.example.com/ops")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Alerts.Enabled())
}

func TestLoadRejectsBadTokenTTL(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("AUTH_TOKEN_TTL", "soon")

	_, err := Load("")
	assert.Error(t, err)
}

func TestValidateSheetsPairing(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_PATH", "/tmp/creds.json")
	t.Setenv("GOOGLE_SHEET_EXPORT_ID", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_SHEET_EXPORT_ID")
}
