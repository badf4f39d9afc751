package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AUTH_JWT_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 365*24*time.Hour, cfg.Auth.EmployeeTokenTTL)
	assert.Equal(t, 330, cfg.Analytics.TimezoneOffsetMinutes)
	assert.Equal(t, 21, cfg.Analytics.RollupCutoffHour)
	assert.Equal(t, 24*time.Hour, cfg.Analytics.CacheTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Telegram.Enabled)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_ENV", "test")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("AUTH_TOKEN_TTL", "15m")
	t.Setenv("AUTH_EMPLOYEE_TOKEN_TTL", "720h")
	t.Setenv("ANALYTICS_ROLLUP_CUTOFF_HOUR", "18")
	t.Setenv("ANALYTICS_TIMEZONE_OFFSET_MINUTES", "-300")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "test", cfg.Server.Env)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.EmployeeTokenTTL)
	assert.Equal(t, 18, cfg.Analytics.RollupCutoffHour)
	assert.Equal(t, -300, cfg.Analytics.TimezoneOffsetMinutes)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	content := `
server:
  port: "7070"
  cors_origins: ["https://canteen.example.com"]
auth:
  jwt_secret: from-file
telegram:
  enabled: true
  bot_token: "123:ABC"
`
	path := filepath.Join(dir, "canteen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, []string{"https://canteen.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.True(t, cfg.Telegram.Enabled)
	assert.Equal(t, "123:ABC", cfg.Telegram.BotToken)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "auth.jwt_secret")
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Auth:      AuthConfig{JWTSecret: "x"},
		Analytics: AnalyticsConfig{TimezoneOffsetMinutes: 330, RollupCutoffHour: 24},
		Telegram:  TelegramConfig{Enabled: true},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rollup_cutoff_hour")
	assert.Contains(t, err.Error(), "bot_token")

	cfg.Analytics.RollupCutoffHour = 21
	cfg.Telegram.BotToken = "t"
	assert.NoError(t, cfg.Validate())
}
