package config

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func setEnvs(t *testing.T, m map[string]string) {
	t.Helper()
	for k, v := range m {
		t.Setenv(k, v)
	}
}

// clearEnv blanks every variable Load reads so host settings don't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "DEV_ALLOW_ALL_ORIGINS", "CACHE_ENABLED", "DB_DRIVER", "DB_PATH",
		"DATABASE_URL", "ENABLE_ROLLUPS", "DEFAULT_MAX_BEAT", "LOG_DIR", "STATUS_PAGE_URL", "ALERT_WEBHOOK_URL",
		"ALERT_WEBHOOK_SECRET", "ALERT_DISCORD_WEBHOOK_URL", "ALERT_TELEGRAM_BOT_TOKEN", "ALERT_TELEGRAM_CHAT_ID"} {
		t.Setenv(k, "")
	}
}

// --- getenv / envInt / envBool ---

func TestGetenv(t *testing.T) {
	t.Setenv("TEST_KEY_GETENV", "hello")
	assert.Equal(t, "hello", getenv("TEST_KEY_GETENV", "fallback"))

	os.Unsetenv("TEST_KEY_GETENV_MISSING")
	assert.Equal(t, "fallback", getenv("TEST_KEY_GETENV_MISSING", "fallback"))

	t.Setenv("TEST_KEY_EMPTY", "")
	assert.Equal(t, "default", getenv("TEST_KEY_EMPTY", "default"))
}

func TestEnvInt(t *testing.T) {
	cases := []struct {
		val  string
		def  int
		want int
	}{
		{"42", 0, 42},
		{"-5", 0, -5},
		{"0", 99, 0},
		{"not_a_number", 99, 99},
		{"3.14", 10, 10},
		{"", 7, 7},
	}
	for _, c := range cases {
		t.Setenv("TEST_INT", c.val)
		assert.Equal(t, c.want, envInt("TEST_INT", c.def), "value %q", c.val)
	}
}

func TestEnvBool(t *testing.T) {
	for _, val := range []string{"1", "true", "yes", "TRUE", "True", "YES"} {
		t.Setenv("TEST_BOOL", val)
		assert.True(t, envBool("TEST_BOOL", false), val)
	}
	for _, val := range []string{"0", "false", "no", "FALSE", "random"} {
		t.Setenv("TEST_BOOL", val)
		assert.False(t, envBool("TEST_BOOL", true), val)
	}
	t.Setenv("TEST_BOOL", "")
	assert.True(t, envBool("TEST_BOOL", true))
	assert.False(t, envBool("TEST_BOOL", false))
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "4555", cfg.Port)
	assert.Equal(t, ":4555", cfg.Addr())
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "./status.db", cfg.DBPath)
	assert.Equal(t, "logs", cfg.LogDir)
	assert.Equal(t, 120, cfg.DefaultMaxBeat)
	assert.True(t, cfg.EnableRollups)
	assert.True(t, cfg.CacheEnabled)
	assert.False(t, cfg.DevAllowAllOrigins)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	setEnvs(t, map[string]string{
		"PORT":                  "8080",
		"DB_DRIVER":             "Postgres",
		"DATABASE_URL":          "postgres://u:p@localhost/status",
		"ENABLE_ROLLUPS":        "false",
		"CACHE_ENABLED":         "0",
		"DEV_ALLOW_ALL_ORIGINS": "yes",
		"DEFAULT_MAX_BEAT":      "50",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "postgres://u:p@localhost/status", cfg.DatabaseURL)
	assert.False(t, cfg.EnableRollups)
	assert.False(t, cfg.CacheEnabled)
	assert.True(t, cfg.DevAllowAllOrigins)
	assert.Equal(t, 50, cfg.DefaultMaxBeat)
}

func TestLoad_PostgresURLFromFlag(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--database-url", "postgres://u@localhost/status"}))
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "postgres://u@localhost/status", cfg.DatabaseURL)
}

func TestValidate(t *testing.T) {
	base := Config{DBDriver: DriverSQLite, DBPath: "x.db", DefaultMaxBeat: 120}
	require.NoError(t, base.Validate())

	bad := base
	bad.DBDriver = "mysql"
	assert.ErrorContains(t, bad.Validate(), "unknown DB_DRIVER")

	bad = base
	bad.DefaultMaxBeat = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.DefaultMaxBeat = 1001
	assert.Error(t, bad.Validate())
}

// --- BindFlags ---

func TestBindFlags_OverridesLoaded(t *testing.T) {
	cfg := &Config{Port: "4555", DBDriver: DriverSQLite, DBPath: "a.db", EnableRollups: true, DefaultMaxBeat: 120}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)

	require.NoError(t, fs.Parse([]string{"-p", "9000", "--rollups=false", "--max-beat", "60"}))
	assert.Equal(t, "9000", cfg.Port)
	assert.False(t, cfg.EnableRollups)
	assert.Equal(t, 60, cfg.DefaultMaxBeat)
	assert.Equal(t, "a.db", cfg.DBPath, "unset flags keep loaded values")
}

func TestLoad_Alerts(t *testing.T) {
	clearEnv(t)
	setEnvs(t, map[string]string{
		"STATUS_PAGE_URL":           "https://status.example.com",
		"ALERT_WEBHOOK_URL":         "https://hooks.example.com/x",
		"ALERT_WEBHOOK_SECRET":      "s",
		"ALERT_DISCORD_WEBHOOK_URL": "https://discord.example.com/api/webhooks/1",
		"ALERT_TELEGRAM_BOT_TOKEN":  "123:abc",
		"ALERT_TELEGRAM_CHAT_ID":    "-100",
	})
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://status.example.com", cfg.StatusPageURL)
	assert.Equal(t, "https://hooks.example.com/x", cfg.WebhookURL)
	assert.Equal(t, "s", cfg.WebhookSecret)
	assert.Equal(t, "https://discord.example.com/api/webhooks/1", cfg.DiscordWebhookURL)
	assert.Equal(t, "123:abc", cfg.TelegramBotToken)
	assert.Equal(t, "-100", cfg.TelegramChatID)
}
