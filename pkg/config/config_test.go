package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"BOT_LANGUAGE", "STORE_PATH", "RECONCILE_INTERVAL", "PRESENCE_INTERVAL", "ALLOWED_ROLE_IDS", "RCON_DEFAULT_PORT"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, "servers.json", cfg.StorePath)
	assert.Equal(t, time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, 2*time.Minute, cfg.PresenceInterval)
	assert.Equal(t, 25575, cfg.RCONDefaultPort)
	assert.Empty(t, cfg.AllowedRoleIDs)
	assert.Same(t, cfg, AppConfig)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOT_LANGUAGE", "RU")
	t.Setenv("ALLOWED_ROLE_IDS", " 1061998983158964285, ,42 ")
	t.Setenv("RECONCILE_INTERVAL", "30s")
	t.Setenv("PRESENCE_INTERVAL", "not-a-duration")
	t.Setenv("RCON_DEFAULT_PORT", "x")

	cfg := Load()

	assert.Equal(t, "ru", cfg.Language)
	assert.Equal(t, []string{"1061998983158964285", "42"}, cfg.AllowedRoleIDs)
	assert.Equal(t, 30*time.Second, cfg.ReconcileInterval)
	assert.Equal(t, 2*time.Minute, cfg.PresenceInterval)
	assert.Equal(t, 25575, cfg.RCONDefaultPort)
}

func TestLanguageIgnoresHostLocale(t *testing.T) {
	t.Setenv("LANG", "ru_RU.UTF-8")
	t.Setenv("BOT_LANGUAGE", "")
	assert.Equal(t, "en", Load().Language)

	t.Setenv("BOT_LANGUAGE", "ru_RU.UTF-8")
	assert.Equal(t, "ru", Load().Language)
}

func TestNormalizeLanguage(t *testing.T) {
	tests := map[string]string{
		"ru":          "ru",
		" RU ":        "ru",
		"ru_RU.UTF-8": "ru",
		"en-US":       "en",
		"C.UTF-8":     "c",
		"de@euro":     "de",
		"":            "en",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeLanguage(in), in)
	}
}

func TestOptionalBackends(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.DatabaseEnabled())
	assert.False(t, cfg.InfluxEnabled())

	cfg.DatabaseType, cfg.DatabaseURL = "postgres", "postgres://u:p@localhost/db"
	cfg.InfluxDBURL, cfg.InfluxDBToken = "http://localhost:8086", "token"
	assert.True(t, cfg.DatabaseEnabled())
	assert.True(t, cfg.InfluxEnabled())
}
