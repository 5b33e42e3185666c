package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, ":9917", cfg.App.HTTPAddr)
	assert.Equal(t, "http://localhost:5000/api", cfg.API.BaseURL)
	assert.Equal(t, 15, cfg.API.TimeoutSeconds)
	assert.Equal(t, 30, cfg.Poll.IntervalSeconds)
	assert.Equal(t, 10, cfg.Poll.TransactionsPerPage)
	assert.False(t, cfg.Notify.Telegram.Enabled)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://strategy.example.com/api
poll:
  interval_seconds: 10
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://strategy.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 10, cfg.Poll.IntervalSeconds)
	// Everything untouched falls back to defaults.
	assert.Equal(t, 15, cfg.API.TimeoutSeconds)
	assert.Equal(t, 10, cfg.Poll.TransactionsPerPage)
	assert.Equal(t, ":9917", cfg.App.HTTPAddr)
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
app:
  env: prod
  log_level: warn
  http_addr: ":8080"
  data_dir: /tmp/ltvpilot
api:
  base_url: https://strategy.example.com/api
  timeout_seconds: 30
  insecure_skip_verify: true
poll:
  interval_seconds: 60
  transactions_per_page: 25
notify:
  telegram:
    enabled: true
    bot_token: "123:abc"
    chat_id: "-100200300"
    with_chart: true
bindings:
  path: /etc/ltvpilot/bindings.yaml
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "warn", cfg.App.LogLevel)
	assert.True(t, cfg.API.InsecureSkipVerify)
	assert.Equal(t, 60, cfg.Poll.IntervalSeconds)
	assert.Equal(t, 25, cfg.Poll.TransactionsPerPage)
	assert.True(t, cfg.Notify.Telegram.Enabled)
	assert.Equal(t, "-100200300", cfg.Notify.Telegram.ChatID)
	assert.True(t, cfg.Notify.Telegram.WithChart)
	assert.Equal(t, "/etc/ltvpilot/bindings.yaml", cfg.Bindings.Path)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad scheme", "api:\n  base_url: ftp://example.com\n"},
		{"per page out of range", "poll:\n  transactions_per_page: 500\n"},
		{"telegram without token", "notify:\n  telegram:\n    enabled: true\n    chat_id: \"123\"\n"},
		{"telegram without chat id", "notify:\n  telegram:\n    enabled: true\n    bot_token: \"123:abc\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
