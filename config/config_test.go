package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("REMINDER_INTERVAL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("R2_BUCKET_NAME", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.ReminderInterval)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.R2.Complete())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REMINDER_INTERVAL", "0s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Zero(t, cfg.ReminderInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{"JWT_SECRET_KEY": ""}},
		{name: "port not a number", env: map[string]string{"SERVER_PORT": "http"}},
		{name: "port out of range", env: map[string]string{"SERVER_PORT": "70000"}},
		{name: "unknown log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "negative interval", env: map[string]string{"REMINDER_INTERVAL": "-1m"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET_KEY", "secret")
			t.Setenv("SERVER_PORT", "")
			t.Setenv("LOG_LEVEL", "")
			t.Setenv("REMINDER_INTERVAL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadSportRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sports.yaml")
	doc := `sports:
  - name: Tenis
    uses_sets: true
    max_sets: 3
    win_points: 2
    loss_points: 1
  - name: futbol
    win_points: 3
    draw_points: 1
    allow_draw: true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	rules, err := LoadSportRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "Tenis", rules[0].Name)
	assert.True(t, rules[0].UsesSets)
	assert.Equal(t, 2, rules[0].SetsToWin())
	assert.True(t, rules[1].AllowDraw)

	none, err := LoadSportRules("")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestParseSportRulesRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"no name":   "sports:\n  - win_points: 3\n",
		"duplicate": "sports:\n  - name: a\n  - name: A\n",
		"even sets": "sports:\n  - name: a\n    uses_sets: true\n    max_sets: 4\n",
		"not yaml":  "sports: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSportRules([]byte(doc))
			assert.Error(t, err)
		})
	}
}
