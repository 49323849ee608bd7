package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.GetServerAddr())
	assert.Equal(t, "certificates", cfg.Output.Dir)
	assert.Equal(t, "assets/fonts", cfg.Assets.FontsDir)
	assert.Empty(t, cfg.Gate.AppPass)
	assert.Equal(t, 587, cfg.Email.SMTP.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Server.WriteTimeout)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("APP_PASS", "letmein")
	t.Setenv("OUTPUT_DIR", "/tmp/certs")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_FROM", "certs@example.com")
	t.Setenv("EMAIL_SUBJECT_TEMPLATE", "Hi {name}")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "letmein", cfg.Gate.AppPass)
	assert.Equal(t, "/tmp/certs", cfg.Output.Dir)
	assert.Equal(t, "smtp.example.com", cfg.Email.SMTP.Host)
	assert.Equal(t, "certs@example.com", cfg.Email.SMTP.FromAddress)
	assert.Equal(t, "Hi {name}", cfg.Email.Message().Subject)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"server": {"port": 3000}, "gate": {"app_pass": "filepass"}, "output": {"dir": "runs"}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "filepass", cfg.Gate.AppPass)
	assert.Equal(t, "runs", cfg.Output.Dir)
}

func TestMessageFallsBackToDefault(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	msg := cfg.Email.Message()
	assert.Equal(t, "Certificate of Participation", msg.Subject)
	assert.Contains(t, msg.Body, "{name}")
}
