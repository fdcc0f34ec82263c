package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "chat.local", cfg.Server.Name)
	assert.Equal(t, "ChatNet", cfg.Server.Network)
	assert.Equal(t, "0.0.0.0:6667", cfg.ListenAddress())
	assert.Equal(t, "127.0.0.1:8080", cfg.AdminAddress())
	assert.Equal(t, 60*time.Second, cfg.Limits.RegistrationTimeout)
	assert.False(t, cfg.Admin.Enabled)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "chatd.yaml", `
server:
  name: irc.example.com
  network: ExampleNet
  port: 7000
  motd: Hello
limits:
  max_clients: 100
admin:
  enabled: true
  port: 9090
debug: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "irc.example.com", cfg.Server.Name)
	assert.Equal(t, "ExampleNet", cfg.Server.Network)
	assert.Equal(t, "0.0.0.0:7000", cfg.ListenAddress())
	assert.Equal(t, "Hello", cfg.Server.MOTD)
	assert.Equal(t, 100, cfg.Limits.MaxClients)
	assert.True(t, cfg.Admin.Enabled)
	assert.Equal(t, "127.0.0.1:9090", cfg.AdminAddress())
	assert.True(t, cfg.Debug)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "chatd.toml", `
[server]
name = "irc.example.com"
network = "ExampleNet"
port = 7001

[limits]
max_clients = 50
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "irc.example.com", cfg.Server.Name)
	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Limits.MaxClients)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "chatd.json", `{
  "server": {"name": "irc.example.com", "network": "ExampleNet", "port": 7002}
}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7002, cfg.Server.Port)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "chatd.ini", "[server]\nname=x\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "unsupported config format")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHATD_SERVER_NAME", "env.example.com")
	t.Setenv("CHATD_PORT", "7100")
	t.Setenv("CHATD_DEBUG", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env.example.com", cfg.Server.Name)
	assert.Equal(t, 7100, cfg.Server.Port)
	assert.True(t, cfg.Debug)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "chatd.yaml", `
server:
  name: file.example.com
  network: FileNet
`)
	t.Setenv("CHATD_SERVER_NAME", "env.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env.example.com", cfg.Server.Name, "environment wins over file")
	assert.Equal(t, "FileNet", cfg.Server.Network)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 70000
	assert.ErrorContains(t, cfg.Validate(), "config validation failed")

	cfg = Default()
	cfg.Server.Network = ""
	assert.ErrorContains(t, cfg.Validate(), "config validation failed")
}

func TestValidateBackfillsTimeout(t *testing.T) {
	cfg := Default()
	cfg.Limits.RegistrationTimeout = 0
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60*time.Second, cfg.Limits.RegistrationTimeout)
}
