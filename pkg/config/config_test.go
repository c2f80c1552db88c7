package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHostName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"otbr-server", "otbr-server.local."},
		{"otbr-server.local", "otbr-server.local."},
		{"otbr-server.local.", "otbr-server.local."},
		{"my-router", "my-router.local."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeHostName(tt.in), "input %q", tt.in)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "wpan0", cfg.Interface)
	assert.Equal(t, 49154, cfg.Port)
	assert.Equal(t, "otbr-server.local.", cfg.HostName)
	assert.Equal(t, "OpenThread", cfg.Vendor)
	assert.Equal(t, "SLZB-OTBR", cfg.Model)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "otbr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
interface: wpan1
port: 49155
hostname: border-router
vendor: Acme
poll_interval: 15s
log_level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "wpan1", cfg.Interface)
	assert.Equal(t, 49155, cfg.Port)
	assert.Equal(t, "border-router.local.", cfg.HostName)
	assert.Equal(t, "Acme", cfg.Vendor)
	// Unset fields keep their defaults.
	assert.Equal(t, "SLZB-OTBR", cfg.Model)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvHostName, "env-host")
	t.Setenv(EnvVendor, "EnvVendor")
	t.Setenv(EnvModel, "EnvModel")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-host.local.", cfg.HostName)
	assert.Equal(t, "EnvVendor", cfg.Vendor)
	assert.Equal(t, "EnvModel", cfg.Model)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidatePortRange(t *testing.T) {
	cfg := Default()
	cfg.Port = -1
	assert.Error(t, cfg.Validate())

	cfg.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg.Port = 49154
	assert.NoError(t, cfg.Validate())
}
