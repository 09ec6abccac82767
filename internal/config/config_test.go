package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
}

func TestValidate_RejectsBadServerConfig(t *testing.T) {
	cfg := Default()
	cfg.Server.MaxClients = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsLegacyDimNotBelowCanonical(t *testing.T) {
	cfg := Default()
	cfg.VectorIndex.LegacyDim = cfg.VectorIndex.CanonicalDim
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownLogFormat(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestLoadWithFile_DefaultsWhenAbsent(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := LoadWithFile("")
	require.NoError(t, err)
	assert.Equal(t, 1536, cfg.VectorIndex.CanonicalDim)
	assert.Equal(t, "/tmp/godagent-db.sock", cfg.Server.SocketPath)
}

func TestLoadWithFile_RejectsInsecurePermissions(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "godagent")
	require.NoError(t, os.MkdirAll(dir, 0700))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  max_clients: 5\n"), 0644))

	_, err := LoadWithFile(path)
	assert.Error(t, err)
}

func TestLoadWithFile_RejectsPathOutsideAllowedDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(home, "elsewhere", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte("server:\n  max_clients: 5\n"), 0600))

	_, err := LoadWithFile(path)
	assert.Error(t, err)
}

func TestLoadWithFile_EnvOverridesYAML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "godagent")
	require.NoError(t, os.MkdirAll(dir, 0700))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  max_clients: 5\n"), 0600))

	t.Setenv("GODAGENT_SERVER_MAX_CLIENTS", "42")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Server.MaxClients)
}
