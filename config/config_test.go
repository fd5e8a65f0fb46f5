package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garchive/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	configDir := filepath.Join(dir, "garchive")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	path := filepath.Join(configDir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.Gzip.OSType)
	assert.Nil(t, cfg.XZ.Check)
	assert.Nil(t, cfg.Test.Workers)
}

func TestLoad_FullConfig(t *testing.T) {
	writeConfig(t, `
[gzip]
os_type = "unix"
header_crc = true

[xz]
check = "sha256"
dict_size = 1048576
block_size = 65536

[test]
workers = 8
`)

	cfg, err := config.Load()
	require.NoError(t, err)

	require.NotNil(t, cfg.Gzip.OSType)
	assert.Equal(t, "unix", *cfg.Gzip.OSType)
	require.NotNil(t, cfg.Gzip.HeaderCRC)
	assert.True(t, *cfg.Gzip.HeaderCRC)

	require.NotNil(t, cfg.XZ.Check)
	assert.Equal(t, "sha256", *cfg.XZ.Check)
	require.NotNil(t, cfg.XZ.DictSize)
	assert.Equal(t, uint32(1<<20), *cfg.XZ.DictSize)
	require.NotNil(t, cfg.XZ.BlockSize)
	assert.Equal(t, 65536, *cfg.XZ.BlockSize)

	require.NotNil(t, cfg.Test.Workers)
	assert.Equal(t, 8, *cfg.Test.Workers)
}

func TestLoad_PartialConfig(t *testing.T) {
	writeConfig(t, `
[xz]
check = "crc32"
`)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.XZ.Check)
	assert.Equal(t, "crc32", *cfg.XZ.Check)

	// Unset fields should remain nil.
	assert.Nil(t, cfg.XZ.DictSize)
	assert.Nil(t, cfg.Gzip.HeaderCRC)
}

func TestLoad_InvalidTOML(t *testing.T) {
	writeConfig(t, "[gzip\nos_type = ")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_UnknownKey(t *testing.T) {
	writeConfig(t, `
[gzip]
compression = 9
`)

	_, err := config.Load()
	require.ErrorContains(t, err, "gzip.compression")
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := config.LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestPath_FallsBackToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".config", "garchive", "config.toml"), config.Path())
}
