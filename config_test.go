package gmcdump

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gmcdump.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
debug: true
port: /dev/ttyUSB0
timeout: 3s
flash_size: 1048576
block_size: 2048
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.Timeout.Duration)
	assert.Equal(t, 1048576, cfg.FlashSize)
	assert.Equal(t, 2048, cfg.BlockSize)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "debug: true\n"))
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Timeout.Duration)
	assert.Equal(t, 1<<20, cfg.FlashSize)
	assert.Equal(t, 4096, cfg.BlockSize)
	assert.Empty(t, cfg.Port)
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(writeConfig(t, "timeout: -1s\n"))
	assert.ErrorContains(t, err, "timeout")

	_, err = Load(writeConfig(t, "flash_size: -1\n"))
	assert.ErrorContains(t, err, "flash_size")

	_, err = Load(writeConfig(t, "block_size: 8192\n"))
	assert.ErrorContains(t, err, "block_size")
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = LoadOrDefault(writeConfig(t, "block_size: 0\n"))
	assert.Error(t, err)
}
