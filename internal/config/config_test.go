package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// chdir is the pre-Go-1.24 equivalent of t.Chdir.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "release", cfg.Mode)
	require.Equal(t, 4000, cfg.Port)
	require.Equal(t, int64(32768), cfg.ReadLimit)
	require.Equal(t, int64(20*1024*1024), cfg.UploadLimit)
	require.Empty(t, cfg.Teacher.Username)
	require.Empty(t, cfg.Media.URL)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CONFIG_ENV", "test")

	yaml := `
mode: debug
port: 9000
upload_limit: 1048576
teacher:
  username: yokyay
  password: "461225"
media:
  url: wss://media.example
  api_key: key
  api_secret: secret
`
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Mode)
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, int64(1048576), cfg.UploadLimit)
	require.Equal(t, "yokyay", cfg.Teacher.Username)
	require.Equal(t, "wss://media.example", cfg.Media.URL)
	require.Equal(t, "secret", cfg.Media.APISecret)
}
