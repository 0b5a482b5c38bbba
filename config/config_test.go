package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsBase(t *testing.T) {
	base := Default()
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"), base)
	require.NoError(t, err)
	require.Equal(t, base, cfg)
}

func TestLoadOverlaysFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cozo.toml")
	const body = "data_path = \"/var/lib/cozo\"\ndebug = true\nprogram_cache_size = 256\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path, Default())
	require.NoError(t, err)
	require.Equal(t, "/var/lib/cozo", cfg.DataPath)
	require.True(t, cfg.Debug)
	require.Equal(t, 256, cfg.ProgramCacheSize)
	require.Equal(t, Default().ListenAddr, cfg.ListenAddr)
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("data_path = ["), 0o644))

	_, err := Load(path, Default())
	require.Error(t, err)
}
