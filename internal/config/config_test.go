package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetViper clears all viper state between tests to avoid cross-contamination.
func resetViper() {
	viper.Reset()
	homedir.DisableCache = true
}

func TestLoad_Defaults(t *testing.T) {
	resetViper()
	t.Setenv("HOME", "/home/tester")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "anthroab", cfg.Package)
	assert.Equal(t, "README.md", cfg.Readme)
	assert.Equal(t, "dist", cfg.DistDir)
	assert.Equal(t, "https://pypi.org", cfg.IndexURL)
	assert.Equal(t, filepath.Join("/home/tester", ".abdist", "cache"), cfg.CacheDir)
	assert.Equal(t, 5, cfg.Workers)
	assert.False(t, cfg.Verbose)
	assert.False(t, cfg.Trace)
}

func TestLoad_EnvOverrides(t *testing.T) {
	resetViper()
	viper.SetEnvPrefix("ABDIST")
	viper.AutomaticEnv()

	t.Setenv("ABDIST_PACKAGE", "anthroab_nightly")
	t.Setenv("ABDIST_INDEX_URL", "https://test.pypi.org")
	t.Setenv("ABDIST_WORKERS", "12")
	t.Setenv("ABDIST_CACHE_DIR", "/tmp/abdist")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "anthroab_nightly", cfg.Package)
	assert.Equal(t, "https://test.pypi.org", cfg.IndexURL)
	assert.Equal(t, 12, cfg.Workers)
	assert.Equal(t, "/tmp/abdist", cfg.CacheDir)
}

func TestLoad_ConfigFile(t *testing.T) {
	resetViper()

	dir := t.TempDir()
	path := filepath.Join(dir, ".abdist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dist_dir: out\nverbose: true\ncache_dir: /c\n"), 0644))

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.DistDir)
	assert.True(t, cfg.Verbose)
}

func TestLoad_ExpandsCacheDir(t *testing.T) {
	resetViper()
	t.Setenv("HOME", "/home/tester")
	viper.Set("cache_dir", "~/cache/abdist")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/home/tester", "cache", "abdist"), cfg.CacheDir)
}

func TestLoad_InvalidWorkers(t *testing.T) {
	resetViper()
	viper.Set("workers", 0)
	viper.Set("cache_dir", "/c")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_DetectsProjectFile(t *testing.T) {
	resetViper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "abdist.yaml"), []byte("project: {}\n"), 0644))
	viper.Set("root", root)
	viper.Set("cache_dir", "/c")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "abdist.yaml"), cfg.Project)
}

func TestConfig_DistPath(t *testing.T) {
	assert.Equal(t, filepath.Join("repo", "dist"), Config{Root: "repo", DistDir: "dist"}.DistPath())
	assert.Equal(t, "/abs/out", Config{Root: "repo", DistDir: "/abs/out"}.DistPath())
}
