package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the runtime configuration of abdist.
// Values are populated from .abdist.yaml, ABDIST_* env vars, and CLI flags.
type Config struct {
	Root     string `mapstructure:"root"`
	Package  string `mapstructure:"package"`
	Readme   string `mapstructure:"readme"`
	Project  string `mapstructure:"project"`
	DistDir  string `mapstructure:"dist_dir"`
	IndexURL string `mapstructure:"index_url"`
	CacheDir string `mapstructure:"cache_dir"`
	Workers  int    `mapstructure:"workers"`
	Verbose  bool   `mapstructure:"verbose"`
	Trace    bool   `mapstructure:"trace"`
}

// DefaultCacheDir holds downloaded index documents.
const DefaultCacheDir = "~/.abdist/cache"

// projectFiles are looked up in Root when no project file is configured.
var projectFiles = []string{"abdist.toml", "abdist.yaml", "abdist.yml"}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("root", ".")
	viper.SetDefault("package", "anthroab")
	viper.SetDefault("readme", "README.md")
	viper.SetDefault("project", "")
	viper.SetDefault("dist_dir", "dist")
	viper.SetDefault("index_url", "https://pypi.org")
	viper.SetDefault("cache_dir", DefaultCacheDir)
	viper.SetDefault("workers", 5)
	viper.SetDefault("verbose", false)
	viper.SetDefault("trace", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.Workers < 1 {
		return Config{}, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = DefaultCacheDir
	}
	cacheDir, err := homedir.Expand(cfg.CacheDir)
	if err != nil {
		return Config{}, fmt.Errorf("expanding cache dir: %w", err)
	}
	cfg.CacheDir = cacheDir

	if cfg.Project == "" {
		for _, name := range projectFiles {
			p := filepath.Join(cfg.Root, name)
			if _, err := os.Stat(p); err == nil {
				cfg.Project = p
				break
			}
		}
	}

	return cfg, nil
}

// DistPath resolves DistDir against Root unless it is absolute.
func (c Config) DistPath() string {
	if filepath.IsAbs(c.DistDir) {
		return c.DistDir
	}
	return filepath.Join(c.Root, c.DistDir)
}
