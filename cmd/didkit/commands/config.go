package commands

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const configFilename = "config.yaml"

// Config holds optional CLI defaults loaded from <home>/config.yaml.
// Flags override file values.
type Config struct {
	Provider  string        `yaml:"provider"`   // provider endpoint URL (http/https/ws/wss)
	CacheSize int           `yaml:"cache_size"` // resolver cache entries; 0 disables
	CacheTTL  time.Duration `yaml:"cache_ttl"`  // resolver cache entry lifetime
}

func defaultConfig() Config {
	return Config{CacheSize: 128, CacheTTL: 5 * time.Minute}
}

// loadConfig reads the config file under dir; a missing file yields defaults.
func loadConfig(dir string) (Config, error) {
	cfg := defaultConfig()
	b, err := os.ReadFile(filepath.Join(dir, configFilename))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
