package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.heyfriend/config.toml.
type Config struct {
	DefaultProfile string        `toml:"default_profile"`
	Backend        BackendConfig `toml:"backend"`
	Server         ServerConfig  `toml:"server"`
}

// BackendConfig tells clients where the backend lives.
type BackendConfig struct {
	Address string `toml:"address"`
	BlobURL string `toml:"blob_url"`
}

// ServerConfig configures hfd.
type ServerConfig struct {
	GRPCAddr        string        `toml:"grpc_addr"`
	HTTPAddr        string        `toml:"http_addr"`
	PublicURL       string        `toml:"public_url"`
	RateLimit       float64       `toml:"rate_limit"`
	RateBurst       int           `toml:"rate_burst"`
	JanitorSchedule string        `toml:"janitor_schedule"`
	BlobGrace       time.Duration `toml:"blob_grace"`
	MaxBlobBytes    int64         `toml:"max_blob_bytes"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Address: "127.0.0.1:7420",
			BlobURL: "http://127.0.0.1:7421",
		},
		Server: ServerConfig{
			GRPCAddr:        "127.0.0.1:7420",
			HTTPAddr:        "127.0.0.1:7421",
			PublicURL:       "http://127.0.0.1:7421",
			RateLimit:       20,
			RateBurst:       40,
			JanitorSchedule: "*/15 * * * *",
			BlobGrace:       time.Hour,
			MaxBlobBytes:    16 << 20,
		},
	}
}

// Load reads config from the given path on top of the defaults.
// Returns nil config and error if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields Default().
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
