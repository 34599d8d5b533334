// Package config manages the persisted imggen configuration: API keys
// and the default provider, stored as JSON under the user's XDG config
// home with owner-only permissions.
package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DefaultProvider is assumed when the config file names none.
const DefaultProvider = "openai"

// envKeys maps a provider identifier to the environment variable that
// can override its stored API key.
var envKeys = map[string]string{
	"google": "GOOGLE_API_KEY",
	"openai": "OPENAI_API_KEY",
}

// Config holds the persisted application configuration.
type Config struct {
	APIKeys         map[string]string `json:"api_keys"`
	DefaultProvider string            `json:"default_provider,omitempty"`

	// Legacy single-key field, migrated to APIKeys on load.
	LegacyAPIKey string `json:"api_key,omitempty"`
}

// Dir returns the imggen config directory, creating it with owner-only
// permissions if needed.
func Dir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	dir := filepath.Join(configHome, "imggen")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// File returns the config file path.
func File() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the configuration. A missing or unreadable file yields an
// empty config rather than an error; the old single-key format is
// migrated to the per-provider map and written back.
func Load() (*Config, error) {
	// .env values become plain environment variables, mirroring the
	// precedence file < .env < environment.
	_ = godotenv.Load()

	cfg := &Config{APIKeys: make(map[string]string)}

	path, err := File()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		log.Printf("Warning: could not read config file: %v", err)
		return cfg, nil
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		log.Printf("Warning: could not decode config file: %v", err)
		return &Config{APIKeys: make(map[string]string)}, nil
	}
	if cfg.APIKeys == nil {
		cfg.APIKeys = make(map[string]string)
	}

	// Migrate old format: {"api_key": "..."} -> {"api_keys": {"google": "..."}}
	if cfg.LegacyAPIKey != "" && len(cfg.APIKeys) == 0 {
		cfg.APIKeys["google"] = cfg.LegacyAPIKey
		cfg.DefaultProvider = "google"
		cfg.LegacyAPIKey = ""
		if err := cfg.Save(); err != nil {
			log.Printf("Warning: could not migrate config file: %v", err)
		}
	}

	return cfg, nil
}

// Save writes the configuration with owner-only file permissions.
func (c *Config) Save() error {
	path, err := File()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// APIKeyFor returns the credential for the given provider. The
// environment overrides the stored key; an empty string means no
// credential is configured anywhere.
func (c *Config) APIKeyFor(provider string) string {
	if env, ok := envKeys[provider]; ok {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}
	return c.APIKeys[provider]
}

// SetAPIKey stores a credential for the given provider.
func (c *Config) SetAPIKey(provider, key string) {
	if c.APIKeys == nil {
		c.APIKeys = make(map[string]string)
	}
	c.APIKeys[provider] = key
}

// Provider returns the configured default provider identifier.
func (c *Config) Provider() string {
	if c.DefaultProvider != "" {
		return c.DefaultProvider
	}
	return DefaultProvider
}
