// Package config handles the persisted user settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings is the configuration stored in ~/.config/cerca/config.yml.
// Both values are optional: without a contact email the polite-pool
// parameters are simply omitted, and without an API key the key-gated
// source is skipped.
type Settings struct {
	S2APIKey     string `yaml:"s2_api_key,omitempty"`
	ContactEmail string `yaml:"contact_email,omitempty"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "cerca"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"

	// EnvS2APIKey overrides s2_api_key when set.
	EnvS2APIKey = "CERCA_S2_API_KEY"
	// EnvContactEmail overrides contact_email when set.
	EnvContactEmail = "CERCA_CONTACT_EMAIL"
)

// Path returns the settings file path. Respects XDG_CONFIG_HOME,
// defaults to ~/.config/cerca/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the settings file and applies environment overrides.
// A missing file yields zero-value settings, not an error.
func Load() (*Settings, error) {
	var cfg Settings

	path := Path()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// First run; defaults apply.
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	if v := os.Getenv(EnvS2APIKey); v != "" {
		cfg.S2APIKey = v
	}
	if v := os.Getenv(EnvContactEmail); v != "" {
		cfg.ContactEmail = v
	}
	return &cfg, nil
}

// Save rewrites the settings file in full. The write goes through a temp
// file in the same directory followed by a rename, so a crash mid-write
// never leaves a truncated config behind.
func (s *Settings) Save() error {
	path := Path()
	if path == "" {
		return fmt.Errorf("cannot determine config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ConfigFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}

// Get returns the value for a settings key.
func (s *Settings) Get(key string) (string, error) {
	switch key {
	case "s2_api_key":
		return s.S2APIKey, nil
	case "contact_email":
		return s.ContactEmail, nil
	default:
		return "", fmt.Errorf("unknown config key: %q", key)
	}
}

// Set assigns a settings key. The caller persists with Save.
func (s *Settings) Set(key, value string) error {
	switch key {
	case "s2_api_key":
		s.S2APIKey = value
	case "contact_email":
		s.ContactEmail = value
	default:
		return fmt.Errorf("unknown config key: %q", key)
	}
	return nil
}

// Keys lists the valid settings keys.
func Keys() []string {
	return []string{"contact_email", "s2_api_key"}
}
