// Package config handles waymap configuration using Viper, including
// the per-device output overrides consumed by the mapping engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Config is the top-level configuration shape.
type Config struct {
	Logging LoggingConfig           `mapstructure:"logging"`
	Devices map[string]DeviceConfig `mapstructure:"devices"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // overrides LOG_LEVEL env var
}

// DeviceConfig holds the persistent settings of one input device,
// keyed by "<vendor>:<product>".
type DeviceConfig struct {
	// Output pins the device to a monitor as an (EDID vendor,
	// product, serial) triplet. Empty means automatic matching.
	Output []string `mapstructure:"output"`
}

// Store is the observable per-device configuration store. A single
// Store instance is shared by the mapper and the CLI.
type Store struct {
	v *viper.Viper

	mu       sync.Mutex
	subs     map[string]map[int]func()
	nextID   int
	lastSeen map[string][]string
	watching bool
}

// NewStore creates a store reading waymap.toml from the usual config
// locations, or from an explicit path when one is given.
func NewStore(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigName("waymap")
	v.SetConfigType("toml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("/etc/waymap")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "waymap"))
		}
		v.AddConfigPath(".")
	}

	v.SetDefault("logging.log_level", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file: run with defaults, overrides all empty.
	}

	return &Store{
		v:        v,
		subs:     make(map[string]map[int]func()),
		lastSeen: make(map[string][]string),
	}, nil
}

// Get unmarshals the full configuration.
func (s *Store) Get() (*Config, error) {
	cfg := &Config{}
	if err := s.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return cfg, nil
}

// OutputOverride returns the raw output override stored for a device
// key, or nil when none is configured. No validation happens here; the
// matching code decides what a well-formed override looks like.
func (s *Store) OutputOverride(deviceKey string) []string {
	return s.v.GetStringSlice("devices." + deviceKey + ".output")
}

// SetOutputOverride pins a device to a monitor identity and saves the
// config file.
func (s *Store) SetOutputOverride(deviceKey string, vendor, product, serial string) error {
	s.v.Set("devices."+deviceKey+".output", []string{vendor, product, serial})
	return s.save()
}

// ClearOutputOverride restores automatic matching for a device.
func (s *Store) ClearOutputOverride(deviceKey string) error {
	s.v.Set("devices."+deviceKey+".output", []string{})
	return s.save()
}

func (s *Store) save() error {
	path := s.v.ConfigFileUsed()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine config path: %w", err)
		}
		path = filepath.Join(home, ".config", "waymap", "waymap.toml")
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := s.v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
