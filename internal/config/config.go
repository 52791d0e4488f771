// Package config loads lotledger configuration from defaults, an optional
// YAML file and LOTLEDGER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// Store drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const (
	// ConfigFileName is the config file name without extension.
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "yaml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "LOTLEDGER"
)

// Config is the complete lotledger configuration.
type Config struct {
	Store StoreConfig `mapstructure:"store"`
	Lot   LotConfig   `mapstructure:"lot"`
	Split SplitConfig `mapstructure:"split"`
	Log   LogConfig   `mapstructure:"log"`
	Retry RetryConfig `mapstructure:"retry"`
}

// StoreConfig selects and tunes the storage backend.
type StoreConfig struct {
	Driver        string        `mapstructure:"driver"`
	Path          string        `mapstructure:"path"` // sqlite file; empty means ~/.lotledger/ledger.db
	DSN           string        `mapstructure:"dsn"`  // postgres connection string
	TxTimeout     time.Duration `mapstructure:"tx_timeout"`
	BusyTimeoutMS int           `mapstructure:"busy_timeout_ms"`
}

// LotConfig controls minted lot numbers.
type LotConfig struct {
	Prefix string `mapstructure:"prefix"`
}

// SplitConfig tunes the split engine.
type SplitConfig struct {
	MaxSuffixAttempts int `mapstructure:"max_suffix_attempts"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// RetryConfig controls caller-side retries of transient storage faults.
type RetryConfig struct {
	TransientMax    int           `mapstructure:"transient_max"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
}

// LoadOptions overrides where configuration is read from.
type LoadOptions struct {
	// ConfigFilePath is used exclusively when set.
	ConfigFilePath string
	// ConfigDirPath replaces ~/.lotledger when set.
	ConfigDirPath string
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:        DriverSQLite,
			TxTimeout:     5 * time.Second,
			BusyTimeoutMS: 5000,
		},
		Lot:   LotConfig{Prefix: "LOT"},
		Split: SplitConfig{MaxSuffixAttempts: 64},
		Log:   LogConfig{Level: "info"},
		Retry: RetryConfig{TransientMax: 1, InitialInterval: 100 * time.Millisecond},
	}
}

// ConfigDir returns ~/.lotledger.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".lotledger"), nil
}

// Load reads configuration. A missing default config file is not an error;
// a missing explicit one is. Returns the resolved file path, empty when none.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("store.driver", defaults.Store.Driver)
	v.SetDefault("store.path", defaults.Store.Path)
	v.SetDefault("store.dsn", defaults.Store.DSN)
	v.SetDefault("store.tx_timeout", defaults.Store.TxTimeout)
	v.SetDefault("store.busy_timeout_ms", defaults.Store.BusyTimeoutMS)
	v.SetDefault("lot.prefix", defaults.Lot.Prefix)
	v.SetDefault("split.max_suffix_attempts", defaults.Split.MaxSuffixAttempts)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("retry.transient_max", defaults.Retry.TransientMax)
	v.SetDefault("retry.initial_interval", defaults.Retry.InitialInterval)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", fmt.Errorf("config file not found: %s", opts.ConfigFilePath)
		}
		v.SetConfigFile(opts.ConfigFilePath)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("failed to read config %s: %w", opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		dir := opts.ConfigDirPath
		if dir == "" {
			var err error
			dir, err = ConfigDir()
			if err != nil {
				return nil, "", err
			}
		}
		path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(path) {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, "", fmt.Errorf("failed to read config %s: %w", path, err)
			}
			resolvedPath = path
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolvedPath, nil
}

// Validate checks values viper cannot constrain.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q must be one of sqlite, postgres, memory", c.Store.Driver))
	}
	if c.Store.TxTimeout < 0 {
		errs = append(errs, errors.New("store.tx_timeout must not be negative"))
	}
	if c.Split.MaxSuffixAttempts < 1 {
		errs = append(errs, errors.New("split.max_suffix_attempts must be at least 1"))
	}
	if c.Retry.TransientMax < 0 {
		errs = append(errs, errors.New("retry.transient_max must not be negative"))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (log.Level, error) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
