package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, path, err := Load(LoadOptions{ConfigDirPath: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, 5*time.Second, cfg.Store.TxTimeout)
	assert.Equal(t, "LOT", cfg.Lot.Prefix)
	assert.Equal(t, 64, cfg.Split.MaxSuffixAttempts)
	assert.Equal(t, 1, cfg.Retry.TransientMax)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
store:
  driver: memory
  tx_timeout: 2s
lot:
  prefix: BATCH
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0644))
	t.Setenv("LOTLEDGER_SPLIT_MAX_SUFFIX_ATTEMPTS", "8")

	cfg, path, err := Load(LoadOptions{ConfigDirPath: dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), path)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 2*time.Second, cfg.Store.TxTimeout)
	assert.Equal(t, "BATCH", cfg.Lot.Prefix)
	assert.Equal(t, 8, cfg.Split.MaxSuffixAttempts)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, _, err := Load(LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "oracle" }},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Store.Driver = DriverPostgres }},
		{name: "negative timeout", mutate: func(c *Config) { c.Store.TxTimeout = -time.Second }},
		{name: "zero suffix attempts", mutate: func(c *Config) { c.Split.MaxSuffixAttempts = 0 }},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}
