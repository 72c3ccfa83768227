package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "random", cfg.Scoring.FactorMode)
	assert.Equal(t, time.Minute, cfg.Gmail.PollInterval)
	assert.Equal(t, 20000, cfg.LLM.MaxHTMLBytes)
	assert.False(t, cfg.Redis.Enabled())
}

func TestFromViper_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("SCORING_FACTOR_MODE", "midpoint")
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "midpoint", cfg.Scoring.FactorMode)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.True(t, cfg.Redis.Enabled())
}

func TestFromViper_YAML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
server:
  port: 7000
database:
  driver: memory
gmail:
  enabled: true
  poll_interval: 5m
`)))

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.True(t, cfg.Gmail.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Gmail.PollInterval)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := FromViper(viper.New())
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Database.DSN = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Database.Driver = DriverMemory
	cfg.Database.DSN = ""
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Scoring.FactorMode = "oracle"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())
}
