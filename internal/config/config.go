package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/justsurfingit/job-success-tracker/internal/scoring"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Gmail    GmailConfig    `mapstructure:"gmail"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

func (r RedisConfig) Enabled() bool { return r.Address != "" }

type LLMConfig struct {
	APIKey       string `mapstructure:"api_key"`
	Model        string `mapstructure:"model"`
	MaxHTMLBytes int    `mapstructure:"max_html_bytes"`
}

type GmailConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	TokenFile       string        `mapstructure:"token_file"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	Query           string        `mapstructure:"query"`
}

type ScoringConfig struct {
	FactorMode string `mapstructure:"factor_mode"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.dsn", "host=localhost user=postgres password=password dbname=jobtracker port=5432 sslmode=disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", 24*time.Hour)

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.max_html_bytes", 20000)

	v.SetDefault("gmail.enabled", false)
	v.SetDefault("gmail.credentials_file", "credential.json")
	v.SetDefault("gmail.token_file", "token.json")
	v.SetDefault("gmail.poll_interval", time.Minute)
	v.SetDefault("gmail.query", "subject:(application OR interview OR update OR offer OR rejected OR status) newer_than:7d")

	v.SetDefault("scoring.factor_mode", scoring.FactorModeRandom)
}

// Load reads .env (if present), then config.yaml from the working
// directory or ./configs, then environment variables such as DATABASE_DSN.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config file")
		}
	}
	return FromViper(v)
}

// FromViper resolves a Config from v, applying defaults and env overrides.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("llm.api_key", "LLM_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, errors.Wrap(err, "bind llm api key")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return errors.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	if _, err := scoring.NewFactorSource(c.Scoring.FactorMode); err != nil {
		return err
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Gmail.Enabled && c.Gmail.PollInterval <= 0 {
		return errors.New("gmail.poll_interval must be positive")
	}
	return nil
}
