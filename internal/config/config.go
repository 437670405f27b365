// Package config loads application configuration from config.yaml and the
// environment, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Sweep  SweepConfig  `yaml:"sweep" mapstructure:"sweep"`
	Admin  AdminConfig  `yaml:"admin" mapstructure:"admin"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the admin API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// SweepConfig tunes bulk trust recalculation.
type SweepConfig struct {
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// AdminConfig identifies the operator in audit entries.
type AdminConfig struct {
	Actor string `yaml:"actor" mapstructure:"actor"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRUST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range defaults() {
		v.SetDefault(key, val)
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func defaults() map[string]any {
	return map[string]any{
		"store.driver":           "sqlite",
		"store.database_url":     "trust.db",
		"store.max_conns":        10,
		"store.min_conns":        2,
		"server.port":            8080,
		"server.allowed_origins": []string{"*"},
		"log.level":              "info",
		"log.format":             "json",
		"sweep.concurrency":      1,
		"sweep.rate_per_sec":     0,
		"admin.actor":            "admin",
	}
}

// Example renders a commented starting config.yaml.
func Example() ([]byte, error) {
	cfg := Config{
		Store:  StoreConfig{Driver: "sqlite", DatabaseURL: "trust.db", MaxConns: 10, MinConns: 2},
		Server: ServerConfig{Port: 8080, AllowedOrigins: []string{"*"}},
		Log:    LogConfig{Level: "info", Format: "json"},
		Sweep:  SweepConfig{Concurrency: 1},
		Admin:  AdminConfig{Actor: "admin"},
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, eris.Wrap(err, "config: marshal example")
	}
	header := "# incident-admin configuration.\n# Every key can be overridden via TRUST_<SECTION>_<KEY> environment variables.\n"
	return append([]byte(header), out...), nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
