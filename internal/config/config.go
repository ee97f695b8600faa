// Package config loads the application configuration from viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/zerbin/internal/common"
)

// Lock backends.
const (
	LockMemory = "memory"
	LockRedis  = "redis"
)

// DefaultDatabasePath is used when database.path is unset.
const DefaultDatabasePath = "$HOME/.local/share/zerbin/zerbin.db"

// DefaultCertDir holds the self-signed certificate for server.tls.
const DefaultCertDir = "$HOME/.config/zerbin/certs"

// Config is the typed view of the viper settings.
type Config struct {
	Points   PointsConfig   `mapstructure:"points"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Lock     LockConfig     `mapstructure:"lock"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
	Rewards  RewardsConfig  `mapstructure:"rewards"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig configures `zerbin serve`.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TLS             TLSConfig     `mapstructure:"tls"`
}

// TLSConfig serves the API over HTTPS with a self-signed certificate.
type TLSConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	CertDir string   `mapstructure:"cert_dir"`
	Hosts   []string `mapstructure:"hosts"`
}

// ScoringConfig tunes the priority engine.
type ScoringConfig struct {
	Keywords       []string `mapstructure:"keywords"`
	DefaultWeight  int      `mapstructure:"default_weight"`
	AlertThreshold float64  `mapstructure:"alert_threshold"`
}

// PointsConfig overrides the creation awards. Types missing from Table
// keep their built-in value.
type PointsConfig struct {
	Table           map[string]int `mapstructure:"table"`
	Default         int            `mapstructure:"default"`
	CompletionBonus int            `mapstructure:"completion_bonus"`
}

// RewardsConfig configures redemption codes.
type RewardsConfig struct {
	CodePrefix    string `mapstructure:"code_prefix"`
	PickupMessage string `mapstructure:"pickup_message"`
}

// LockConfig chooses how per-user balance locks are held.
type LockConfig struct {
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig addresses the shared lock server.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	Wait     time.Duration `mapstructure:"wait"`
	DB       int           `mapstructure:"db"`
}

// NotifyConfig selects notification sinks. Stored notifications are on by
// default; AMQP publishing is enabled by setting a URL.
type NotifyConfig struct {
	AMQP  AMQPConfig `mapstructure:"amqp"`
	Store bool       `mapstructure:"store"`
	Log   bool       `mapstructure:"log"`
}

// AMQPConfig addresses the message broker.
type AMQPConfig struct {
	URL        string `mapstructure:"url"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routing_key"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.tls.cert_dir", DefaultCertDir)

	v.SetDefault("scoring.keywords", []string{"food", "fruit", "meat", "vegetable", "peel", "compost", "organic"})
	v.SetDefault("scoring.default_weight", 2)
	v.SetDefault("scoring.alert_threshold", 0.75)

	v.SetDefault("points.default", 5)
	v.SetDefault("points.completion_bonus", 5)

	v.SetDefault("rewards.code_prefix", "ZERBIN")
	v.SetDefault("rewards.pickup_message", "Show this code at any collection point to claim your reward.")

	v.SetDefault("lock.backend", LockMemory)
	v.SetDefault("lock.redis.addr", "localhost:6379")
	v.SetDefault("lock.redis.prefix", "zerbin:lock:")
	v.SetDefault("lock.redis.ttl", 10*time.Second)
	v.SetDefault("lock.redis.wait", 5*time.Second)

	v.SetDefault("notify.store", true)
	v.SetDefault("notify.log", false)
	v.SetDefault("notify.amqp.exchange", "zerbin")
	v.SetDefault("notify.amqp.routing_key", "report.status")
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDatabasePath
	}
	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	if cfg.Server.TLS.CertDir == "" {
		cfg.Server.TLS.CertDir = DefaultCertDir
	}
	cfg.Server.TLS.CertDir = ExpandPath(cfg.Server.TLS.CertDir)
	cfg.Lock.Backend = strings.ToLower(strings.TrimSpace(cfg.Lock.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json", "":
	default:
		return fmt.Errorf("%w: logging.format must be console or json, got %q", common.ErrInvalidConfig, c.Logging.Format)
	}

	switch c.Lock.Backend {
	case LockMemory:
	case LockRedis:
		if c.Lock.Redis.Addr == "" {
			return fmt.Errorf("%w: lock.redis.addr", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: lock.backend must be %s or %s, got %q", common.ErrInvalidConfig, LockMemory, LockRedis, c.Lock.Backend)
	}

	if c.Scoring.AlertThreshold < 0 || c.Scoring.AlertThreshold > 1 {
		return fmt.Errorf("%w: scoring.alert_threshold must be within 0..1, got %v", common.ErrInvalidConfig, c.Scoring.AlertThreshold)
	}
	if c.Points.Default < 0 || c.Points.CompletionBonus < 0 {
		return fmt.Errorf("%w: point values cannot be negative", common.ErrInvalidConfig)
	}
	if c.Notify.AMQP.URL != "" && c.Notify.AMQP.Exchange == "" {
		return fmt.Errorf("%w: notify.amqp.exchange", common.ErrMissingConfig)
	}
	return nil
}

// ExpandPath expands a leading ~ and any $VAR references in path.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}
