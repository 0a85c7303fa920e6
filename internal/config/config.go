// Package config loads the trailer service configuration from a YAML file
// with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultServerPort        = 8070
	defaultServerTimeout     = 30
	defaultDatabasePort      = 5432
	defaultMaxOpenConns      = 25
	defaultMaxIdleConns      = 5
	defaultConnMaxLifetime   = 5 // minutes
	defaultPendingCap        = 400
	defaultHeartbeatInterval = 12 * time.Hour
	defaultReviewTimeout     = 5 * time.Second
	defaultJWTExpiry         = 24 // hours
	defaultTLSHostSuffix     = ".aliyuncs.com"
)

// Config is the top-level service configuration.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Queue     QueueConfig     `yaml:"queue"`
	JWT       JWTConfig       `yaml:"jwt"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	// SSLMode overrides TLS autodetection when set explicitly.
	SSLMode string `yaml:"sslmode"`
	// TLSHostSuffix enables sslmode=require for hosts with this suffix
	// when SSLMode is empty. Managed database hostnames carry a fixed
	// provider suffix; local and in-cluster hosts do not.
	TLSHostSuffix   string        `yaml:"tls_host_suffix"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// QueueConfig holds submission queue and moderation settings.
type QueueConfig struct {
	// PendingCap is the maximum number of pending submissions.
	PendingCap int `yaml:"pending_cap"`
	// HeartbeatInterval is the period of the liveness writer.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	// ReviewTimeout bounds the moderation transaction.
	ReviewTimeout time.Duration `yaml:"review_timeout"`
}

// JWTConfig holds admin session token settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// BootstrapConfig holds the optional startup super admin. When both fields
// are set, the admin is created at startup if absent.
type BootstrapConfig struct {
	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SSLModeResolved returns the effective sslmode: the explicit value when
// set, otherwise require for hosts matching TLSHostSuffix and disable
// for everything else.
func (d *DatabaseConfig) SSLModeResolved() string {
	if d.SSLMode != "" {
		return d.SSLMode
	}
	if d.TLSHostSuffix != "" && strings.HasSuffix(d.Host, d.TLSHostSuffix) {
		return "require"
	}
	return "disable"
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLModeResolved(),
	)
}

// MigrateURL returns the PostgreSQL URL used by the migrate tool.
func (d *DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLModeResolved(),
	)
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("server.port must be between 1 and 65535")
	}
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Database.User == "" {
		return errors.New("database.user is required")
	}
	if c.Database.DBName == "" {
		return errors.New("database.dbname is required")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.Queue.PendingCap <= 0 {
		return errors.New("queue.pending_cap must be positive")
	}
	if c.Bootstrap.AdminUsername != "" && c.Bootstrap.AdminPassword == "" {
		return errors.New("bootstrap.admin_password is required when bootstrap.admin_username is set")
	}
	return nil
}

// Load reads the YAML config at path, applies defaults and environment
// variable overrides, and validates the result. A .env file next to the
// binary is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)
	overrideFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// GetConfigPath returns the config path from CONFIG_PATH or the default.
func GetConfigPath(defaultPath string) string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return defaultPath
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultServerTimeout * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultServerTimeout * time.Second
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = defaultDatabasePort
	}
	if cfg.Database.TLSHostSuffix == "" {
		cfg.Database.TLSHostSuffix = defaultTLSHostSuffix
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = defaultMaxOpenConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = defaultMaxIdleConns
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = defaultConnMaxLifetime * time.Minute
	}
	if cfg.Queue.PendingCap == 0 {
		cfg.Queue.PendingCap = defaultPendingCap
	}
	if cfg.Queue.HeartbeatInterval == 0 {
		cfg.Queue.HeartbeatInterval = defaultHeartbeatInterval
	}
	if cfg.Queue.ReviewTimeout == 0 {
		cfg.Queue.ReviewTimeout = defaultReviewTimeout
	}
	if cfg.JWT.Expiry == 0 {
		cfg.JWT.Expiry = defaultJWTExpiry * time.Hour
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("POSTGRES_TRAILER_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("POSTGRES_TRAILER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("POSTGRES_TRAILER_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("POSTGRES_TRAILER_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("POSTGRES_TRAILER_DB"); v != "" {
		cfg.Database.DBName = v
	}
	if v := os.Getenv("POSTGRES_TRAILER_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("TRAILER_SERVICE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TRAILER_JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("TRAILER_ADMIN_USERNAME"); v != "" {
		cfg.Bootstrap.AdminUsername = v
	}
	if v := os.Getenv("TRAILER_ADMIN_PASSWORD"); v != "" {
		cfg.Bootstrap.AdminPassword = v
	}
	if v := os.Getenv("APP_DEBUG"); v != "" {
		cfg.Debug = parseBool(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
