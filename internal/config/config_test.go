package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalConfig = `
database:
  host: localhost
  user: trailer
  password: secret
  dbname: trailer
jwt:
  secret: test-secret
`

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8070, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 400, cfg.Queue.PendingCap)
	assert.Equal(t, 12*time.Hour, cfg.Queue.HeartbeatInterval)
	assert.Equal(t, 5*time.Second, cfg.Queue.ReviewTimeout)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("POSTGRES_TRAILER_HOST", "db.internal")
	t.Setenv("POSTGRES_TRAILER_PORT", "5433")
	t.Setenv("TRAILER_SERVICE_PORT", "9090")
	t.Setenv("TRAILER_JWT_SECRET", "env-secret")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("APP_DEBUG", "true")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Debug)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestSSLModeResolved(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "explicit mode wins",
			cfg:  DatabaseConfig{Host: "pgm-abc.pg.rds.aliyuncs.com", SSLMode: "verify-full", TLSHostSuffix: ".aliyuncs.com"},
			want: "verify-full",
		},
		{
			name: "managed host requires tls",
			cfg:  DatabaseConfig{Host: "pgm-abc.pg.rds.aliyuncs.com", TLSHostSuffix: ".aliyuncs.com"},
			want: "require",
		},
		{
			name: "local host disables tls",
			cfg:  DatabaseConfig{Host: "localhost", TLSHostSuffix: ".aliyuncs.com"},
			want: "disable",
		},
		{
			name: "no suffix configured",
			cfg:  DatabaseConfig{Host: "pgm-abc.pg.rds.aliyuncs.com"},
			want: "disable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.SSLModeResolved())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "trailer",
		Password: "secret",
		DBName:   "trailer",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=trailer password=secret dbname=trailer sslmode=disable",
		cfg.DSN())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Database.Host = "localhost"
		cfg.Database.User = "trailer"
		cfg.Database.DBName = "trailer"
		cfg.JWT.Secret = "secret"
		setDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"missing host", func(c *Config) { c.Database.Host = "" }, "database.host"},
		{"missing user", func(c *Config) { c.Database.User = "" }, "database.user"},
		{"missing dbname", func(c *Config) { c.Database.DBName = "" }, "database.dbname"},
		{"missing jwt secret", func(c *Config) { c.JWT.Secret = "" }, "jwt.secret"},
		{"zero pending cap", func(c *Config) { c.Queue.PendingCap = -1 }, "queue.pending_cap"},
		{"bootstrap without password", func(c *Config) { c.Bootstrap.AdminUsername = "root" }, "bootstrap.admin_password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.yml", GetConfigPath("config.yml"))

	t.Setenv("CONFIG_PATH", "/etc/trailer/config.yml")
	assert.Equal(t, "/etc/trailer/config.yml", GetConfigPath("config.yml"))
}
