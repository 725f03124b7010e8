package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadConfig_DefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("SYNC_MEMBER_CONCURRENCY", "3")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "coaching_platform", cfg.Database.Name)
	assert.True(t, cfg.Database.Transactions)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 3, cfg.Sync.MemberConcurrency)
	assert.Equal(t, "@hourly", cfg.Scheduler.CohortLifecycleSpec)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_FileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, "config.yaml", `
server:
  address: ":9090"
  write_timeout: 1m
database:
  name: coaching_test
  transactions: false
auth:
  jwt_secret: from-file
ratelimit:
  rps: 0.5
  burst: 2
log:
  format: console
`)
	writeFile(t, dir, ".env", "AUTH_ISSUER=https://id.example.com\n")
	t.Cleanup(func() { os.Unsetenv("AUTH_ISSUER") })

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, "coaching_test", cfg.Database.Name)
	assert.False(t, cfg.Database.Transactions)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, "https://id.example.com", cfg.Auth.Issuer)
	assert.Equal(t, 0.5, cfg.RateLimit.RPS)
	assert.Equal(t, 2, cfg.RateLimit.Burst)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, "jwt_secret")
}

func TestValidate(t *testing.T) {
	valid := Config{
		Database:  DatabaseConfig{URI: "mongodb://db", Name: "x"},
		Auth:      AuthConfig{JWTSecret: "k"},
		Sync:      SyncConfig{MemberConcurrency: 1},
		RateLimit: RateLimitConfig{RPS: 1, Burst: 1},
		Log:       LogConfig{Format: "json"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no concurrency", func(c *Config) { c.Sync.MemberConcurrency = 0 }},
		{"no burst", func(c *Config) { c.RateLimit.Burst = 0 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"no database name", func(c *Config) { c.Database.Name = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
