// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env expansion and overrides, defaults, and validation

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
server:
  http_addr: "0.0.0.0:8080"
  grpc_addr: "0.0.0.0:50051"

database:
  driver: "sqlite3"
  path: "./test.db"

auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
  token_ttl: "90m"

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true
  path: "/metrics"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "0.0.0.0:50051", cfg.Server.GRPCAddr)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "./test.db", cfg.Database.Path)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_ValidTOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[server]
http_addr = ":9000"

[database]
path = "/tmp/taskgate.db"

[auth]
token_ttl = "2h"

[metrics]
enabled = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.HTTPAddr)
	assert.Equal(t, "/tmp/taskgate.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
database:
  path: "./test.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPAddr, cfg.Server.HTTPAddr)
	assert.Empty(t, cfg.Server.GRPCAddr)
	assert.Equal(t, DefaultDriver, cfg.Database.Driver)
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Equal(t, DefaultTokenTTL, cfg.Auth.TokenTTL)
	assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Logging.Format)
	assert.Equal(t, DefaultMetricsPath, cfg.Metrics.Path)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_TASKGATE_SECRET", "expanded-secret-that-is-32-bytes")
	t.Setenv("TEST_TASKGATE_DB", "/data/expanded.db")

	path := writeConfig(t, "config.yaml", `
database:
  path: "${TEST_TASKGATE_DB}"
auth:
  jwt_secret: "${TEST_TASKGATE_SECRET}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/expanded.db", cfg.Database.Path)
	assert.Equal(t, "expanded-secret-that-is-32-bytes", cfg.Auth.JWTSecret)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TASKGATE_SERVER_HTTP_ADDR", ":7070")
	t.Setenv("TASKGATE_DATABASE_PATH", "/override.db")
	t.Setenv("TASKGATE_AUTH_TOKEN_TTL", "15m")
	t.Setenv("TASKGATE_METRICS_ENABLED", "true")

	path := writeConfig(t, "config.yaml", `
server:
  http_addr: ":8080"
database:
  path: "./file.db"
auth:
  token_ttl: "1h"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.HTTPAddr)
	assert.Equal(t, "/override.db", cfg.Database.Path)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TASKGATE_DATABASE_PATH", "/env-only.db")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/env-only.db", cfg.Database.Path)
	assert.Equal(t, DefaultHTTPAddr, cfg.Server.HTTPAddr)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing database path",
			content: "server:\n  http_addr: \":8080\"\n",
			wantErr: "database.path is required",
		},
		{
			name:    "unknown driver",
			content: "database:\n  driver: postgres\n  path: x.db\n",
			wantErr: "database.driver must be sqlite or sqlite3",
		},
		{
			name:    "short secret",
			content: "database:\n  path: x.db\nauth:\n  jwt_secret: short\n",
			wantErr: "auth.jwt_secret must be at least 32 bytes",
		},
		{
			name:    "negative ttl",
			content: "database:\n  path: x.db\nauth:\n  token_ttl: -5m\n",
			wantErr: "auth.token_ttl must be at least 1s",
		},
		{
			name:    "sub-second ttl",
			content: "database:\n  path: x.db\nauth:\n  token_ttl: 500ms\n",
			wantErr: "auth.token_ttl must be at least 1s",
		},
		{
			name:    "bad ttl",
			content: "database:\n  path: x.db\nauth:\n  token_ttl: soon\n",
			wantErr: "parsing token_ttl",
		},
		{
			name:    "bad log level",
			content: "database:\n  path: x.db\nlogging:\n  level: loud\n",
			wantErr: "logging.level",
		},
		{
			name:    "bad log format",
			content: "database:\n  path: x.db\nlogging:\n  format: xml\n",
			wantErr: "logging.format",
		},
		{
			name:    "metrics path without slash",
			content: "database:\n  path: x.db\nmetrics:\n  enabled: true\n  path: metrics\n",
			wantErr: "metrics.path must start with /",
		},
		{
			name:    "metrics path without slash while disabled",
			content: "database:\n  path: x.db\nmetrics:\n  path: metrics\n",
			wantErr: "metrics.path must start with /",
		},
		{
			name:    "metrics path wildcard",
			content: "database:\n  path: x.db\nmetrics:\n  path: /api/task/**\n",
			wantErr: "metrics.path must be a literal path",
		},
		{
			name:    "metrics path under api",
			content: "database:\n  path: x.db\nmetrics:\n  enabled: true\n  path: /api/task/create\n",
			wantErr: "metrics.path must not be under /api",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "config.yaml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "config.yaml", "server: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestExpandEnvVars_Unset(t *testing.T) {
	assert.Equal(t, "a--b", expandEnvVars("a-${TASKGATE_DEFINITELY_UNSET_VAR}-b"))
}
