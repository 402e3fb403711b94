package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/questify/internal/question"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
server:
  port: 8081
  request_timeout_seconds: 40
metrics:
  port: 0
logging:
  development: true
  level: debug
store:
  driver: sqlite
  uri: file:/tmp/questify.db
mail:
  host: smtp.example.com
  port: 2525
  username: bot@example.com
  password: secret
  tls_policy: opportunistic
http:
  timeout_seconds: 5
  user_agent: questify-test
sources:
  codechef_url: http://127.0.0.1:9999/practice
broadcast:
  enabled: false
  sources: ["Codechef"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 8081, cfg.Server.Port)
	require.Equal(t, 40*time.Second, cfg.RequestTimeout())
	require.Equal(t, 0, cfg.Metrics.Port)
	require.True(t, cfg.Logging.Development)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "sqlite", cfg.Store.Driver)
	require.Equal(t, "file:/tmp/questify.db", cfg.Store.URI)
	require.Equal(t, "smtp.example.com", cfg.Mail.Host)
	require.Equal(t, 2525, cfg.Mail.Port)
	require.Equal(t, "bot@example.com", cfg.Mail.From)
	require.Equal(t, 5*time.Second, cfg.HTTPTimeout())
	require.Equal(t, "http://127.0.0.1:9999/practice", cfg.Sources.CodechefURL)
	require.Equal(t, "https://leetcode.com/api/problems/all/", cfg.Sources.LeetCodeURL)
	require.False(t, cfg.Broadcast.Enabled)
	require.Equal(t, []question.Platform{question.Codechef}, cfg.BroadcastPlatforms())
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "mail:\n  username: bot@example.com\n"))
	require.NoError(t, err)

	require.Equal(t, 3000, cfg.Server.Port)
	require.Equal(t, 9090, cfg.Metrics.Port)
	require.Equal(t, "smtp.gmail.com", cfg.Mail.Host)
	require.Equal(t, 587, cfg.Mail.Port)
	require.Equal(t, "questify", cfg.Store.Database)
	require.Equal(t, "emails", cfg.Store.Table)
	require.True(t, cfg.Broadcast.Enabled)
	require.Equal(t, []question.Platform{question.LeetCode, question.Codeforces}, cfg.BroadcastPlatforms())
	require.Equal(t, 15*time.Second, cfg.ShutdownTimeout())
}

func TestLoadLegacyEnvironment(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("EMAIL_USER", "bot@example.com")
	t.Setenv("EMAIL_PASS", "app-password")
	t.Setenv("PORT", "4000")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "mongodb://db:27017", cfg.Store.URI)
	require.Equal(t, "bot@example.com", cfg.Mail.Username)
	require.Equal(t, "bot@example.com", cfg.Mail.From)
	require.Equal(t, "app-password", cfg.Mail.Password)
	require.Equal(t, 4000, cfg.Server.Port)
}

func TestLoadPrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("EMAIL_USER", "legacy@example.com")
	t.Setenv("QUESTIFY_MAIL_USERNAME", "prefixed@example.com")
	t.Setenv("QUESTIFY_BROADCAST_SOURCES", "LeetCode,Codechef")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "prefixed@example.com", cfg.Mail.Username)
	require.Equal(t, []question.Platform{question.LeetCode, question.Codechef}, cfg.BroadcastPlatforms())
}

func TestLoadWithoutMailCredentials(t *testing.T) {
	t.Setenv("EMAIL_USER", "")
	t.Setenv("QUESTIFY_MAIL_USERNAME", "")
	t.Setenv("QUESTIFY_MAIL_FROM", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Empty(t, cfg.Mail.From)
	require.Greater(t, cfg.RequestTimeout(), cfg.HTTPTimeout()+30*time.Second)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config")
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:    ServerConfig{Port: 3000, RequestTimeoutSeconds: 60},
		Metrics:   MetricsConfig{Port: 9090},
		Logging:   LoggingConfig{Level: "info"},
		Mail:      MailConfig{Host: "smtp.gmail.com", Port: 587, From: "bot@example.com", TimeoutSeconds: 30},
		HTTP:      HTTPConfig{TimeoutSeconds: 15},
		Broadcast: BroadcastConfig{Enabled: true, Sources: []string{"LeetCode"}},
	}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 0 }, want: "server.port"},
		{name: "negative metrics port", mutate: func(c *Config) { c.Metrics.Port = -1 }, want: "metrics.port"},
		{name: "metrics port clash", mutate: func(c *Config) { c.Metrics.Port = 3000 }, want: "metrics.port"},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "loud" }, want: "logging.level"},
		{name: "bad driver", mutate: func(c *Config) { c.Store.Driver = "redis" }, want: "store.driver"},
		{name: "missing host", mutate: func(c *Config) { c.Mail.Host = "" }, want: "mail.host"},
		{name: "bad mail port", mutate: func(c *Config) { c.Mail.Port = 0 }, want: "mail.port"},
		{name: "invalid timeout", mutate: func(c *Config) { c.HTTP.TimeoutSeconds = 0 }, want: "http.timeout_seconds"},
		{name: "request timeout too short", mutate: func(c *Config) { c.Server.RequestTimeoutSeconds = 45 }, want: "server.request_timeout_seconds"},
		{name: "no broadcast sources", mutate: func(c *Config) { c.Broadcast.Sources = nil }, want: "broadcast.sources"},
		{name: "unknown broadcast source", mutate: func(c *Config) { c.Broadcast.Sources = []string{"AtCoder"} }, want: "AtCoder"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			cfg.Broadcast.Sources = append([]string(nil), base.Broadcast.Sources...)
			tt.mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
