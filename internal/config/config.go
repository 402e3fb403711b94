// Package config loads and validates service configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/JakeFAU/questify/internal/question"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Store     StoreConfig     `mapstructure:"store"`
	Mail      MailConfig      `mapstructure:"mail"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
}

// ServerConfig controls the public HTTP server.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
	ShutdownTimeoutSecs   int `mapstructure:"shutdown_timeout_seconds"`
}

// MetricsConfig controls the Prometheus listener. Port 0 disables it.
type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// StoreConfig selects and configures the subscriber backend.
type StoreConfig struct {
	Driver                string `mapstructure:"driver"`
	URI                   string `mapstructure:"uri"`
	Database              string `mapstructure:"database"`
	Table                 string `mapstructure:"table"`
	MaxConns              int    `mapstructure:"max_conns"`
	ConnectTimeoutSeconds int    `mapstructure:"connect_timeout_seconds"`
}

// MailConfig configures the outbound SMTP relay.
type MailConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	From           string `mapstructure:"from"`
	TLSPolicy      string `mapstructure:"tls_policy"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// HTTPConfig configures the outbound fetch client.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// SourcesConfig holds the platform listing endpoints.
type SourcesConfig struct {
	LeetCodeURL   string `mapstructure:"leetcode_url"`
	CodeforcesURL string `mapstructure:"codeforces_url"`
	CodechefURL   string `mapstructure:"codechef_url"`
}

// BroadcastConfig controls the daily broadcast.
type BroadcastConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Sources []string `mapstructure:"sources"`
}

var storeDrivers = map[string]bool{"": true, "memory": true, "postgres": true, "sqlite": true, "mongo": true}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QUESTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.Username
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("server.shutdown_timeout_seconds", 15)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("store.driver", "")
	v.SetDefault("store.uri", "")
	v.SetDefault("store.database", "questify")
	v.SetDefault("store.table", "emails")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.connect_timeout_seconds", 10)
	v.SetDefault("mail.host", "smtp.gmail.com")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.tls_policy", "mandatory")
	v.SetDefault("mail.timeout_seconds", 30)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.user_agent", "questify/1.0")
	v.SetDefault("sources.leetcode_url", "https://leetcode.com/api/problems/all/")
	v.SetDefault("sources.codeforces_url", "https://codeforces.com/api/problemset.problems")
	v.SetDefault("sources.codechef_url", "https://www.codechef.com/practice/recent")
	v.SetDefault("broadcast.enabled", true)
	v.SetDefault("broadcast.sources", []string{question.LeetCode.String(), question.Codeforces.String()})
}

// bindLegacyEnv keeps the deployment variable names working next to the
// QUESTIFY_* ones. The prefixed name wins when both are set.
func bindLegacyEnv(v *viper.Viper) error {
	legacy := map[string]string{
		"store.uri":     "MONGO_URI",
		"mail.username": "EMAIL_USER",
		"mail.password": "EMAIL_PASS",
		"server.port":   "PORT",
	}
	for key, name := range legacy {
		prefixed := "QUESTIFY_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, name); err != nil {
			return fmt.Errorf("bind env %s: %w", name, err)
		}
	}
	return nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("server.port must be > 0")
	}
	if c.Metrics.Port < 0 {
		return errors.New("metrics.port must be >= 0")
	}
	if c.Metrics.Port != 0 && c.Metrics.Port == c.Server.Port {
		return errors.New("metrics.port must differ from server.port")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if !storeDrivers[strings.ToLower(c.Store.Driver)] {
		return fmt.Errorf("store.driver %q is not one of memory, postgres, sqlite, mongo", c.Store.Driver)
	}
	if c.Mail.Host == "" {
		return errors.New("mail.host is required")
	}
	if c.Mail.Port <= 0 {
		return errors.New("mail.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return errors.New("http.timeout_seconds must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= c.HTTP.TimeoutSeconds+c.Mail.TimeoutSeconds {
		return fmt.Errorf("server.request_timeout_seconds (%d) must exceed http.timeout_seconds + mail.timeout_seconds (%d)",
			c.Server.RequestTimeoutSeconds, c.HTTP.TimeoutSeconds+c.Mail.TimeoutSeconds)
	}
	if c.Broadcast.Enabled && len(c.Broadcast.Sources) == 0 {
		return errors.New("broadcast.sources must name at least one platform when broadcast is enabled")
	}
	for _, label := range c.Broadcast.Sources {
		if _, ok := question.ParsePlatform(label); !ok {
			return fmt.Errorf("broadcast.sources: unknown platform %q", label)
		}
	}
	return nil
}

// BroadcastPlatforms returns the parsed broadcast source list.
func (c Config) BroadcastPlatforms() []question.Platform {
	out := make([]question.Platform, 0, len(c.Broadcast.Sources))
	for _, label := range c.Broadcast.Sources {
		if p, ok := question.ParsePlatform(label); ok {
			out = append(out, p)
		}
	}
	return out
}

// HTTPTimeout is the outbound fetch timeout.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RequestTimeout bounds one inbound API request.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// ShutdownTimeout bounds graceful shutdown.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSecs) * time.Second
}
