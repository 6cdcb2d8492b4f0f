// Package config loads service configuration from the environment, with an
// optional YAML overlay file. Slice values in the environment are semicolon
// separated. When NEOSTREAM_CONFIG_FILE is set, keys present in that file
// override the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable pointing at the YAML overlay.
const ConfigFileEnv = "NEOSTREAM_CONFIG_FILE"

// Config is the root configuration for the stream service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	Streams   StreamsConfig   `yaml:"streams"`
	Events    EventsConfig    `yaml:"events"`
	Report    ReportConfig    `yaml:"report"`
	Audit     AuditConfig     `yaml:"audit"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST,default=0.0.0.0" yaml:"host"`
	Port            int           `env:"SERVER_PORT,default=8080" yaml:"port"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT,default=15s" yaml:"read_timeout"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT,default=15s" yaml:"write_timeout"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT,default=60s" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s" yaml:"shutdown_timeout"`
}

// LoggingConfig mirrors pkg/logger.LoggingConfig.
type LoggingConfig struct {
	Level      string `env:"LOG_LEVEL,default=info" yaml:"level"`
	Format     string `env:"LOG_FORMAT,default=text" yaml:"format"`
	Output     string `env:"LOG_OUTPUT,default=stdout" yaml:"output"`
	FilePrefix string `env:"LOG_FILE_PREFIX,default=neostream" yaml:"file_prefix"`
}

// AuthConfig carries API credentials. Empty keys and secret disable auth.
type AuthConfig struct {
	APIKeys   []string `env:"AUTH_API_KEYS" yaml:"api_keys"`
	JWTSecret string   `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// RateLimitConfig throttles per-client request rates. RPS of zero disables
// limiting.
type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS,default=0" yaml:"rps"`
	Burst int     `env:"RATE_LIMIT_BURST,default=20" yaml:"burst"`
}

// CORSConfig lists allowed browser origins.
type CORSConfig struct {
	Origins []string `env:"CORS_ORIGINS" yaml:"origins"`
}

// StreamsConfig tunes stream creation rules and the watch endpoint.
type StreamsConfig struct {
	AllowedAssets     []string      `env:"STREAM_ALLOWED_ASSETS" yaml:"allowed_assets"`
	AssetsFile        string        `env:"STREAM_ASSETS_FILE" yaml:"assets_file"`
	ValidateAddresses bool          `env:"STREAM_VALIDATE_ADDRESSES,default=false" yaml:"validate_addresses"`
	WatchInterval     time.Duration `env:"STREAM_WATCH_INTERVAL,default=1s" yaml:"watch_interval"`
}

// EventsConfig wires optional lifecycle event sinks. Unset addresses disable
// the corresponding sink.
type EventsConfig struct {
	RedisAddr      string        `env:"EVENTS_REDIS_ADDR" yaml:"redis_addr"`
	RedisPassword  string        `env:"EVENTS_REDIS_PASSWORD" yaml:"redis_password"`
	RedisDB        int           `env:"EVENTS_REDIS_DB,default=0" yaml:"redis_db"`
	RedisChannel   string        `env:"EVENTS_REDIS_CHANNEL,default=neostream.events" yaml:"redis_channel"`
	WebhookURL     string        `env:"EVENTS_WEBHOOK_URL" yaml:"webhook_url"`
	WebhookAPIKey  string        `env:"EVENTS_WEBHOOK_API_KEY" yaml:"webhook_api_key"`
	WebhookTimeout time.Duration `env:"EVENTS_WEBHOOK_TIMEOUT,default=10s" yaml:"webhook_timeout"`
}

// ReportConfig schedules the portfolio gauge refresh.
type ReportConfig struct {
	Schedule string `env:"REPORT_SCHEDULE,default=@every 1m" yaml:"schedule"`
}

// AuditConfig controls the request audit trail.
type AuditConfig struct {
	Max  int    `env:"AUDIT_MAX,default=200" yaml:"max"`
	File string `env:"AUDIT_FILE" yaml:"file"`
}

// Load decodes the configuration from the environment and applies the overlay
// file when one is configured.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if path := os.Getenv(ConfigFileEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT %d out of range", cfg.Server.Port)
	}
	return &cfg, nil
}
