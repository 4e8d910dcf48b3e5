// Package config loads pipeline settings from environment variables.
// Command-line flags default to these values, so a .env file or the
// environment can drive the whole pipeline without flags.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all pipeline configuration.
type Config struct {
	Transform TransformConfig
	Screen    ScreenConfig
	Validate  ValidateConfig
	Fetch     FetchConfig
	Server    ServerConfig
	Logging   LoggingConfig

	issues []issue
}

// TransformConfig holds defaults for the transform command.
type TransformConfig struct {
	// Input is the raw list to transform (CSV, TSV or XLSX)
	Input string `env:"TRANSFORM_INPUT" default:"data/raw/ofac_sdn.csv"`

	// Output is the entity JSONL file
	Output string `env:"TRANSFORM_OUTPUT" default:"data/ftm/entities.jsonl"`

	// Format is the entity encoding: simple or graph
	Format string `env:"TRANSFORM_FORMAT" default:"simple"`
}

// ScreenConfig holds defaults for the screen command.
type ScreenConfig struct {
	Input    string `env:"SCREEN_INPUT" default:"data/screen/input.csv"`
	Entities string `env:"SCREEN_ENTITIES" envAlt:"TRANSFORM_OUTPUT" default:"data/ftm/entities.jsonl"`
	Output   string `env:"SCREEN_OUTPUT" default:"data/screen/output.csv"`
}

// ValidateConfig holds defaults for the validate command.
type ValidateConfig struct {
	// MinRows is the minimum number of valid records (default: 1)
	MinRows int `env:"VALIDATE_MIN_ROWS" default:"1"`
}

// FetchConfig holds download settings.
type FetchConfig struct {
	// Timeout bounds a single HTTP request (default: 60s)
	Timeout time.Duration `env:"FETCH_TIMEOUT" default:"60s"`

	// Retries is the number of extra attempts after a transport error or 5xx
	Retries int `env:"FETCH_RETRIES" default:"2"`

	// Backoff is multiplied by the attempt number between retries
	Backoff time.Duration `env:"FETCH_BACKOFF" default:"2s"`

	// MinBytes is the smallest acceptable payload for ad-hoc URLs (default: 1)
	MinBytes int64 `env:"FETCH_MIN_BYTES" default:"1"`

	UserAgent string `env:"FETCH_USER_AGENT" default:"sanctions-pipeline/0.1 (+github)"`

	// SourcesFile replaces the built-in source catalogue when set
	SourcesFile string `env:"FETCH_SOURCES_FILE"`
}

// ServerConfig holds settings for the screening HTTP service.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`

	// MaxBatch caps the names accepted by one POST /api/screen (default: 1000)
	MaxBatch int `env:"SERVER_MAX_BATCH" default:"1000"`

	// TrustedProxies lists proxy CIDRs whose X-Real-IP/X-Forwarded-For
	// headers are believed (comma-separated)
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES"`

	// APIKeys, when set, are required in X-API-Key on /api routes
	APIKeys []string `env:"SERVER_API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
