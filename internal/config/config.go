package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	API           APIConfig           `envconfig:"API"`
	Evidence      EvidenceConfig      `envconfig:"EVIDENCE"`
	Location      LocationConfig      `envconfig:"LOCATION"`
	Credentials   CredentialsConfig   `envconfig:"CREDENTIALS"`
	Redis         RedisConfig         `envconfig:"REDIS"`
	Observability ObservabilityConfig `envconfig:"OBSERVABILITY"`
	Log           LogConfig           `envconfig:"LOG"`
	Environment   string              `envconfig:"ENVIRONMENT" default:"development"`
}

type APIConfig struct {
	BaseURL string        `envconfig:"BASE_URL" default:"https://api.fieldtrace.io/v1"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

type EvidenceConfig struct {
	MaxImages       int `envconfig:"MAX_IMAGES" default:"5"`
	MaxImageSizeMB  int `envconfig:"MAX_IMAGE_SIZE_MB" default:"6"`
	DefaultPageSize int `envconfig:"DEFAULT_PAGE_SIZE" default:"10"`
}

type LocationConfig struct {
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"15s"`
	Pinned    bool          `envconfig:"PINNED" default:"false"`
	Latitude  float64       `envconfig:"LATITUDE" default:"0"`
	Longitude float64       `envconfig:"LONGITUDE" default:"0"`
}

type CredentialsConfig struct {
	Backend   string `envconfig:"BACKEND" default:"file"` // file or redis
	FilePath  string `envconfig:"FILE_PATH" default:""`
	KeyPrefix string `envconfig:"KEY_PREFIX" default:"evidence:"`
}

type RedisConfig struct {
	Address  string `envconfig:"ADDRESS" default:"localhost:6379"`
	Password string `envconfig:"PASSWORD" default:""`
	Database int    `envconfig:"DATABASE" default:"0"`
}

type ObservabilityConfig struct {
	OTLPEndpoint   string  `envconfig:"OTLP_ENDPOINT" default:"http://localhost:4318"`
	TracingEnabled bool    `envconfig:"TRACING_ENABLED" default:"false"`
	SampleRate     float64 `envconfig:"SAMPLE_RATE" default:"0.1"`
}

type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"text"`
}

func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if cfg.Credentials.FilePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.Credentials.FilePath = filepath.Join(home, ".evidence", "credentials.json")
	}

	// Validate required fields
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API base URL: %s", cfg.API.BaseURL)
	}

	if cfg.Evidence.MaxImages < 1 {
		return fmt.Errorf("invalid max images: %d", cfg.Evidence.MaxImages)
	}

	switch cfg.Credentials.Backend {
	case "file", "redis":
	default:
		return fmt.Errorf("invalid credentials backend: %s", cfg.Credentials.Backend)
	}

	if cfg.Observability.SampleRate < 0 || cfg.Observability.SampleRate > 1 {
		return fmt.Errorf("invalid tracing sample rate: %f", cfg.Observability.SampleRate)
	}

	return nil
}
