package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Batch    BatchConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
	Tracing  TracingConfig
	NATS     NATSConfig
}

type ServerConfig struct {
	Host          string        `env:"HOST" envDefault:"0.0.0.0"`
	Port          int           `env:"PORT" envDefault:"3000"`
	ReadTimeout   time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout  time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	AllowOrigins  []string      `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`
	MaxUploadSize int64         `env:"MAX_UPLOAD_SIZE" envDefault:"52428800"`
	TLSCertFile   string        `env:"TLS_CERT_FILE"`
	TLSKeyFile    string        `env:"TLS_KEY_FILE"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TLSEnabled is true when both files are configured and present.
func (s ServerConfig) TLSEnabled() bool {
	if s.TLSCertFile == "" || s.TLSKeyFile == "" {
		return false
	}
	return fileExists(s.TLSCertFile) && fileExists(s.TLSKeyFile)
}

type UpstreamConfig struct {
	Timeout  time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`
	RetryMax int           `env:"UPSTREAM_RETRY_MAX" envDefault:"0"`
}

type BatchConfig struct {
	Concurrency int `env:"UPLOAD_CONCURRENCY" envDefault:"1"`
	PageSize    int `env:"PAGE_SIZE" envDefault:"20"`
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"console"`
}

type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"METRICS_PATH" envDefault:"/metrics"`
}

type TracingConfig struct {
	Stdout bool `env:"TRACE_STDOUT" envDefault:"false"`
}

type NATSConfig struct {
	URL     string `env:"NATS_URL"`
	Subject string `env:"NATS_SUBJECT" envDefault:"hub"`
}

// LoadEnv loads whichever of the given .env files exist; it returns how many did.
func LoadEnv(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if fileExists(f) {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.Errorf("PORT must be within 1-65535: %d", c.Server.Port)
	}
	if c.Server.MaxUploadSize <= 0 {
		return errors.Errorf("MAX_UPLOAD_SIZE must be positive: %d", c.Server.MaxUploadSize)
	}
	if c.Upstream.Timeout <= 0 {
		return errors.Errorf("UPSTREAM_TIMEOUT must be positive: %s", c.Upstream.Timeout)
	}
	if c.Upstream.RetryMax < 0 {
		return errors.Errorf("UPSTREAM_RETRY_MAX must not be negative: %d", c.Upstream.RetryMax)
	}
	if c.Batch.Concurrency < 1 {
		return errors.Errorf("UPLOAD_CONCURRENCY must be at least 1: %d", c.Batch.Concurrency)
	}
	if c.Batch.PageSize < 1 {
		return errors.Errorf("PAGE_SIZE must be at least 1: %d", c.Batch.PageSize)
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		return errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
