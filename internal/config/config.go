package config

import (
	"fmt"
	"strings"
	"time"

	"creditdash/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment variable, e.g. CREDITDASH_SERVER_PORT
const EnvPrefix = "CREDITDASH"

// devSessionSecret keeps local runs working without setup; set a real secret in production
const devSessionSecret = "creditdash-dev-session-secret"

// Config represents the complete application configuration
type Config struct {
	Server ServerConfig `envconfig:"SERVER" validate:"required"`
	Data   DataConfig   `envconfig:"DATA" validate:"required"`
	Log    LogConfig    `envconfig:"LOG" validate:"required"`
	Admin  AdminConfig  `envconfig:"ADMIN"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port          int           `envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	GinMode       string        `envconfig:"GIN_MODE" default:"release" validate:"oneof=debug release test"`
	SessionSecret string        `envconfig:"SESSION_SECRET" default:"creditdash-dev-session-secret" validate:"required,min=16"`
	ReadTimeout   time.Duration `envconfig:"READ_TIMEOUT" default:"15s" validate:"gt=0"`
	WriteTimeout  time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s" validate:"gt=0"`
}

// DataConfig holds dataset loading settings
type DataConfig struct {
	DefaultFile        string `envconfig:"DEFAULT_FILE" default:"Credit Risk Benchmark Dataset.csv" validate:"required"`
	MaxUploadMB        int64  `envconfig:"MAX_UPLOAD_MB" default:"50" validate:"min=1,max=1024"`
	MaxConcurrentLoads int64  `envconfig:"MAX_CONCURRENT_LOADS" default:"2" validate:"min=1,max=64"`
	MaxUploads         int    `envconfig:"MAX_UPLOADS" default:"16" validate:"min=1,max=1024"`
	PageSize           int    `envconfig:"PAGE_SIZE" default:"100" validate:"min=10,max=10000"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `envconfig:"FORMAT" default:"text" validate:"oneof=text json"`
}

// AdminConfig holds the operator listener (pprof, metrics, health)
type AdminConfig struct {
	Enabled bool `envconfig:"ENABLED" default:"false"`
	Port    int  `envconfig:"PORT" default:"6060" validate:"min=1,max=65535"`
}

// Addr returns the admin listen address
func (a AdminConfig) Addr() string {
	return fmt.Sprintf(":%d", a.Port)
}

// MaxUploadBytes converts the upload limit to bytes
func (d DataConfig) MaxUploadBytes() int64 {
	return d.MaxUploadMB << 20
}

// Addr returns the listen address for the HTTP server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// UsesDevSecret reports whether the built-in session secret is in effect
func (s ServerConfig) UsesDevSecret() bool {
	return s.SessionSecret == devSessionSecret
}

// Load reads configuration from environment variables and validates it.
// A .env file, if any, must already have been loaded by the caller.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "failed to read environment"))
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints and reports every violated field
func Validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "configuration validation failed"))
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return errors.ConfigInvalid("configuration validation failed: " + strings.Join(msgs, "; "))
}
