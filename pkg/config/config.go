package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App   AppConfig
	API   APIConfig
	State StateConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SNAPMOB_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"SNAPMOB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SNAPMOB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points the client at the remote storefront backend.
type APIConfig struct {
	BaseURL string        `envconfig:"SNAPMOB_API_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"SNAPMOB_API_TIMEOUT" default:"15s"`
}

func (a APIConfig) validate() error {
	parsed, err := url.Parse(a.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid API base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("API base URL must be http or https, got %q", a.BaseURL)
	}
	return nil
}

// StateConfig locates the local durable state used across restarts.
type StateConfig struct {
	DBPath string `envconfig:"SNAPMOB_STATE_DB_PATH" default:"snapmob-state.db"`
}
