package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/storedash/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"STOREDASH_RUNTIME_PATH" envDefault:".storedash"`

	// Remote model-serving endpoint
	APIURL       string        `env:"STOREDASH_API_URL" envDefault:"http://localhost:8000"`
	CallTimeout  time.Duration `env:"STOREDASH_CALL_TIMEOUT" envDefault:"5s"`
	ProbeTimeout time.Duration `env:"STOREDASH_PROBE_TIMEOUT" envDefault:"3s"`

	// Retrieval tuning
	DebounceWindow time.Duration `env:"STOREDASH_DEBOUNCE" envDefault:"300ms"`
	TopK           int           `env:"STOREDASH_TOP_K" envDefault:"10"`
	PageSize       int           `env:"STOREDASH_PAGE_SIZE" envDefault:"50"`

	// Shells
	EnableTUI      bool   `env:"STOREDASH_ENABLE_TUI" envDefault:"true"`
	EnableTelegram bool   `env:"STOREDASH_ENABLE_TELEGRAM" envDefault:"false"`
	MetricsAddr    string `env:"STOREDASH_METRICS_ADDR"`
}

// ParseAppConfig reads the environment without exiting on failure.
func ParseAppConfig() (*AppConfig, error) {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.RuntimePath = resolveRuntimePath(c.RuntimePath)
	return c, nil
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c, err := ParseAppConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) validate() error {
	switch {
	case c.CallTimeout <= 0:
		return fmt.Errorf("STOREDASH_CALL_TIMEOUT must be positive, got %s", c.CallTimeout)
	case c.ProbeTimeout <= 0:
		return fmt.Errorf("STOREDASH_PROBE_TIMEOUT must be positive, got %s", c.ProbeTimeout)
	case c.DebounceWindow < 0:
		return fmt.Errorf("STOREDASH_DEBOUNCE must not be negative, got %s", c.DebounceWindow)
	case c.TopK < 1:
		return fmt.Errorf("STOREDASH_TOP_K must be at least 1, got %d", c.TopK)
	case c.PageSize < 1:
		return fmt.Errorf("STOREDASH_PAGE_SIZE must be at least 1, got %d", c.PageSize)
	}
	return nil
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "storedash.db")
}

func (c AppConfig) GetLogPath() string {
	return filepath.Join(c.RuntimePath, "storedash.log")
}

func (c AppConfig) GetAPIURL() string {
	return c.APIURL
}

func (c AppConfig) GetCallTimeout() time.Duration {
	return c.CallTimeout
}

func (c AppConfig) GetProbeTimeout() time.Duration {
	return c.ProbeTimeout
}

func (c AppConfig) GetDebounceWindow() time.Duration {
	return c.DebounceWindow
}

func (c AppConfig) GetTopK() int {
	return c.TopK
}

func (c AppConfig) GetPageSize() int {
	return c.PageSize
}

func (c AppConfig) IsTelegramSelected() bool {
	return c.EnableTelegram
}
