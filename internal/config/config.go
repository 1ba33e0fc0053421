package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"quickfx/internal/domain/model"
)

// EnvPrefix is prepended to every variable, e.g. QUICKFX_SERVER_PORT.
const EnvPrefix = "QUICKFX"

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"

	ModeInProcess = "inprocess"
	ModeDetached  = "detached"
)

type Config struct {
	Server   ServerConfig   `envconfig:"SERVER"`
	QuoteAPI QuoteAPIConfig `envconfig:"QUOTE_API"`
	Cache    CacheConfig    `envconfig:"CACHE"`
	Refresh  RefreshConfig  `envconfig:"REFRESH"`
	Log      LogConfig      `envconfig:"LOG"`
}

type ServerConfig struct {
	Port         int           `split_words:"true" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `split_words:"true" default:"5s" validate:"gt=0"`
	WriteTimeout time.Duration `split_words:"true" default:"10s" validate:"gt=0"`
	IdleTimeout  time.Duration `split_words:"true" default:"120s" validate:"gt=0"`
}

type QuoteAPIConfig struct {
	URL     string        `split_words:"true" default:"https://adsynth-ofx-quotewidget-prod.herokuapp.com/api/1" validate:"required,url"`
	Timeout time.Duration `split_words:"true" default:"30s" validate:"gt=0"`
}

type CacheConfig struct {
	StaleAfter time.Duration `split_words:"true" default:"8h" validate:"gt=0"`
	Driver     string        `split_words:"true" default:"sqlite" validate:"oneof=memory sqlite redis"`
	// Path is the sqlite file. Empty means quotes.db under the user cache directory.
	Path     string `split_words:"true"`
	RedisURL string `split_words:"true" validate:"required_if=Driver redis"`
	Prefix   string `split_words:"true" default:"quickfx:"`
}

type RefreshConfig struct {
	PollInterval time.Duration `split_words:"true" default:"500ms" validate:"gt=0"`
	Mode         string        `split_words:"true" default:"detached" validate:"oneof=inprocess detached"`
	// WarmPairs is a comma separated list such as USD_JPY,EUR_USD.
	WarmPairs    []string      `split_words:"true"`
	WarmInterval time.Duration `split_words:"true" default:"1h" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `split_words:"true" default:"info" validate:"oneof=debug info warn error"`
	Format string `split_words:"true" default:"json" validate:"oneof=json console"`
}

// LoadConfig reads the environment, after loading any of envFiles that exist. Missing
// files are skipped; variables already set in the environment win over file values.
func LoadConfig(envFiles ...string) (*Config, error) {
	for _, path := range envFiles {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Refresh.Pairs(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Pairs parses WarmPairs. Entries may use "_", "/" or "-" between the codes.
func (r RefreshConfig) Pairs() ([]model.CurrencyPair, error) {
	pairs := make([]model.CurrencyPair, 0, len(r.WarmPairs))
	for _, raw := range r.WarmPairs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.FieldsFunc(raw, func(r rune) bool {
			return r == '_' || r == '/' || r == '-'
		})
		if len(parts) != 2 {
			return nil, fmt.Errorf("warm pair %q: want BASE_TERM", raw)
		}
		base, ok := model.ParseCode(parts[0])
		if !ok {
			return nil, fmt.Errorf("warm pair %q: invalid currency code %q", raw, parts[0])
		}
		term, ok := model.ParseCode(parts[1])
		if !ok {
			return nil, fmt.Errorf("warm pair %q: invalid currency code %q", raw, parts[1])
		}
		pairs = append(pairs, model.CurrencyPair{Base: base, Term: term})
	}
	return pairs, nil
}

// SQLitePath returns Path, or the default location under the user cache directory.
func (c CacheConfig) SQLitePath() (string, error) {
	if c.Path != "" {
		return c.Path, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate cache directory: %w", err)
	}
	dir = filepath.Join(dir, "quickfx")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}
	return filepath.Join(dir, "quotes.db"), nil
}
