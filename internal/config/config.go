package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Source struct {
		BaseURL        string        `yaml:"base_url" default:"https://api.coingecko.com/api/v3" validate:"required,url"`
		UserAgent      string        `yaml:"user_agent" default:"Mozilla/5.0"`
		PriceTimeout   time.Duration `yaml:"price_timeout" default:"10s" validate:"gt=0s"`
		HistoryTimeout time.Duration `yaml:"history_timeout" default:"15s" validate:"gt=0s"`
	} `yaml:"source"`
	Dashboard struct {
		Coins      []string   `yaml:"coins" default:"[\"bitcoin\",\"ethereum\"]" validate:"min=1,max=5,dive,required"`
		Currency   string     `yaml:"currency" default:"usd" validate:"oneof=usd eur gbp jpy inr"`
		Days       int        `yaml:"days" default:"7" validate:"oneof=1 7 30 90 180 365"`
		Indicators Indicators `yaml:"indicators"`
	} `yaml:"dashboard"`
	Live struct {
		Enabled  bool          `yaml:"enabled" default:"true"`
		Interval time.Duration `yaml:"interval" default:"3s" validate:"gte=1s,lte=10s"`
		// MaxTicks bounds auto-refresh; 0 polls until shutdown.
		MaxTicks int `yaml:"max_ticks" default:"50" validate:"gte=0"`
		// Retention caps each live buffer; 0 keeps every sample.
		Retention int `yaml:"retention" validate:"gte=0"`
	} `yaml:"live"`
	Server struct {
		// Addr is the HTTP listen address; empty disables the server.
		Addr string `yaml:"addr" default:":8080"`
	} `yaml:"server"`
	Journal struct {
		Enabled bool `yaml:"enabled" default:"true"`
	} `yaml:"journal"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Indicators toggles the overlays computed for historical series.
type Indicators struct {
	MA     bool `yaml:"ma" default:"true"`
	EMA    bool `yaml:"ema" default:"true"`
	RSI    bool `yaml:"rsi"`
	Volume bool `yaml:"volume" default:"true"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load applies defaults, then the YAML file at path (a missing file is
// allowed), then environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("COINDASH_COINS"); v != "" {
		var coins []string
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				coins = append(coins, c)
			}
		}
		cfg.Dashboard.Coins = coins
	}
	if v := os.Getenv("COINDASH_CURRENCY"); v != "" {
		cfg.Dashboard.Currency = strings.ToLower(v)
	}
	if v := os.Getenv("COINDASH_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("COINDASH_DAYS: %w", err)
		}
		cfg.Dashboard.Days = days
	}
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		cfg.Source.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	return cfg, nil
}

// Validate checks every field against its constraints and reports the
// first violation by its YAML path.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := verrs[0]
	path := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", path)
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", path, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Errorf("%s must have at least %s entries", path, fe.Param())
	case "max":
		return fmt.Errorf("%s must have at most %s entries", path, fe.Param())
	default:
		return fmt.Errorf("%s failed %s=%s", path, fe.Tag(), fe.Param())
	}
}
