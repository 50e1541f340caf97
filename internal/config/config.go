package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
)

type Config struct {
	Primary      Primary            `koanf:"primary"`
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	ConsentStore ConsentStoreConfig `koanf:"consent_store"`
	Accounts     AccountsConfig     `koanf:"accounts"`
	Retry        RetryConfig        `koanf:"retry"`
	Idempotency  IdempotencyConfig  `koanf:"idempotency"`
	Payments     PaymentsConfig     `koanf:"payments"`
	Logger       LoggerConfig       `koanf:"logger"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

type ConsentStoreConfig struct {
	BaseURL     string        `koanf:"base_url" validate:"required"`
	ConnTimeout time.Duration `koanf:"conn_timeout" validate:"required"`
}

type AccountsConfig struct {
	BaseURL     string        `koanf:"base_url" validate:"required"`
	ConnTimeout time.Duration `koanf:"conn_timeout" validate:"required"`
}

type RetryConfig struct {
	BaseDelay  int32 `koanf:"base_delay"`
	MaxRetries int32 `koanf:"max_retries"`
}

// IdempotencyConfig tunes the key table. Retention is the window after
// which a key behaves as unseen; the wait settings bound how long a loser
// of a key race polls for the winner's response.
type IdempotencyConfig struct {
	Retention        time.Duration `koanf:"retention" validate:"required"`
	PurgeInterval    time.Duration `koanf:"purge_interval" validate:"required"`
	WaitPollInterval time.Duration `koanf:"wait_poll_interval"`
	WaitTimeout      time.Duration `koanf:"wait_timeout"`
}

// PaymentsConfig carries the business parameters of payment initiation:
// which currencies are accepted, the reference rates for international
// products and the per-payment ceiling.
type PaymentsConfig struct {
	BasePath              string `koanf:"base_path" validate:"required"`
	SupportedCurrencies   string `koanf:"supported_currencies" validate:"required"`
	ReferenceRates        string `koanf:"reference_rates"`
	MaxIndividualAmount   string `koanf:"max_individual_amount"`
	MaxIndividualCurrency string `koanf:"max_individual_currency"`
	ChargeAmount          string `koanf:"charge_amount"`
	ChargeCurrency        string `koanf:"charge_currency"`
}

// CurrencyList splits the comma-separated currency codes.
func (c PaymentsConfig) CurrencyList() []string {
	parts := strings.Split(c.SupportedCurrencies, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if code := strings.TrimSpace(p); code != "" {
			out = append(out, code)
		}
	}
	return out
}

// RatePairs parses reference rates of the form "GBP/EUR=1.1629,GBP/USD=1.2704"
// into a pair-to-rate map; rate parsing is left to the caller.
func (c PaymentsConfig) RatePairs() (map[string]string, error) {
	pairs := make(map[string]string)
	if strings.TrimSpace(c.ReferenceRates) == "" {
		return pairs, nil
	}
	for _, entry := range strings.Split(c.ReferenceRates, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		pair, rate, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("malformed reference rate %q, want PAIR=RATE", entry)
		}
		pairs[strings.TrimSpace(pair)] = strings.TrimSpace(rate)
	}
	return pairs, nil
}

type LoggerConfig struct {
	Level string `koanf:"level"`
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	err := k.Load(env.Provider("PISP_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "PISP_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}
