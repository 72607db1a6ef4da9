// Package config loads settings from defaults, an optional YAML file,
// a .env file and EQUISENSE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log        Log        `mapstructure:"log"`
	Universe   Universe   `mapstructure:"universe"`
	Provider   Provider   `mapstructure:"provider"`
	Snapshot   Snapshot   `mapstructure:"snapshot"`
	Strategies Strategies `mapstructure:"strategies"`
	Display    Display    `mapstructure:"display"`
	Screen     Screen     `mapstructure:"screen"`
	Server     Server     `mapstructure:"server"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Universe locates the ticker master list.
type Universe struct {
	Path        string `mapstructure:"path"`
	CodeColumn  string `mapstructure:"code_column"`
	NameColumn  string `mapstructure:"name_column"`
	Suffix      string `mapstructure:"suffix"`
	DownloadURL string `mapstructure:"download_url"`
}

// Provider tunes the market-data lookups.
type Provider struct {
	Kind    string        `mapstructure:"kind"`
	Timeout time.Duration `mapstructure:"timeout"`
	Rate    float64       `mapstructure:"rate"`
	Workers int           `mapstructure:"workers"`
}

type Snapshot struct {
	Path string `mapstructure:"path"`
}

type Strategies struct {
	Path string `mapstructure:"path"`
}

type Display struct {
	Language    string `mapstructure:"language"`
	MaxColWidth int    `mapstructure:"max_col_width"`
}

// Screen holds the default common price range.
type Screen struct {
	MinPrice float64 `mapstructure:"min_price"`
	MaxPrice float64 `mapstructure:"max_price"`
}

type Server struct {
	Addr     string `mapstructure:"addr"`
	Schedule string `mapstructure:"schedule"`
}

const (
	ProviderYFinance     = "yfinance"
	ProviderQuoteSummary = "quotesummary"
)

// DefaultDownloadURL is the JPX listed-company master file.
const DefaultDownloadURL = "https://www.jpx.co.jp/markets/statistics-equities/misc/tvdivq0000001vg2-att/data_j.xls"

// SetDefaults registers every key with its default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("universe.path", "tosho_list.xlsx")
	v.SetDefault("universe.code_column", "コード")
	v.SetDefault("universe.name_column", "銘柄名")
	v.SetDefault("universe.suffix", ".T")
	v.SetDefault("universe.download_url", DefaultDownloadURL)

	v.SetDefault("provider.kind", ProviderYFinance)
	v.SetDefault("provider.timeout", 15*time.Second)
	v.SetDefault("provider.rate", 4.0)
	v.SetDefault("provider.workers", 4)

	v.SetDefault("snapshot.path", "all_stock_data.parquet")
	v.SetDefault("strategies.path", "")

	v.SetDefault("display.language", "en")
	v.SetDefault("display.max_col_width", 40)

	v.SetDefault("screen.min_price", 0.0)
	v.SetDefault("screen.max_price", 50000.0)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.schedule", "0 0 18 * * MON-FRI")
}

// Load reads configuration. An explicit file must exist; without one,
// ./equisense.yaml is used when present.
func Load(v *viper.Viper, file string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix("EQUISENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("equisense")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that would make every command fail later.
func (c *Config) Validate() error {
	switch c.Provider.Kind {
	case ProviderYFinance, ProviderQuoteSummary:
	default:
		return fmt.Errorf("config: provider.kind %q: want %s or %s", c.Provider.Kind, ProviderYFinance, ProviderQuoteSummary)
	}
	if c.Provider.Workers < 1 {
		return fmt.Errorf("config: provider.workers must be >= 1, got %d", c.Provider.Workers)
	}
	if c.Provider.Rate < 0 {
		return fmt.Errorf("config: provider.rate must be >= 0, got %g", c.Provider.Rate)
	}
	if c.Screen.MinPrice > c.Screen.MaxPrice {
		return fmt.Errorf("config: screen.min_price %g > screen.max_price %g", c.Screen.MinPrice, c.Screen.MaxPrice)
	}
	if strings.TrimSpace(c.Snapshot.Path) == "" {
		return errors.New("config: snapshot.path is empty")
	}
	return nil
}
