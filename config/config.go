// Package config loads runtime settings from an optional config file, a .env
// file and SALESQUOTE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const envPrefix = "SALESQUOTE"

// DefaultTerms are printed on the cover letter when quote.terms is unset.
var DefaultTerms = []string{
	"The prices are works Alandi, Pune basis.",
	"GST @ 18% extra as applicable.",
	"Delivery: 3-4 weeks from the date of PO.",
	"Validity: 10 days from the date of quotation.",
	"Payment: 50% advance along with PO, balance before dispatch.",
}

// Company is the letterhead printed on exported documents.
type Company struct {
	Name      string
	Address   string
	Pin       string
	Email     string
	Phone     string
	Signatory string
}

type Config struct {
	LogLevel  string
	LogPretty bool

	Company   Company
	RefPrefix string
	Terms     []string

	// FastPathStages lists the stages whose queue resolution may short-cut
	// on a matching revision-0 primary record.
	FastPathStages []string
	Concurrency    int

	CacheSize      int
	CacheTTL       time.Duration
	CachePurgeCron string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("company.name", "SKG Engineering")
	v.SetDefault("company.address", "Alandi, Pune")
	v.SetDefault("company.pin", "412105")
	v.SetDefault("company.email", "")
	v.SetDefault("company.phone", "")
	v.SetDefault("company.signatory", "Authorised Signatory")
	v.SetDefault("quote.ref_prefix", "SKG")
	v.SetDefault("quote.terms", DefaultTerms)
	v.SetDefault("resolver.fast_path_stages", []string{})
	v.SetDefault("resolver.concurrency", 8)
	v.SetDefault("cache.size", 256)
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.purge_cron", "0 * * * *")
}

// Load reads configuration. path may be empty, in which case only defaults,
// .env and the environment are consulted. A missing .env is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{
		LogLevel:  v.GetString("log.level"),
		LogPretty: v.GetBool("log.pretty"),
		Company: Company{
			Name:      v.GetString("company.name"),
			Address:   v.GetString("company.address"),
			Pin:       v.GetString("company.pin"),
			Email:     v.GetString("company.email"),
			Phone:     v.GetString("company.phone"),
			Signatory: v.GetString("company.signatory"),
		},
		RefPrefix:      v.GetString("quote.ref_prefix"),
		Terms:          v.GetStringSlice("quote.terms"),
		FastPathStages: v.GetStringSlice("resolver.fast_path_stages"),
		Concurrency:    v.GetInt("resolver.concurrency"),
		CacheSize:      v.GetInt("cache.size"),
		CacheTTL:       v.GetDuration("cache.ttl"),
		CachePurgeCron: v.GetString("cache.purge_cron"),
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.CacheSize < 1 {
		return nil, fmt.Errorf("config: cache.size must be positive, got %d", cfg.CacheSize)
	}
	return cfg, nil
}

// FastPath reports whether the named stage has the revision-0 short-cut
// enabled.
func (c *Config) FastPath(stage string) bool {
	for _, s := range c.FastPathStages {
		if strings.EqualFold(strings.TrimSpace(s), stage) {
			return true
		}
	}
	return false
}

// NewLogger builds the process logger. Unknown levels fall back to info.
func NewLogger(cfg *Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	if cfg.LogPretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "salesquote").Logger()
}
