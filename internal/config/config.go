// Package config resolves the application settings from defaults, an optional
// .env file, environment variables and command line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	applog "budget/internal/log"
)

// Keys double as environment variable names.
const (
	KeyPort               = "PORT"
	KeyLogLevel           = "LOG_LEVEL"
	KeyLogFormat          = "LOG_FORMAT"
	KeySeed               = "SEED"
	KeySeedMonths         = "SEED_MONTHS"
	KeyStrictBalances     = "STRICT_BALANCES"
	KeyCacheSize          = "CACHE_SIZE"
	KeyCacheTTL           = "CACHE_TTL"
	KeyRateLimitPerMinute = "RATE_LIMIT_PER_MINUTE"
	KeyTrustedProxies     = "TRUSTED_PROXIES"
	KeyAMQPURL            = "AMQP_URL"
	KeyAMQPExchange       = "AMQP_EXCHANGE"
	KeyAMQPQueue          = "AMQP_QUEUE"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	// TrustedProxies lists CIDRs, on top of loopback and private networks,
	// whose forwarding headers are believed.
	TrustedProxies []string

	// Logging
	LogLevel  string
	LogFormat string

	// Seed data. A zero Seed picks a time based one.
	Seed       uint64
	SeedMonths int

	// Store
	StrictBalances bool

	// Stats cache
	CacheSize int
	CacheTTL  time.Duration

	// AMQP change feed, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

var defaults = map[string]any{
	KeyPort:               "8081",
	KeyLogLevel:           "info",
	KeyLogFormat:          "text",
	KeySeed:               uint64(0),
	KeySeedMonths:         36,
	KeyStrictBalances:     false,
	KeyCacheSize:          256,
	KeyCacheTTL:           5 * time.Minute,
	KeyRateLimitPerMinute: 60,
	KeyTrustedProxies:     "",
	KeyAMQPURL:            "",
	KeyAMQPExchange:       "budget",
	KeyAMQPQueue:          "budget_changes",
}

// NewViper returns a viper instance carrying every default and reading the environment.
func NewViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	return v
}

// LoadEnvFile loads a .env file for local development. A missing file is not an error.
func LoadEnvFile(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load resolves the configuration from the environment only.
func Load() *Config {
	return FromViper(NewViper())
}

// FromViper reads every key from v.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port:               v.GetString(KeyPort),
		RateLimitPerMinute: v.GetInt(KeyRateLimitPerMinute),
		TrustedProxies:     splitList(v.GetString(KeyTrustedProxies)),
		LogLevel:           v.GetString(KeyLogLevel),
		LogFormat:          v.GetString(KeyLogFormat),
		Seed:               v.GetUint64(KeySeed),
		SeedMonths:         v.GetInt(KeySeedMonths),
		StrictBalances:     v.GetBool(KeyStrictBalances),
		CacheSize:          v.GetInt(KeyCacheSize),
		CacheTTL:           v.GetDuration(KeyCacheTTL),
		AMQPURL:            v.GetString(KeyAMQPURL),
		AMQPExchange:       v.GetString(KeyAMQPExchange),
		AMQPQueue:          v.GetString(KeyAMQPQueue),
	}
}

// splitList splits a comma separated value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if !applog.ValidFormat(c.LogFormat) {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.SeedMonths < 0 || c.SeedMonths > 120 {
		errs = append(errs, fmt.Sprintf("invalid seed months %d: must be between 0 and 120", c.SeedMonths))
	}

	if c.CacheSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < time.Second {
		errs = append(errs, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	} else if c.CacheTTL > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid cache TTL %v: must be at most 24 hours", c.CacheTTL))
	}

	if c.RateLimitPerMinute < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errs = append(errs, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// Logger builds the application logger described by the configuration.
// Call Validate first; an unknown level falls back to info.
func (c *Config) Logger() *applog.Logger {
	return c.LoggerTo(os.Stdout)
}

// LoggerTo is Logger writing to w.
func (c *Config) LoggerTo(w io.Writer) *applog.Logger {
	level, _ := applog.ParseLevel(c.LogLevel)
	cfg := applog.DefaultConfig()
	cfg.Level = level
	cfg.Format = c.LogFormat
	cfg.Output = w
	return applog.New(cfg)
}
