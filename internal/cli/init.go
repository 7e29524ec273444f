// Package cli builds the budget command line: the API server, offline
// reports over the demo data and a tail of the change feed.
//
// This file holds the initialization shared by every command.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"budget/internal/config"
	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/mockdata"
)

// LoadConfig loads envFile, or .env when empty, then resolves and validates
// the configuration held by v.
func LoadConfig(v *viper.Viper, envFile string) (*config.Config, error) {
	var paths []string
	if envFile != "" {
		paths = append(paths, envFile)
	}
	if err := config.LoadEnvFile(paths...); err != nil {
		return nil, err
	}

	cfg := config.FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the configured logger writing to w and sets it as the default logger.
func SetupLogger(cfg *config.Config, w io.Writer) *applog.Logger {
	logger := cfg.LoggerTo(w)
	applog.SetDefault(logger)
	return logger
}

// SeedAccounts generates the demo accounts. A zero seed is replaced by one
// derived from now; the seed actually used is returned.
func SeedAccounts(cfg *config.Config, now time.Time) ([]core.Account, uint64) {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(now.UnixNano())
	}
	gen := mockdata.Generator{Seed: seed, Now: now}
	return gen.Accounts(cfg.SeedMonths), seed
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
func GracefulShutdown(parent context.Context, logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func parseMonth(s string, now time.Time) (int, time.Month, error) {
	if s == "" {
		return now.Year(), now.Month(), nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q, want YYYY-MM", core.ErrInvalidMonth, s)
	}
	return t.Year(), t.Month(), nil
}
