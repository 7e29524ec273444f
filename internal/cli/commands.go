package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"budget/internal/config"
	"budget/internal/events"
	applog "budget/internal/log"
)

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"port":            config.KeyPort,
	"log-level":       config.KeyLogLevel,
	"log-format":      config.KeyLogFormat,
	"seed":            config.KeySeed,
	"seed-months":     config.KeySeedMonths,
	"strict-balances": config.KeyStrictBalances,
	"cache-size":      config.KeyCacheSize,
	"cache-ttl":       config.KeyCacheTTL,
	"rate-limit":      config.KeyRateLimitPerMinute,
	"trusted-proxies": config.KeyTrustedProxies,
	"amqp-url":        config.KeyAMQPURL,
	"amqp-exchange":   config.KeyAMQPExchange,
	"amqp-queue":      config.KeyAMQPQueue,
}

// runtime is resolved once per invocation, before any command runs.
type runtime struct {
	v      *viper.Viper
	now    func() time.Time
	cfg    *config.Config
	logger *applog.Logger
}

// NewRootCommand returns the budget command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(time.Now)
}

func newRootCommand(now func() time.Time) *cobra.Command {
	rt := &runtime{v: config.NewViper(), now: now}

	root := &cobra.Command{
		Use:   "budget",
		Short: "Track accounts, transactions and balances",
		Long: `Budget keeps bank and savings accounts in memory, seeded with demo data,
and serves their balances and spending distribution over a JSON API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("env-file", "", "dotenv file to load (default .env)")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.String("log-format", "text", "log format: text or json")
	pf.Uint64("seed", 0, "demo data seed, 0 picks a time based one")
	pf.Int("seed-months", 36, "months of demo history to generate")
	pf.Bool("strict-balances", false, "reject transactions leaving a savings account negative")

	root.AddCommand(
		newServeCommand(rt),
		newReportCommand(rt),
		newEventsCommand(rt),
	)
	return root
}

func (rt *runtime) init(cmd *cobra.Command) error {
	if err := bindFlags(rt.v, cmd.Flags()); err != nil {
		return err
	}
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := LoadConfig(rt.v, envFile)
	if err != nil {
		return err
	}
	rt.cfg = cfg
	rt.logger = SetupLogger(cfg, cmd.ErrOrStderr()).WithComponent(applog.ComponentCLI)
	return nil
}

// bindFlags binds the flags of the running command only, so commands sharing
// a flag name do not steal each other's binding.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		if bindErr := v.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("bind flag %s: %w", f.Name, bindErr)
		}
	})
	return err
}

func addAMQPFlags(flags *pflag.FlagSet) {
	flags.String("amqp-url", "", "AMQP broker URL, empty disables the change feed")
	flags.String("amqp-exchange", "budget", "AMQP exchange name")
	flags.String("amqp-queue", "budget_changes", "AMQP queue name")
}

func newServeCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := GracefulShutdown(cmd.Context(), rt.logger)
			defer cancel()

			publisher, closePublisher := rt.publisher()
			defer closePublisher()

			app, err := NewApp(rt.cfg, rt.logger, publisher, rt.now())
			if err != nil {
				return err
			}
			return app.Serve(ctx, app.NewServer())
		},
	}

	flags := cmd.Flags()
	flags.String("port", "8081", "HTTP listen port")
	flags.Int("rate-limit", 60, "mutating requests allowed per client and minute")
	flags.String("trusted-proxies", "", "comma separated CIDRs whose X-Forwarded-For is trusted")
	flags.Int("cache-size", 256, "entries per projection cache")
	flags.Duration("cache-ttl", 5*time.Minute, "projection cache TTL")
	addAMQPFlags(flags)
	return cmd
}

// publisher connects to the broker when one is configured. A broker that
// cannot be reached disables the feed instead of failing the server.
func (rt *runtime) publisher() (events.Publisher, func()) {
	if rt.cfg.AMQPURL == "" {
		return events.Nop{}, func() {}
	}
	client, err := events.NewClient(rt.cfg.AMQPURL, rt.cfg.AMQPExchange, rt.cfg.AMQPQueue)
	if err != nil {
		rt.logger.Warn("Change feed disabled", "error", err)
		return events.Nop{}, func() {}
	}
	rt.logger.Info("Change feed enabled", "exchange", rt.cfg.AMQPExchange, "queue", rt.cfg.AMQPQueue)
	return client, func() { _ = client.Close() }
}

func newEventsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the change feed",
	}

	tail := &cobra.Command{
		Use:   "tail",
		Short: "Print change events as they are published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := GracefulShutdown(cmd.Context(), rt.logger)
			defer cancel()
			return rt.tail(ctx, cmd)
		},
	}
	addAMQPFlags(tail.Flags())

	cmd.AddCommand(tail)
	return cmd
}

func (rt *runtime) tail(ctx context.Context, cmd *cobra.Command) error {
	if rt.cfg.AMQPURL == "" {
		return fmt.Errorf("%s is required to tail the change feed", config.KeyAMQPURL)
	}
	client, err := events.NewClient(rt.cfg.AMQPURL, rt.cfg.AMQPExchange, rt.cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	err = client.Consume(ctx, func(ctx context.Context, e events.Event) error {
		data, err := e.ToJSON()
		if err != nil {
			return err
		}
		rt.logger.DebugContext(ctx, "Change event received",
			applog.FieldKind, e.Kind,
			applog.FieldAccountID, e.AccountID)
		_, err = fmt.Fprintln(out, string(data))
		return err
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}
