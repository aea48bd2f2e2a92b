package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/polkiloo/payledger/internal/config"
	"github.com/polkiloo/payledger/internal/di"
)

// Version is set at build time.
var Version = "dev"

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "payledgerctl",
		Short:         "Operator tooling for the payledger service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringP("database-uri", "d", "", "PostgreSQL connection string (DATABASE_URI)")
	flags.String("log-level", "", "log level (LOG_LEVEL)")
	flags.String("app-env", "", "environment name (APP_ENV)")
	_ = v.BindPFlag("DATABASE_URI", flags.Lookup("database-uri"))
	_ = v.BindPFlag("LOG_LEVEL", flags.Lookup("log-level"))
	_ = v.BindPFlag("APP_ENV", flags.Lookup("app-env"))

	root.AddCommand(
		newMigrateCmd(v),
		newPurgeCmd(v),
		newReconcileCmd(v),
		newProductCmd(v),
		newUserCmd(v),
	)
	return root
}

// lookupFrom resolves configuration keys through viper first, which covers
// bound flags and the environment, and falls back to the process environment.
func lookupFrom(v *viper.Viper) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v.IsSet(key) {
			if val := v.GetString(key); val != "" {
				return val, true
			}
		}
		return os.LookupEnv(key)
	}
}

func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.LoadWith(lookupFrom(v))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// startCore boots the storage and use case graph and fills targets. The
// returned stop function must be called once the command is done.
func startCore(ctx context.Context, cfg *config.Config, targets ...any) (func(), error) {
	cfg.AutoMigrate = false
	app := fx.New(
		fx.NopLogger,
		fx.Provide(func() context.Context { return ctx }),
		di.Core(fx.Replace(cfg)),
		fx.Populate(targets...),
	)
	if err := app.Err(); err != nil {
		return nil, err
	}
	if err := app.Start(ctx); err != nil {
		return nil, err
	}
	return func() { _ = app.Stop(context.WithoutCancel(ctx)) }, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
