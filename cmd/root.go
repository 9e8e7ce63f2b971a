// Package cmd defines and implements the CLI commands for the flatcrawler executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/app"
	"github.com/JakeFAU/flat-crawler/internal/config"
	"github.com/JakeFAU/flat-crawler/internal/logging"
)

// sessionKeyType is the key for storing the loaded session in the context.
type sessionKeyType string

const sessionKey sessionKeyType = "session"

// session is what PersistentPreRunE hands to the subcommands.
type session struct {
	cfg    config.Config
	logger *zap.Logger
}

// newApp is the application factory. It's a variable so tests can swap it.
var newApp = app.New

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string
	var envFile string

	cmd := &cobra.Command{
		Use:   "flatcrawler",
		Short: "Polls rental listing sites and publishes newly seen flats.",
		Long: `flatcrawler crawls a fixed set of listing pages every round, extracts one
record per listing, drops everything already seen in the previous round,
geocodes the rest and hands them to the configured transports.`,
		SilenceUsage: true,

		// Runs before every subcommand: env file, config, logger.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load env file %s: %w", envFile, err)
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(logging.Config{
				Development: cfg.Logging.Development,
				Level:       cfg.Logging.Level,
			})
			if err != nil {
				return fmt.Errorf("logger init failed: %w", err)
			}
			zap.ReplaceGlobals(logger)
			cmd.SetContext(context.WithValue(cmd.Context(), sessionKey, &session{cfg: cfg, logger: logger}))
			return nil
		},

		// Flushes the logger once the subcommand returns.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if rt, ok := cmd.Context().Value(sessionKey).(*session); ok && rt != nil {
				// Sync fails on terminals; nothing useful to do about it.
				_ = rt.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, TOML or JSON)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newOnceCmd())
	cmd.AddCommand(newTargetsCmd())

	return cmd
}

func resolveSession(ctx context.Context) (*session, error) {
	rt, ok := ctx.Value(sessionKey).(*session)
	if !ok || rt == nil {
		return nil, errors.New("configuration not loaded")
	}
	return rt, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "flatcrawler: %v\n", err)
		os.Exit(1)
	}
}
