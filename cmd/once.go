package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/app"
	"github.com/JakeFAU/flat-crawler/internal/round"
)

// newOnceCmd creates the 'once' subcommand: a single round that publishes
// everything it extracts. It replaces a separate test mode.
func newOnceCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Runs a single round and publishes every extracted record",
		Long: `Runs exactly one round against an empty previous round, so every
complete record is new. The round report is printed as JSON to stderr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd.Context(), app.Options{DryRun: dryRun, Stdout: cmd.OutOrStdout()}, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print records to stdout instead of the configured transports")
	return cmd
}

func runOnce(ctx context.Context, opts app.Options, reportOut io.Writer) error {
	rt, err := resolveSession(ctx)
	if err != nil {
		return err
	}
	cfg := rt.cfg
	cfg.Round.PrimeFirstRound = false

	a, err := newApp(ctx, cfg, rt.logger, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize application services: %w", err)
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			rt.logger.Warn("failed to close services", zap.Error(cerr))
		}
	}()

	_, report, err := a.Runner().Run(ctx, round.State{})
	if err != nil {
		return fmt.Errorf("run round: %w", err)
	}
	enc := json.NewEncoder(reportOut)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if report.PublishError != "" {
		return fmt.Errorf("publish: %s", report.PublishError)
	}
	return nil
}
