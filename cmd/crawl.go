package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/app"
	"github.com/JakeFAU/flat-crawler/internal/round"
)

// newCrawlCmd creates the 'crawl' subcommand: rounds forever until SIGINT/SIGTERM.
func newCrawlCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Runs crawl rounds until interrupted",
		Long: `Runs one crawl round per interval. The first round only primes the
previous-round state unless round.prime_first_round is false. When
server.enabled is set, the operations API is served alongside.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd.Context(), app.Options{DryRun: dryRun, Stdout: cmd.OutOrStdout()})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print records to stdout instead of the configured transports")
	return cmd
}

func runCrawl(parent context.Context, opts app.Options) error {
	rt, err := resolveSession(parent)
	if err != nil {
		return err
	}
	logger := rt.logger

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, rt.cfg, logger, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize application services: %w", err)
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Warn("failed to close services", zap.Error(cerr))
		}
	}()

	var srv *http.Server
	if rt.cfg.Server.Enabled {
		srv = &http.Server{
			Addr:              fmt.Sprintf(":%d", rt.cfg.Server.Port),
			Handler:           a.Server().Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("http server started", zap.Int("port", rt.cfg.Server.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", zap.Error(err))
				stop()
			}
		}()
	}

	logger.Info("crawl loop started", zap.Duration("interval", rt.cfg.Round.Interval()))
	loopErr := a.Runner().Loop(ctx, round.State{})
	logger.Info("shutdown initiated")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", zap.Error(err))
		}
	}
	if loopErr != nil {
		return fmt.Errorf("run crawl loop: %w", loopErr)
	}
	return nil
}
