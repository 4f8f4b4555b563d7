package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DevRickLin/micropost-notify/internal/api"
	"github.com/DevRickLin/micropost-notify/internal/service"
)

// serveCmd runs the HTTP API and the digest runner
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (and digest delivery when Feishu is configured)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.uc.Digest.IsDeliveryEnabled() {
		runner := service.NewDigestRunner(a.uc.Digest, cfg.Digest.Interval, logger)
		runner.Start(ctx)
		defer runner.Stop()
	} else {
		logger.Info("Feishu not configured, digest delivery disabled")
	}

	apiServer := api.NewServer(a.uc, cfg.HTTP.Addr, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("HTTP shutdown failed", zap.Error(err))
	}
	return <-errCh
}
