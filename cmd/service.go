package cmd

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/isometry/calendly-webhook/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func cmdService() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "service",
		Aliases: []string{"s", "serve", "standalone", "server"},
		Short:   "Serve the webhook over HTTP",
		RunE:    runService,
	}
	bindEnvMap(cmd, svcEnvMapString)
	bindEnvMap(cmd, svcEnvMapDuration)
	bindEnvMap(cmd, svcEnvMapInt64)
	bindEnvMap(cmd, svcEnvMapFloat64)
	return cmd
}

func runService(cmd *cobra.Command, _ []string) error {
	logger.Info("spawning...")

	ctx := cmd.Context()
	rt, store, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	logger.Debug("creating HTTP server...")
	s := &http.Server{
		Handler:      rt.Router(),
		Addr:         net.JoinHostPort(config.Service.Addr, config.Service.Port),
		WriteTimeout: config.Service.Timeout,
		ReadTimeout:  config.Service.Timeout,
		IdleTimeout:  config.Service.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving...", "address", s.Addr, "path", config.Service.Path, "timeout", config.Service.Timeout.String())
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "server shutdown failed")
		}
		return nil
	case err := <-errCh:
		return errors.Wrap(err, "server error")
	}
}
