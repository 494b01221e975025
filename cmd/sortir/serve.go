package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sortir-backend/internal/bootstrap"
	"sortir-backend/internal/shared/server"
	"sortir-backend/internal/shared/telemetry"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := bootstrap.Build(ctx, cfg, bootstrap.Overrides{})
		if err != nil {
			return err
		}
		defer app.Close()

		srv := &http.Server{
			Addr:              server.Addr(cfg.Port),
			Handler:           app.Router,
			ReadHeaderTimeout: 10 * time.Second,
			// Ask requests wait on the LLM gateway.
			WriteTimeout: cfg.LLMTimeout + 30*time.Second,
			IdleTimeout:  60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			telemetry.Info("server.start", map[string]any{"addr": srv.Addr, "env": cfg.Env})
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		telemetry.Info("server.shutdown", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
