// cmd/fiscal-assistant/serve.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fiscal-assistant/internal/api"
	"fiscal-assistant/internal/common/observability"
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assistant over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			if port != "" {
				cfg.Server.Port = port
			}

			log := newLogger(cfg)
			defer log.Sync()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			shutdownTracer := observability.InitTracer(ctx, cfg.Observability, log)

			a, err := buildAssistant(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := api.New(cfg.Server, api.Dependencies{
				Sessions: a.sessions,
				Cache:    a.cache,
				Search:   a.es,
				Logger:   log,
			})

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Run()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-sigCh:
			}

			log.Info("Shutdown signal received, stopping server...", nil)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("Error stopping HTTP server", map[string]interface{}{"error": err.Error()})
			}
			if err := shutdownTracer(shutdownCtx); err != nil {
				log.Error("Error flushing traces", map[string]interface{}{"error": err.Error()})
			}

			log.Info("Server stopped gracefully", nil)
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "override server.port")
	return cmd
}
