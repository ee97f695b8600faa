package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/zerbin/internal/api"
	"github.com/Veraticus/zerbin/internal/certs"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long:  `Start the JSON API under /api/v1 and block until interrupted.`,
		RunE:  runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.tls.enabled", cmd.Flags().Lookup("tls"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := appConfig.Server

	return withApp(ctx, func(a *app) error {
		gin.SetMode(cfg.Mode)
		handlers := api.NewHandlers(a.reports, a.catalog, a.ledger, a.store, version)

		server := &http.Server{
			Addr:         cfg.Addr,
			Handler:      api.NewRouter(handlers),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		}

		if cfg.TLS.Enabled {
			cert, err := certs.NewManager(cfg.TLS.CertDir, cfg.TLS.Hosts...).Certificate()
			if err != nil {
				return fmt.Errorf("failed to prepare TLS certificate: %w", err)
			}
			server.TLSConfig = &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			}
		}

		errCh := make(chan error, 1)
		go func() {
			slog.Info("Starting HTTP server", "addr", cfg.Addr, "tls", cfg.TLS.Enabled)
			if cfg.TLS.Enabled {
				errCh <- server.ListenAndServeTLS("", "")
				return
			}
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server failed: %w", err)
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		slog.Info("Shutting down HTTP server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	})
}
