package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bhdspro/pix-relay/config"
	"github.com/bhdspro/pix-relay/handler"
	"github.com/bhdspro/pix-relay/model"
	"github.com/bhdspro/pix-relay/observability"
	"github.com/bhdspro/pix-relay/provider"
	"github.com/bhdspro/pix-relay/router"
	"github.com/bhdspro/pix-relay/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	p, err := provider.New(cfg)
	if err != nil {
		slog.ErrorContext(ctx, "Error creating provider", slog.Any("error", err))
		os.Exit(1)
	}

	shutdown, err := observability.SetupOpenTelemetry(ctx, observability.Options{
		ServiceName: "pix-relay",
		Level:       cfg.LogLevel,
		Secrets:     []string{cfg.Credential},
		Telemetry:   cfg.OtelEnabled,
	})
	if err != nil {
		slog.ErrorContext(ctx, "error setting up OpenTelemetry", slog.Any("error", err))
	}
	if shutdown != nil {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.ErrorContext(ctx, "error during shutdown", slog.Any("error", err))
			}
		}()
	}

	if cfg.Credential == "" {
		slog.WarnContext(ctx, "Provider credential not configured; payment requests will fail",
			slog.String("provider", string(cfg.Provider)),
			slog.String("env", cfg.CredentialVar()))
	}

	var opts []service.Option
	if cfg.Mode == config.ModeSandbox {
		opts = append(opts, service.WithChargeRequest(model.SandboxChargeRequest))
	}
	paymentHandler := handler.NewPaymentHandler(service.NewPaymentService(p, opts...))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.New(cfg.AllowedOrigin, paymentHandler),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.Timeout*3 + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "Server started",
			slog.String("addr", srv.Addr),
			slog.String("provider", p.Name()),
			slog.String("mode", string(cfg.Mode)),
			slog.String("allowedOrigin", cfg.AllowedOrigin))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
