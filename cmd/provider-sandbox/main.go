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

	"github.com/bhdspro/pix-relay/observability"
	"github.com/bhdspro/pix-relay/sandbox"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "provider-sandbox"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.ErrorContext(ctx, "Error loading .env file", slog.Any("error", err))
		return
	}

	shutdown, err := observability.SetupOpenTelemetry(ctx, observability.Options{
		ServiceName: serviceName,
		Level:       slog.LevelInfo,
		Telemetry:   os.Getenv("OTEL_ENABLED") == "true",
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

	router := gin.Default()
	router.Use(otelgin.Middleware(serviceName))
	sandbox.New().Register(router)

	port := os.Getenv("SANDBOX_PORT")
	if port == "" {
		port = "8082"
	}
	srv := &http.Server{Addr: ":" + port, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.InfoContext(ctx, "Sandbox started", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
