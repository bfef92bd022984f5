package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/bhdspro/pix-relay/observability/logging"

	slogotel "github.com/remychantenay/slog-otel"
	"go.opentelemetry.io/contrib/exporters/autoexport"
	"go.opentelemetry.io/contrib/propagators/autoprop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const defaultServiceName = "pix-relay"

type Options struct {
	// ServiceName is used when OTEL_SERVICE_NAME is unset.
	ServiceName string
	Level       slog.Level
	// Secrets are scrubbed from every log line.
	Secrets []string
	// Telemetry enables OpenTelemetry trace and metric export. Logging is
	// always configured.
	Telemetry bool
	Output    io.Writer
}

// SetupLogging installs the default JSON logger. Records are bridged to the
// active span by slog-otel and carry trace ids.
func SetupLogging(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	handler := logging.HandlerWithSpanContext(slogotel.OtelHandler{
		Next: slog.NewJSONHandler(out, &slog.HandlerOptions{Level: opts.Level}),
	}, opts.Secrets...)

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func SetupOpenTelemetry(ctx context.Context, opts Options) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error

	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	SetupLogging(opts)
	otel.SetTextMapPropagator(autoprop.NewTextMapPropagator())

	if !opts.Telemetry {
		return shutdown, nil
	}

	serviceName := os.Getenv("OTEL_SERVICE_NAME")
	if serviceName == "" {
		serviceName = opts.ServiceName
	}
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)

	tExporter, err := autoexport.NewSpanExporter(ctx)
	if err != nil {
		err = errors.Join(err, shutdown(ctx))
		return
	}
	tp := trace.NewTracerProvider(
		trace.WithBatcher(tExporter),
		trace.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	otel.SetTracerProvider(tp)

	mReader, err := autoexport.NewMetricReader(ctx)
	if err != nil {
		err = errors.Join(err, shutdown(ctx))
		return
	}
	mp := metric.NewMeterProvider(
		metric.WithReader(mReader),
		metric.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, mp.Shutdown)
	otel.SetMeterProvider(mp)

	return shutdown, nil
}
