package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bhdspro/pix-relay/metrics"
	"github.com/bhdspro/pix-relay/model"
	"github.com/bhdspro/pix-relay/observability/tracing"
	"github.com/bhdspro/pix-relay/provider"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	opCreateCharge = "create_charge"
	opChargeStatus = "charge_status"
)

type PaymentService struct {
	provider provider.Provider
	charge   func() model.ChargeRequest
}

type Option func(*PaymentService)

// WithChargeRequest replaces the builder of the charge sent on every
// create call.
func WithChargeRequest(charge func() model.ChargeRequest) Option {
	return func(s *PaymentService) {
		s.charge = charge
	}
}

func NewPaymentService(p provider.Provider, opts ...Option) *PaymentService {
	s := &PaymentService{provider: p, charge: model.DefaultChargeRequest}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PaymentService) ProviderName() string {
	return s.provider.Name()
}

func (s *PaymentService) SupportsWebhook() bool {
	return s.provider.SupportsWebhook()
}

// CreateCharge asks the provider for a new PIX charge with the fixed amount and
// returns it in the provider's response shape.
func (s *PaymentService) CreateCharge(ctx context.Context) (any, error) {
	req := s.charge()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid charge request: %w", err)
	}

	var result model.ChargeResult
	err := s.call(ctx, opCreateCharge, func(ctx context.Context) error {
		var err error
		result, err = s.provider.CreateCharge(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Charge created", slog.String("provider", s.provider.Name()), slog.String("chargeId", result.ID))
	return s.provider.Response(result), nil
}

func (s *PaymentService) ChargeStatus(ctx context.Context, chargeID string) (model.ChargeStatusResult, error) {
	var result model.ChargeStatusResult
	err := s.call(ctx, opChargeStatus, func(ctx context.Context) error {
		var err error
		result, err = s.provider.ChargeStatus(ctx, chargeID)
		return err
	}, attribute.String("charge.id", chargeID))
	if err != nil {
		return model.ChargeStatusResult{}, err
	}

	slog.DebugContext(ctx, "Charge status", slog.String("chargeId", chargeID), slog.String("status", result.Status))
	return result, nil
}

// call runs one provider operation inside a span and records its outcome.
func (s *PaymentService) call(ctx context.Context, operation string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	name := s.provider.Name()
	ctx, span := tracing.Tracer().Start(ctx, "provider."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs, attribute.String("provider.name", name))...),
	)
	defer span.End()

	slog.DebugContext(ctx, "Provider call started", slog.String("provider", name), slog.String("operation", operation))
	start := time.Now()
	err := fn(ctx)
	metrics.ObserveProviderCall(name, operation, time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.IncProviderCall(name, operation, metrics.OutcomeSuccess)
	case errors.Is(err, provider.ErrMissingCredential):
		metrics.IncProviderCall(name, operation, metrics.OutcomeMissingCredential)
		span.SetStatus(codes.Error, "credential not configured")
	default:
		metrics.IncProviderCall(name, operation, metrics.OutcomeUpstreamError)
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider call failed")
	}
	return err
}
