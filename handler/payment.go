package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bhdspro/pix-relay/model"
	"github.com/bhdspro/pix-relay/provider"

	"github.com/gorilla/mux"
)

const maxWebhookBody = 1 << 20

type PaymentService interface {
	ProviderName() string
	SupportsWebhook() bool
	CreateCharge(ctx context.Context) (any, error)
	ChargeStatus(ctx context.Context, chargeID string) (model.ChargeStatusResult, error)
}

type PaymentHandler struct {
	service PaymentService
}

func NewPaymentHandler(service PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// CreatePayment handles POST /create-payment. The request body is ignored.
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := h.service.ProviderName()

	resp, err := h.service.CreateCharge(ctx)
	if err != nil {
		if errors.Is(err, provider.ErrMissingCredential) {
			WriteErrorResponse(ctx, w, fmt.Sprintf("Token do %s não configurado no servidor.", name), err)
			return
		}
		WriteErrorResponse(ctx, w, fmt.Sprintf("Falha ao comunicar com o %s.", name), err)
		return
	}

	WriteSuccessResponse(ctx, w, resp)
}

// CheckPayment handles GET /check-payment/{id}.
func (h *PaymentHandler) CheckPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chargeID := mux.Vars(r)["id"]

	status, err := h.service.ChargeStatus(ctx, chargeID)
	if err != nil {
		if errors.Is(err, provider.ErrMissingCredential) {
			WriteErrorResponse(ctx, w, fmt.Sprintf("Token do %s não configurado.", h.service.ProviderName()), err)
			return
		}
		WriteErrorResponse(ctx, w, "Falha ao verificar o status do pagamento.", err, slog.String("chargeId", chargeID))
		return
	}

	WriteSuccessResponse(ctx, w, status)
}

// Webhook handles POST /webhook. Every callback is logged and acknowledged;
// nothing is verified.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	defer r.Body.Close()
	if err != nil {
		slog.WarnContext(ctx, "Webhook body could not be read", slog.Any("error", err))
	}

	if json.Valid(body) {
		slog.InfoContext(ctx, "Webhook received", slog.Any("body", json.RawMessage(body)))
	} else {
		slog.InfoContext(ctx, "Webhook received", slog.String("body", string(body)))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

// WebhookEnabled reports whether the configured provider posts callbacks to
// this relay.
func (h *PaymentHandler) WebhookEnabled() bool {
	return h.service.SupportsWebhook()
}

func (h *PaymentHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(r.Context(), w, map[string]any{
		"ok":       true,
		"service":  "pix-relay",
		"provider": h.service.ProviderName(),
		"ts":       time.Now().UTC().Format(time.RFC3339),
	})
}

// WriteErrorResponse logs err with full provider detail and sends the caller
// only message, always with status 500.
func WriteErrorResponse(ctx context.Context, w http.ResponseWriter, message string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.Any("error", err))

	var upstream *provider.UpstreamError
	if errors.As(err, &upstream) {
		attrs = append(attrs,
			slog.String("provider", upstream.Provider),
			slog.String("operation", upstream.Operation),
			slog.Int("providerStatus", upstream.StatusCode),
			slog.String("providerDetail", upstream.Detail()),
		)
	}
	slog.LogAttrs(ctx, slog.LevelError, message, attrs...)

	WriteJSON(ctx, w, http.StatusInternalServerError, model.ErrorResponse{Error: message})
}

func WriteSuccessResponse(ctx context.Context, w http.ResponseWriter, res any) {
	WriteJSON(ctx, w, http.StatusOK, res)
}

func WriteJSON(ctx context.Context, w http.ResponseWriter, status int, res any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.ErrorContext(ctx, "Failed to encode response", slog.Any("error", err))
	}
}
