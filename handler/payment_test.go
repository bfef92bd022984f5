package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bhdspro/pix-relay/model"
	"github.com/bhdspro/pix-relay/observability"
	"github.com/bhdspro/pix-relay/provider"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPaymentService struct {
	mock.Mock
	name    string
	webhook bool
}

func (m *MockPaymentService) ProviderName() string { return m.name }

func (m *MockPaymentService) SupportsWebhook() bool { return m.webhook }

func (m *MockPaymentService) CreateCharge(ctx context.Context) (any, error) {
	args := m.Called(ctx)
	return args.Get(0), args.Error(1)
}

func (m *MockPaymentService) ChargeStatus(ctx context.Context, chargeID string) (model.ChargeStatusResult, error) {
	args := m.Called(ctx, chargeID)
	return args.Get(0).(model.ChargeStatusResult), args.Error(1)
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreatePayment_Success(t *testing.T) {
	svc := &MockPaymentService{name: "PagSeguro"}
	svc.On("CreateCharge", mock.Anything).
		Return(model.OrderResponse{OrderID: "ORD1", QRCodeText: "00020126..."}, nil)

	rec := httptest.NewRecorder()
	NewPaymentHandler(svc).CreatePayment(rec, httptest.NewRequest(http.MethodPost, "/create-payment", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"orderId":"ORD1","qrCodeText":"00020126..."}`, rec.Body.String())
}

func TestCreatePayment_MissingCredential(t *testing.T) {
	captureLogs(t)
	svc := &MockPaymentService{name: "PagSeguro"}
	svc.On("CreateCharge", mock.Anything).Return(nil, provider.ErrMissingCredential)

	rec := httptest.NewRecorder()
	NewPaymentHandler(svc).CreatePayment(rec, httptest.NewRequest(http.MethodPost, "/create-payment", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"error": "Token do PagSeguro não configurado no servidor."}, decodeBody(t, rec))
}

func TestCreatePayment_UpstreamErrorIsNotLeaked(t *testing.T) {
	logs := captureLogs(t)
	raw := `{"error_messages":[{"code":"40002","description":"invalid_parameter"}]}`
	svc := &MockPaymentService{name: "PagSeguro"}
	svc.On("CreateCharge", mock.Anything).Return(nil, &provider.UpstreamError{
		Provider: "PagSeguro", Operation: "create order", StatusCode: http.StatusBadRequest, Body: raw,
	})

	rec := httptest.NewRecorder()
	NewPaymentHandler(svc).CreatePayment(rec, httptest.NewRequest(http.MethodPost, "/create-payment", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"error": "Falha ao comunicar com o PagSeguro."}, decodeBody(t, rec))
	assert.NotContains(t, rec.Body.String(), "invalid_parameter")

	assert.Contains(t, logs.String(), "invalid_parameter")
	assert.Contains(t, logs.String(), `"providerStatus":400`)
}

func TestCreatePayment_AsaasMessage(t *testing.T) {
	captureLogs(t)
	svc := &MockPaymentService{name: "Asaas"}
	svc.On("CreateCharge", mock.Anything).Return(nil, &provider.UpstreamError{Provider: "Asaas", Operation: "create customer"})

	rec := httptest.NewRecorder()
	NewPaymentHandler(svc).CreatePayment(rec, httptest.NewRequest(http.MethodPost, "/create-payment", nil))

	assert.Equal(t, map[string]any{"error": "Falha ao comunicar com o Asaas."}, decodeBody(t, rec))
}

func checkPayment(h *PaymentHandler, id string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/check-payment/"+id, nil)
	req = mux.SetURLVars(req, map[string]string{"id": id})
	rec := httptest.NewRecorder()
	h.CheckPayment(rec, req)
	return rec
}

func TestCheckPayment(t *testing.T) {
	svc := &MockPaymentService{name: "PagSeguro"}
	svc.On("ChargeStatus", mock.Anything, "ORD1").Return(model.ChargeStatusResult{Status: "PAID"}, nil)
	svc.On("ChargeStatus", mock.Anything, "ORD2").Return(model.ChargeStatusResult{Status: "WAITING"}, nil)
	h := NewPaymentHandler(svc)

	rec := checkPayment(h, "ORD1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"PAID"}`, rec.Body.String())

	rec = checkPayment(h, "ORD2")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"WAITING"}`, rec.Body.String())
}

func TestCheckPayment_Errors(t *testing.T) {
	logs := captureLogs(t)
	svc := &MockPaymentService{name: "PagSeguro"}
	svc.On("ChargeStatus", mock.Anything, "ORD1").Return(model.ChargeStatusResult{}, provider.ErrMissingCredential)
	svc.On("ChargeStatus", mock.Anything, "ORD404").Return(model.ChargeStatusResult{}, &provider.UpstreamError{
		Provider: "PagSeguro", Operation: "get order", StatusCode: http.StatusNotFound, Body: `{"error":"not found"}`,
	})
	h := NewPaymentHandler(svc)

	rec := checkPayment(h, "ORD1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"error": "Token do PagSeguro não configurado."}, decodeBody(t, rec))

	rec = checkPayment(h, "ORD404")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"error": "Falha ao verificar o status do pagamento."}, decodeBody(t, rec))
	assert.NotContains(t, rec.Body.String(), "ORD404")
	assert.Contains(t, logs.String(), "ORD404")
}

func TestWebhook_AlwaysOK(t *testing.T) {
	logs := captureLogs(t)
	h := NewPaymentHandler(&MockPaymentService{name: "Asaas", webhook: true})

	bodies := []string{
		`{"event":"PAYMENT_RECEIVED","payment":{"id":"pay_1"}}`,
		`[]`,
		`not json at all`,
		``,
	}
	for _, body := range bodies {
		rec := httptest.NewRecorder()
		h.Webhook(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	}
	assert.Contains(t, logs.String(), "PAYMENT_RECEIVED")
	assert.Contains(t, logs.String(), "not json at all")
}

func TestWebhook_ScrubsCredential(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var logs bytes.Buffer
	observability.SetupLogging(observability.Options{Level: slog.LevelInfo, Secrets: []string{"tok-123"}, Output: &logs})

	h := NewPaymentHandler(&MockPaymentService{name: "Asaas", webhook: true})
	for _, body := range []string{`{"k":"tok-123"}`, `raw tok-123`} {
		rec := httptest.NewRecorder()
		h.Webhook(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	assert.NotContains(t, logs.String(), "tok-123")
	assert.Contains(t, logs.String(), `"body":{"k":"[REDACTED]"}`)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewPaymentHandler(&MockPaymentService{name: "Asaas"}).Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "Asaas", body["provider"])
}
