package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bhdspro/pix-relay/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	asaasBillingTypePix = "PIX"
	asaasDueDateLayout  = "2006-01-02"

	// AsaasDueWindow is how far ahead of creation a PIX payment falls due.
	AsaasDueWindow = 24 * time.Hour
)

type asaasCustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	CpfCnpj string `json:"cpfCnpj"`
}

type asaasCustomer struct {
	ID string `json:"id"`
}

type asaasPaymentRequest struct {
	Customer          string      `json:"customer"`
	BillingType       string      `json:"billingType"`
	Value             json.Number `json:"value"`
	DueDate           string      `json:"dueDate"`
	Description       string      `json:"description"`
	ExternalReference string      `json:"externalReference"`
}

type asaasPayment struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	PixQrCode string `json:"pixQrCode"`
}

type asaasPixQrCode struct {
	EncodedImage string `json:"encodedImage"`
	Payload      string `json:"payload"`
}

// Asaas creates a customer and then a PIX payment for it. The payment status
// is returned exactly as Asaas reports it.
type Asaas struct {
	*client
	policy       StatusPolicy
	now          func() time.Time
	newReference func() string
}

func NewAsaas(opts Options) *Asaas {
	c := newClient("Asaas", opts)
	if c.credential != "" {
		c.rc.SetHeader("access_token", c.credential)
	}
	return &Asaas{client: c, policy: Verbatim, now: time.Now, newReference: timeReference}
}

func (a *Asaas) Name() string {
	return a.name
}

func (a *Asaas) SupportsWebhook() bool {
	return true
}

func (a *Asaas) CreateCharge(ctx context.Context, req model.ChargeRequest) (model.ChargeResult, error) {
	if err := a.ensureCredential(); err != nil {
		return model.ChargeResult{}, err
	}

	var customer asaasCustomer
	customerReq := asaasCustomerRequest{
		Name:    req.Customer.Name,
		Email:   req.Customer.Email,
		CpfCnpj: req.Customer.TaxID,
	}
	if err := a.do(ctx, "create customer", http.MethodPost, "/customers", customerReq, &customer); err != nil {
		return model.ChargeResult{}, err
	}
	if customer.ID == "" {
		return model.ChargeResult{}, a.malformed("create customer", errors.New("response has no customer id"))
	}

	paymentReq := asaasPaymentRequest{
		Customer:          customer.ID,
		BillingType:       asaasBillingTypePix,
		Value:             json.Number(decimal.New(req.PixAmount, -2).StringFixed(2)),
		DueDate:           a.now().Add(AsaasDueWindow).Format(asaasDueDateLayout),
		Description:       req.Item.Description,
		ExternalReference: a.newReference(),
	}

	var payment asaasPayment
	if err := a.do(ctx, "create payment", http.MethodPost, "/payments", paymentReq, &payment); err != nil {
		return model.ChargeResult{}, err
	}
	if payment.ID == "" {
		return model.ChargeResult{}, a.malformed("create payment", errors.New("response has no payment id"))
	}

	qrCode := payment.PixQrCode
	if qrCode == "" {
		// Production Asaas serves the PIX payload from its own endpoint.
		var pix asaasPixQrCode
		path := "/payments/" + url.PathEscape(payment.ID) + "/pixQrCode"
		if err := a.do(ctx, "get pix qr code", http.MethodGet, path, nil, &pix); err != nil {
			return model.ChargeResult{}, err
		}
		if pix.Payload == "" {
			return model.ChargeResult{}, a.malformed("get pix qr code", errors.New("response has no pix payload"))
		}
		qrCode = pix.Payload
	}

	return model.ChargeResult{ID: payment.ID, QRCode: qrCode}, nil
}

func (a *Asaas) ChargeStatus(ctx context.Context, paymentID string) (model.ChargeStatusResult, error) {
	if err := a.ensureCredential(); err != nil {
		return model.ChargeStatusResult{}, err
	}

	var payment asaasPayment
	if err := a.do(ctx, "get payment", http.MethodGet, "/payments/"+url.PathEscape(paymentID), nil, &payment); err != nil {
		return model.ChargeStatusResult{}, err
	}
	if payment.Status == "" {
		return model.ChargeStatusResult{}, a.malformed("get payment", errors.New("response has no status"))
	}

	return model.ChargeStatusResult{Status: a.policy(payment.Status)}, nil
}

func (a *Asaas) Response(result model.ChargeResult) any {
	return model.PaymentResponse{PaymentID: result.ID, QRCode: result.QRCode}
}

// timeReference returns a time-ordered unique reference for externalReference.
func timeReference() string {
	id, err := uuid.NewV7()
	if err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return id.String()
}
