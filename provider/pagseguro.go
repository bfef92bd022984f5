package provider

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/bhdspro/pix-relay/model"
)

type pagSeguroCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	TaxID string `json:"tax_id"`
}

type pagSeguroItem struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitAmount int64  `json:"unit_amount"`
}

type pagSeguroAmount struct {
	Value int64 `json:"value"`
}

type pagSeguroQRCodeRequest struct {
	Amount pagSeguroAmount `json:"amount"`
}

type pagSeguroOrderRequest struct {
	Customer         pagSeguroCustomer        `json:"customer"`
	Items            []pagSeguroItem          `json:"items"`
	QRCodes          []pagSeguroQRCodeRequest `json:"qr_codes"`
	NotificationURLs []string                 `json:"notification_urls"`
}

type pagSeguroOrder struct {
	ID      string `json:"id"`
	QRCodes []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"qr_codes"`
	Charges []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"charges"`
}

// PagSeguro creates a PIX order in a single call and reads the status of the
// order's first charge.
type PagSeguro struct {
	*client
	notificationURLs []string
	policy           StatusPolicy
}

func NewPagSeguro(opts Options) *PagSeguro {
	c := newClient("PagSeguro", opts)
	if c.credential != "" {
		c.rc.SetAuthToken(c.credential)
	}

	urls := []string{}
	if opts.NotificationURL != "" {
		urls = append(urls, opts.NotificationURL)
	}

	return &PagSeguro{client: c, notificationURLs: urls, policy: PaidOrVerbatim}
}

func (p *PagSeguro) Name() string {
	return p.name
}

func (p *PagSeguro) SupportsWebhook() bool {
	return false
}

func (p *PagSeguro) CreateCharge(ctx context.Context, req model.ChargeRequest) (model.ChargeResult, error) {
	if err := p.ensureCredential(); err != nil {
		return model.ChargeResult{}, err
	}

	orderReq := pagSeguroOrderRequest{
		Customer: pagSeguroCustomer{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			TaxID: req.Customer.TaxID,
		},
		Items: []pagSeguroItem{{
			Name:       req.Item.Description,
			Quantity:   req.Item.Quantity,
			UnitAmount: req.Item.UnitAmount,
		}},
		QRCodes:          []pagSeguroQRCodeRequest{{Amount: pagSeguroAmount{Value: req.PixAmount}}},
		NotificationURLs: p.notificationURLs,
	}

	var order pagSeguroOrder
	if err := p.do(ctx, "create order", http.MethodPost, "/orders", orderReq, &order); err != nil {
		return model.ChargeResult{}, err
	}
	if order.ID == "" || len(order.QRCodes) == 0 || order.QRCodes[0].Text == "" {
		return model.ChargeResult{}, p.malformed("create order", errors.New("response has no order id or qr code text"))
	}

	return model.ChargeResult{ID: order.ID, QRCode: order.QRCodes[0].Text}, nil
}

func (p *PagSeguro) ChargeStatus(ctx context.Context, orderID string) (model.ChargeStatusResult, error) {
	if err := p.ensureCredential(); err != nil {
		return model.ChargeStatusResult{}, err
	}

	var order pagSeguroOrder
	if err := p.do(ctx, "get order", http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, &order); err != nil {
		return model.ChargeStatusResult{}, err
	}
	if len(order.Charges) == 0 {
		return model.ChargeStatusResult{}, p.malformed("get order", errors.New("order has no charges"))
	}

	return model.ChargeStatusResult{Status: p.policy(order.Charges[0].Status)}, nil
}

func (p *PagSeguro) Response(result model.ChargeResult) any {
	return model.OrderResponse{OrderID: result.ID, QRCodeText: result.QRCode}
}
