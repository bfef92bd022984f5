package model

import (
	"errors"
	"fmt"
)

// ChargeAmount is the only billable amount, in centavos (R$ 1,00).
const ChargeAmount int64 = 100

// ChargeDescription names the single product the relay sells.
const ChargeDescription = "Download Carteirinha de Estudante"

type Customer struct {
	Name  string
	Email string
	TaxID string
}

type LineItem struct {
	Description string
	Quantity    int
	UnitAmount  int64
}

// ChargeRequest is built by the relay, never by the caller.
type ChargeRequest struct {
	Customer  Customer
	Item      LineItem
	PixAmount int64
}

// NewChargeRequest derives the line item amount and the PIX amount from the
// same value so they cannot disagree.
func NewChargeRequest(customer Customer, description string, amount int64) ChargeRequest {
	return ChargeRequest{
		Customer: customer,
		Item: LineItem{
			Description: description,
			Quantity:    1,
			UnitAmount:  amount,
		},
		PixAmount: amount,
	}
}

// DefaultChargeRequest is the fixed charge for a student card download.
func DefaultChargeRequest() ChargeRequest {
	return NewChargeRequest(Customer{
		Name:  "Cliente Gerador Carteirinha",
		Email: "cliente@email.com",
		TaxID: "12345678909",
	}, ChargeDescription, ChargeAmount)
}

// SandboxChargeRequest is DefaultChargeRequest with the test customer used
// against provider sandboxes.
func SandboxChargeRequest() ChargeRequest {
	return NewChargeRequest(Customer{
		Name:  "Cliente Teste Sandbox",
		Email: "cliente@sandbox.com",
		TaxID: "12345678909",
	}, ChargeDescription, ChargeAmount)
}

func (r ChargeRequest) Validate() error {
	var errs []error
	if r.PixAmount <= 0 {
		errs = append(errs, fmt.Errorf("pix amount must be positive, got %d", r.PixAmount))
	}
	if r.Item.UnitAmount != r.PixAmount {
		errs = append(errs, fmt.Errorf("item amount %d differs from pix amount %d", r.Item.UnitAmount, r.PixAmount))
	}
	if r.Item.Quantity != 1 {
		errs = append(errs, fmt.Errorf("item quantity must be 1, got %d", r.Item.Quantity))
	}
	return errors.Join(errs...)
}

type ChargeResult struct {
	ID     string
	QRCode string
}

type ChargeStatusResult struct {
	Status string `json:"status"`
}

// OrderResponse is returned to the frontend by single-call providers.
type OrderResponse struct {
	OrderID    string `json:"orderId"`
	QRCodeText string `json:"qrCodeText"`
}

// PaymentResponse is returned to the frontend by customer-then-payment providers.
type PaymentResponse struct {
	PaymentID string `json:"paymentId"`
	QRCode    string `json:"qrCode"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
