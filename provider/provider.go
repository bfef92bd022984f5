package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bhdspro/pix-relay/model"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrMissingCredential is returned before any outbound call when the
	// provider secret is not configured.
	ErrMissingCredential = errors.New("provider credential not configured")

	// ErrUpstream matches every *UpstreamError.
	ErrUpstream = errors.New("provider communication failed")
)

// Provider is the capability set the relay needs from a payment provider.
type Provider interface {
	// Name is the human readable provider name used in caller-facing messages.
	Name() string

	CreateCharge(ctx context.Context, req model.ChargeRequest) (model.ChargeResult, error)
	ChargeStatus(ctx context.Context, chargeID string) (model.ChargeStatusResult, error)

	// Response renders a charge in the JSON shape the frontend expects from this provider.
	Response(result model.ChargeResult) any

	// SupportsWebhook reports whether the provider posts callbacks to /webhook.
	SupportsWebhook() bool
}

type Options struct {
	BaseURL         string
	Credential      string
	Timeout         time.Duration
	NotificationURL string
	// HTTPClient is optional; its Transport is reused and its Timeout replaced.
	HTTPClient *http.Client
}

// UpstreamError carries the provider's failure detail for server-side logs.
// Callers must only ever see a generic message.
type UpstreamError struct {
	Provider   string
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Provider, e.Operation)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// Detail is the provider error payload when there is one, else the transport error.
func (e *UpstreamError) Detail() string {
	if e.Body != "" {
		return e.Body
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// client is the resty plumbing shared by every provider implementation.
type client struct {
	name       string
	credential string
	rc         *resty.Client
}

func newClient(name string, opts Options) *client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	rc := resty.NewWithClient(hc).
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &client{name: name, credential: opts.Credential, rc: rc}
}

func (c *client) ensureCredential() error {
	if c.credential == "" {
		return ErrMissingCredential
	}
	return nil
}

// do sends one request and decodes a 2xx JSON body into out. Anything else
// becomes an *UpstreamError.
func (c *client) do(ctx context.Context, operation, method, path string, body, out any) error {
	req := c.rc.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return &UpstreamError{Provider: c.name, Operation: operation, Err: err}
	}
	if !resp.IsSuccess() {
		return &UpstreamError{
			Provider:   c.name,
			Operation:  operation,
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &UpstreamError{
			Provider:   c.name,
			Operation:  operation,
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return nil
}

func (c *client) malformed(operation string, statusErr error) error {
	return &UpstreamError{Provider: c.name, Operation: operation, Err: statusErr}
}
