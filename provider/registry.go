package provider

import (
	"fmt"
	"net/http"

	"github.com/bhdspro/pix-relay/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// New builds the provider client selected by cfg. Outbound requests carry
// trace context through an otelhttp transport.
func New(cfg *config.Config) (Provider, error) {
	opts := Options{
		BaseURL:         cfg.BaseURL,
		Credential:      cfg.Credential,
		Timeout:         cfg.Timeout,
		NotificationURL: cfg.NotificationURL,
		HTTPClient:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}

	switch cfg.Provider {
	case config.ProviderPagSeguro:
		return NewPagSeguro(opts), nil
	case config.ProviderAsaas:
		return NewAsaas(opts), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider: %s", cfg.Provider)
	}
}
