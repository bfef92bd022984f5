package provider

import (
	"testing"
	"time"

	"github.com/bhdspro/pix-relay/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		provider config.Provider
		want     string
		webhook  bool
	}{
		{config.ProviderPagSeguro, "PagSeguro", false},
		{config.ProviderAsaas, "Asaas", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			p, err := New(&config.Config{Provider: tt.provider, BaseURL: "http://localhost", Timeout: time.Second})
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
			assert.Equal(t, tt.webhook, p.SupportsWebhook())
		})
	}

	_, err := New(&config.Config{Provider: "stripe"})
	assert.Error(t, err)
}
