package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Provider string

const (
	ProviderPagSeguro Provider = "pagseguro"
	ProviderAsaas     Provider = "asaas"
)

type Mode string

const (
	ModeLive    Mode = "live"
	ModeSandbox Mode = "sandbox"
)

var baseURLs = map[Provider]map[Mode]string{
	ProviderPagSeguro: {
		ModeLive:    "https://api.pagseguro.com",
		ModeSandbox: "https://sandbox.api.pagseguro.com",
	},
	ProviderAsaas: {
		ModeLive:    "https://api.asaas.com/v3",
		ModeSandbox: "https://sandbox.asaas.com/api/v3",
	},
}

// credentialVars maps each provider to the environment variable holding its secret.
var credentialVars = map[Provider]string{
	ProviderPagSeguro: "PAGSEGURO_TOKEN",
	ProviderAsaas:     "ASAAS_API_KEY",
}

type Config struct {
	// Server
	Port          string
	AllowedOrigin string

	// Provider
	Provider        Provider
	Mode            Mode
	BaseURL         string
	Credential      string
	Timeout         time.Duration
	NotificationURL string

	// Observability
	LogLevel    slog.Level
	OtelEnabled bool
}

// Load reads an optional .env file and then the process environment.
// A missing provider secret is not an error here; it is reported per request.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	provider := Provider(strings.ToLower(getEnv("PAYMENT_PROVIDER", string(ProviderPagSeguro))))
	modes, ok := baseURLs[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported payment provider: %q", provider)
	}

	mode := Mode(strings.ToLower(getEnv("PROVIDER_MODE", string(ModeLive))))
	baseURL, ok := modes[mode]
	if !ok {
		return nil, fmt.Errorf("unsupported provider mode: %q", mode)
	}

	timeout, err := getEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("PROVIDER_TIMEOUT must be positive, got %s", timeout)
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:          getEnv("PORT", "3000"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "https://apps.grupobhds.com"),

		Provider:        provider,
		Mode:            mode,
		BaseURL:         strings.TrimRight(getEnv("PROVIDER_BASE_URL", baseURL), "/"),
		Credential:      os.Getenv(credentialVars[provider]),
		Timeout:         timeout,
		NotificationURL: getEnv("NOTIFICATION_URL", ""),

		LogLevel:    level,
		OtelEnabled: getEnvAsBool("OTEL_ENABLED", false),
	}, nil
}

// CredentialVar returns the name of the environment variable that holds the
// secret for the configured provider.
func (c *Config) CredentialVar() string {
	return credentialVars[c.Provider]
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}
