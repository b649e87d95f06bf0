package payment

import (
	"strings"

	"github.com/quancoi2ka3/sportshop/internal/domain"
)

// Config contains configuration for the Stripe provider. It is injected
// explicitly; nothing in this package reads environment variables or sets
// package-global state.
type Config struct {
	// SecretKey is the Stripe secret key (sk_test_... or sk_live_...)
	SecretKey string

	// EnableAutomaticTax lets the gateway calculate tax on hosted
	// checkout sessions.
	EnableAutomaticTax bool

	// AllowedShippingCountries limits shipping address collection on
	// hosted checkout. Empty disables address collection.
	AllowedShippingCountries []string

	// MaxRetries is the maximum number of retries for transient
	// failures. Default: 2.
	MaxRetries int
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return domain.Errorf(domain.ECONFIG, "payment.config", "stripe secret key is required")
	}
	return nil
}

// IsTestMode returns true if using test mode API keys.
func (c *Config) IsTestMode() bool {
	return strings.HasPrefix(c.SecretKey, "sk_test_")
}
