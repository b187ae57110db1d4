package payments

import (
	"context"
	"errors"
	"fmt"
)

// SignatureHeader carries the provider signature on webhook requests.
const SignatureHeader = "Stripe-Signature"

// ErrSignature means the webhook payload could not be authenticated. The
// caller must not process the event in any way.
var ErrSignature = errors.New("payments: webhook signature verification failed")

// IntentRequest describes a single charge to initiate.
type IntentRequest struct {
	AmountCents int64
	Currency    string
	Email       string
	Description string
	Metadata    map[string]string
}

// Intent is the provider-side handle for one attempted charge.
type Intent struct {
	ID           string
	ClientSecret string
}

// SubscriptionRequest describes a recurring billing agreement to create.
type SubscriptionRequest struct {
	AmountCents int64
	Currency    string
	Email       string
	Description string
	Interval    string // month, year
}

// Subscription is the provider-side handle for a recurring agreement.
type Subscription struct {
	ID           string
	CustomerID   string
	ClientSecret string
}

// Provider abstracts the payment processor. Implementations must be safe
// for concurrent use; the webhook endpoint and checkout flow share one
// instance.
type Provider interface {
	// VerifyWebhook authenticates a raw webhook body against its signature
	// header and returns the parsed event. Returns ErrSignature (possibly
	// wrapped) when authentication fails.
	VerifyWebhook(payload []byte, signature string) (*Event, error)

	// CreatePaymentIntent registers a single charge with the provider.
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)

	// CreateSubscription registers a recurring billing agreement.
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error)
}

// Config selects and parameterizes a provider implementation.
type Config struct {
	Provider      string // stripe, mock
	APIKey        string
	WebhookSecret string
}

// NewProvider builds the configured implementation.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "stripe":
		return NewStripeProvider(cfg.APIKey, cfg.WebhookSecret), nil
	case "mock":
		return NewMockProvider(cfg.WebhookSecret), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider: %q", cfg.Provider)
	}
}
