package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MockProvider is the development/test double. Webhook payloads are signed
// with HMAC-SHA256 over the raw body; intent and subscription creation
// return synthetic identifiers without any network traffic.
type MockProvider struct {
	secret string
}

func NewMockProvider(webhookSecret string) *MockProvider {
	return &MockProvider{secret: webhookSecret}
}

// mockEnvelope mirrors the provider's event envelope.
type mockEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

func (p *MockProvider) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	if signature == "" {
		return nil, ErrSignature
	}

	expected := p.Sign(payload)
	if !hmac.Equal([]byte(strings.TrimSpace(signature)), []byte(expected)) {
		return nil, ErrSignature
	}

	var env mockEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("event envelope missing type")
	}

	return &Event{
		ID:   env.ID,
		Type: env.Type,
		Raw:  env.Data.Object,
	}, nil
}

// Sign computes the signature the mock expects for a payload. Tests and
// local tooling use it to forge deliveries.
func (p *MockProvider) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(p.secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (p *MockProvider) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	id := "pi_mock_" + uuid.NewString()
	return &Intent{
		ID:           id,
		ClientSecret: id + "_secret",
	}, nil
}

func (p *MockProvider) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error) {
	return &Subscription{
		ID:         "sub_mock_" + uuid.NewString(),
		CustomerID: "cus_mock_" + uuid.NewString(),
	}, nil
}
