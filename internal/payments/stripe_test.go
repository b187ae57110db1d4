package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripeProvider_VerifyWebhook_MissingSignature(t *testing.T) {
	p := NewStripeProvider("sk_test_key", "whsec_test")

	event, err := p.VerifyWebhook([]byte(`{}`), "")
	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrSignature)
}

func TestStripeProvider_VerifyWebhook_BadSignature(t *testing.T) {
	p := NewStripeProvider("sk_test_key", "whsec_test")

	payload := buildEventPayload(t, EventPaymentSucceeded, map[string]any{"id": "pi_1"})
	event, err := p.VerifyWebhook(payload, "t=1,v1=deadbeef")
	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrSignature)
}

func TestNewProvider_SelectsStripe(t *testing.T) {
	provider, err := NewProvider(Config{
		Provider:      "stripe",
		APIKey:        "sk_test_key",
		WebhookSecret: "whsec_test",
	})
	require.NoError(t, err)
	_, ok := provider.(*StripeProvider)
	assert.True(t, ok)
}
