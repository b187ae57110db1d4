package payments

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildEventPayload(t *testing.T, eventType string, object any) []byte {
	t.Helper()

	raw, err := json.Marshal(object)
	require.NoError(t, err)

	payload, err := json.Marshal(map[string]any{
		"id":   "evt_test_1",
		"type": eventType,
		"data": map[string]any{"object": json.RawMessage(raw)},
	})
	require.NoError(t, err)
	return payload
}

func TestMockProvider_VerifyWebhook_RoundTrip(t *testing.T) {
	p := NewMockProvider("whsec_test")

	payload := buildEventPayload(t, EventPaymentSucceeded, map[string]any{
		"id":     "pi_123",
		"amount": 2500,
	})

	event, err := p.VerifyWebhook(payload, p.Sign(payload))
	require.NoError(t, err)
	assert.Equal(t, EventPaymentSucceeded, event.Type)

	pi, err := event.PaymentIntent()
	require.NoError(t, err)
	assert.Equal(t, "pi_123", pi.ID)
	assert.Equal(t, int64(2500), pi.AmountCents)
}

func TestMockProvider_VerifyWebhook_RejectsTamperedPayload(t *testing.T) {
	p := NewMockProvider("whsec_test")

	payload := buildEventPayload(t, EventPaymentSucceeded, map[string]any{"id": "pi_123"})
	sig := p.Sign(payload)

	tampered := buildEventPayload(t, EventPaymentSucceeded, map[string]any{"id": "pi_999"})

	_, err := p.VerifyWebhook(tampered, sig)
	assert.ErrorIs(t, err, ErrSignature)
}

func TestMockProvider_VerifyWebhook_RejectsMissingSignature(t *testing.T) {
	p := NewMockProvider("whsec_test")

	payload := buildEventPayload(t, EventPaymentSucceeded, map[string]any{"id": "pi_123"})

	_, err := p.VerifyWebhook(payload, "")
	assert.ErrorIs(t, err, ErrSignature)
}

func TestMockProvider_VerifyWebhook_RejectsWrongSecret(t *testing.T) {
	signer := NewMockProvider("whsec_other")
	p := NewMockProvider("whsec_test")

	payload := buildEventPayload(t, EventPaymentFailed, map[string]any{"id": "pi_123"})

	_, err := p.VerifyWebhook(payload, signer.Sign(payload))
	assert.ErrorIs(t, err, ErrSignature)
}

func TestMockProvider_CreatePaymentIntent(t *testing.T) {
	p := NewMockProvider("whsec_test")

	intent, err := p.CreatePaymentIntent(context.Background(), IntentRequest{
		AmountCents: 5000,
		Currency:    "USD",
		Email:       "donor@example.edu",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, intent.ID)
	assert.NotEmpty(t, intent.ClientSecret)

	other, err := p.CreatePaymentIntent(context.Background(), IntentRequest{AmountCents: 100, Currency: "USD"})
	require.NoError(t, err)
	assert.NotEqual(t, intent.ID, other.ID)
}

func TestEvent_Invoice_RequiresSubscription(t *testing.T) {
	e := &Event{Type: EventInvoicePaid, Raw: []byte(`{"id":"in_1","payment_intent":"pi_9"}`)}

	_, err := e.Invoice()
	assert.Error(t, err)
}
