package payments

import (
	"encoding/json"
	"fmt"
)

// Webhook event types this system consumes. All other types are
// acknowledged and ignored.
const (
	EventPaymentSucceeded    = "payment_intent.succeeded"
	EventPaymentFailed       = "payment_intent.payment_failed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventInvoicePaid         = "invoice.payment_succeeded"
)

// Event is a verified webhook notification. Raw holds the provider's
// data.object payload for the typed accessors below.
type Event struct {
	ID   string
	Type string
	Raw  json.RawMessage
}

// PaymentIntentData is the data.object of payment_intent.* events.
type PaymentIntentData struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

// SubscriptionData is the data.object of customer.subscription.* events.
type SubscriptionData struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
}

// InvoiceData is the data.object of invoice.* events. PaymentIntentID
// identifies this cycle's specific charge.
type InvoiceData struct {
	ID              string `json:"id"`
	SubscriptionID  string `json:"subscription"`
	PaymentIntentID string `json:"payment_intent"`
	AmountPaidCents int64  `json:"amount_paid"`
	Currency        string `json:"currency"`
}

func (e *Event) PaymentIntent() (*PaymentIntentData, error) {
	var data PaymentIntentData
	if err := json.Unmarshal(e.Raw, &data); err != nil {
		return nil, fmt.Errorf("decode payment intent payload: %w", err)
	}
	if data.ID == "" {
		return nil, fmt.Errorf("payment intent payload missing id")
	}
	return &data, nil
}

func (e *Event) Subscription() (*SubscriptionData, error) {
	var data SubscriptionData
	if err := json.Unmarshal(e.Raw, &data); err != nil {
		return nil, fmt.Errorf("decode subscription payload: %w", err)
	}
	if data.ID == "" {
		return nil, fmt.Errorf("subscription payload missing id")
	}
	return &data, nil
}

func (e *Event) Invoice() (*InvoiceData, error) {
	var data InvoiceData
	if err := json.Unmarshal(e.Raw, &data); err != nil {
		return nil, fmt.Errorf("decode invoice payload: %w", err)
	}
	if data.SubscriptionID == "" {
		return nil, fmt.Errorf("invoice payload missing subscription id")
	}
	return &data, nil
}
