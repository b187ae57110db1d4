package payments

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

// StripeProvider is the production Provider. The API key lives on the
// client instance, not in a package-level global, so multiple providers can
// coexist in tests.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

func NewStripeProvider(apiKey, webhookSecret string) *StripeProvider {
	api := &client.API{}
	api.Init(apiKey, nil)

	return &StripeProvider{
		api:           api,
		webhookSecret: webhookSecret,
	}
}

func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	if signature == "" {
		return nil, ErrSignature
	}

	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	return &Event{
		ID:   event.ID,
		Type: string(event.Type),
		Raw:  event.Data.Raw,
	}, nil
}

func (p *StripeProvider) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context:  ctx,
			Metadata: req.Metadata,
		},
		Amount:       stripe.Int64(req.AmountCents),
		Currency:     stripe.String(req.Currency),
		ReceiptEmail: stripe.String(req.Email),
		Description:  stripe.String(req.Description),
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

func (p *StripeProvider) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error) {
	interval := req.Interval
	if interval == "" {
		interval = "month"
	}

	cust, err := p.api.Customers.New(&stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(req.Email),
	})
	if err != nil {
		return nil, fmt.Errorf("stripe: create customer: %w", err)
	}

	sub, err := p.api.Subscriptions.New(&stripe.SubscriptionParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(cust.ID),
		Items: []*stripe.SubscriptionItemsParams{
			{
				PriceData: &stripe.SubscriptionItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					Product:    stripe.String("recurring-donation"),
					UnitAmount: stripe.Int64(req.AmountCents),
					Recurring: &stripe.SubscriptionItemPriceDataRecurringParams{
						Interval: stripe.String(interval),
					},
				},
			},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	})
	if err != nil {
		return nil, fmt.Errorf("stripe: create subscription: %w", err)
	}

	return &Subscription{
		ID:         sub.ID,
		CustomerID: cust.ID,
	}, nil
}
