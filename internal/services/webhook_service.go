package services

import (
	"context"

	"alumnihub_backend/internal/logger"
	"alumnihub_backend/internal/models"
	"alumnihub_backend/internal/payments"
)

// DonationStore is the slice of donation persistence the lifecycle needs.
type DonationStore interface {
	Create(ctx context.Context, donation *models.Donation) error
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Donation, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Donation, error)
	ExistsByPaymentIntentID(ctx context.Context, paymentIntentID string) (bool, error)
	// TransitionStatus applies `SET status = to WHERE id = ? AND status IN
	// (from...)` as one statement and reports affected rows. Zero rows is
	// the idempotent-skip signal.
	TransitionStatus(ctx context.Context, id string, from []models.DonationStatus, to models.DonationStatus) (int64, error)
}

// CampaignStore is the slice of campaign persistence the lifecycle needs.
type CampaignStore interface {
	// IncrementTotal must be a single atomic update at the storage layer.
	IncrementTotal(ctx context.Context, id string, amountCents int64) error
}

// ReceiptScheduler queues receipt generation. Scheduling must never block
// or fail the caller; lost schedules are recovered out of band.
type ReceiptScheduler interface {
	Schedule(donationID string)
}

// DonationLifecycle owns every donation status transition after checkout
// and the campaign-total side effect. It processes verified webhook events;
// each handler is isolated so one poison event cannot withhold the
// acknowledgement that stops provider redelivery.
type DonationLifecycle struct {
	donations DonationStore
	campaigns CampaignStore
	receipts  ReceiptScheduler
}

func NewDonationLifecycle(donations DonationStore, campaigns CampaignStore, receipts ReceiptScheduler) *DonationLifecycle {
	return &DonationLifecycle{
		donations: donations,
		campaigns: campaigns,
		receipts:  receipts,
	}
}

// completable lists the statuses a donation may leave for COMPLETED.
// FAILED and CANCELLED are terminal: a late success event for a failed
// donation is a logged no-op.
var completable = []models.DonationStatus{models.DonationStatusPending}

// cancellable lists the statuses a subscription deletion may cancel from.
// Past completed charges stay counted; only the agreement itself closes.
var cancellable = []models.DonationStatus{models.DonationStatusPending, models.DonationStatusCompleted}

// HandleEvent routes a verified event to its handler. Handler errors and
// panics are logged and swallowed: the webhook must still be acknowledged,
// otherwise the provider redelivers forever. Unknown event types are
// ignored.
func (s *DonationLifecycle) HandleEvent(ctx context.Context, event *payments.Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.CtxError(ctx, "webhook handler panic", "event_type", event.Type, "event_id", event.ID, "panic", r)
		}
	}()

	var err error
	switch event.Type {
	case payments.EventPaymentSucceeded:
		err = s.handlePaymentSucceeded(ctx, event)
	case payments.EventPaymentFailed:
		err = s.handlePaymentFailed(ctx, event)
	case payments.EventSubscriptionCreated:
		err = s.handleSubscriptionCreated(ctx, event)
	case payments.EventSubscriptionUpdated:
		err = s.handleSubscriptionUpdated(ctx, event)
	case payments.EventSubscriptionDeleted:
		err = s.handleSubscriptionDeleted(ctx, event)
	case payments.EventInvoicePaid:
		err = s.handleInvoicePaid(ctx, event)
	default:
		logger.CtxDebug(ctx, "ignoring unhandled webhook event type", "event_type", event.Type)
		return
	}

	if err != nil {
		// The side effect for this delivery is lost; the provider's retry
		// or out-of-band reconciliation recovers it. Acking anyway avoids
		// a redelivery storm for a permanently failing record.
		logger.CtxWithError(ctx, "webhook handler failed", err, "event_type", event.Type, "event_id", event.ID)
	}
}

// handlePaymentSucceeded confirms a single charge: PENDING -> COMPLETED,
// then the campaign increment, then receipt scheduling. The conditional
// transition makes redelivery idempotent; when it reports zero rows the
// increment is skipped, so the campaign total moves exactly once per
// donation no matter how often the event arrives.
func (s *DonationLifecycle) handlePaymentSucceeded(ctx context.Context, event *payments.Event) error {
	pi, err := event.PaymentIntent()
	if err != nil {
		return err
	}

	donation, err := s.donations.GetByPaymentIntentID(ctx, pi.ID)
	if err != nil {
		return err
	}
	if donation == nil {
		logger.CtxWarn(ctx, "payment succeeded for unknown payment intent", "payment_intent_id", pi.ID)
		return nil
	}

	rows, err := s.donations.TransitionStatus(ctx, donation.ID, completable, models.DonationStatusCompleted)
	if err != nil {
		return err
	}
	if rows == 0 {
		logger.CtxInfo(ctx, "donation already settled, skipping", "donation_id", donation.ID, "status", donation.Status)
		return nil
	}

	if donation.CampaignID != nil {
		if err := s.campaigns.IncrementTotal(ctx, *donation.CampaignID, donation.AmountCents); err != nil {
			return err
		}
	}

	s.scheduleReceipt(ctx, donation.ID)

	logger.CtxInfo(ctx, "donation completed", "donation_id", donation.ID, "amount_cents", donation.AmountCents)
	return nil
}

func (s *DonationLifecycle) handlePaymentFailed(ctx context.Context, event *payments.Event) error {
	pi, err := event.PaymentIntent()
	if err != nil {
		return err
	}

	donation, err := s.donations.GetByPaymentIntentID(ctx, pi.ID)
	if err != nil {
		return err
	}
	if donation == nil {
		logger.CtxWarn(ctx, "payment failed for unknown payment intent", "payment_intent_id", pi.ID)
		return nil
	}

	rows, err := s.donations.TransitionStatus(ctx, donation.ID,
		[]models.DonationStatus{models.DonationStatusPending}, models.DonationStatusFailed)
	if err != nil {
		return err
	}
	if rows > 0 {
		logger.CtxInfo(ctx, "donation failed", "donation_id", donation.ID)
	}
	return nil
}

// handleSubscriptionCreated treats creation of the agreement as
// confirmation of its first charge.
func (s *DonationLifecycle) handleSubscriptionCreated(ctx context.Context, event *payments.Event) error {
	sub, err := event.Subscription()
	if err != nil {
		return err
	}

	donation, err := s.donations.GetBySubscriptionID(ctx, sub.ID)
	if err != nil {
		return err
	}
	if donation == nil {
		logger.CtxWarn(ctx, "subscription created for unknown donation", "subscription_id", sub.ID)
		return nil
	}

	rows, err := s.donations.TransitionStatus(ctx, donation.ID, completable, models.DonationStatusCompleted)
	if err != nil {
		return err
	}
	if rows == 0 {
		return nil
	}

	if donation.CampaignID != nil {
		if err := s.campaigns.IncrementTotal(ctx, *donation.CampaignID, donation.AmountCents); err != nil {
			return err
		}
	}

	s.scheduleReceipt(ctx, donation.ID)

	logger.CtxInfo(ctx, "recurring donation confirmed", "donation_id", donation.ID, "subscription_id", sub.ID)
	return nil
}

// handleSubscriptionUpdated records the event only. No transition is wired
// until cancellations-via-update are confirmed as real provider behavior.
func (s *DonationLifecycle) handleSubscriptionUpdated(ctx context.Context, event *payments.Event) error {
	sub, err := event.Subscription()
	if err != nil {
		return err
	}
	logger.CtxInfo(ctx, "subscription updated", "subscription_id", sub.ID, "provider_status", sub.Status)
	return nil
}

func (s *DonationLifecycle) handleSubscriptionDeleted(ctx context.Context, event *payments.Event) error {
	sub, err := event.Subscription()
	if err != nil {
		return err
	}

	donation, err := s.donations.GetBySubscriptionID(ctx, sub.ID)
	if err != nil {
		return err
	}
	if donation == nil {
		logger.CtxWarn(ctx, "subscription deleted for unknown donation", "subscription_id", sub.ID)
		return nil
	}

	rows, err := s.donations.TransitionStatus(ctx, donation.ID, cancellable, models.DonationStatusCancelled)
	if err != nil {
		return err
	}
	if rows > 0 {
		logger.CtxInfo(ctx, "recurring donation cancelled", "donation_id", donation.ID, "subscription_id", sub.ID)
	}
	return nil
}

// handleInvoicePaid records one billing cycle of a subscription: the
// campaign total grows by the original amount and a new completed donation
// row is appended carrying this cycle's payment intent. The original row is
// never mutated, so every charge stays auditable.
func (s *DonationLifecycle) handleInvoicePaid(ctx context.Context, event *payments.Event) error {
	inv, err := event.Invoice()
	if err != nil {
		return err
	}

	original, err := s.donations.GetBySubscriptionID(ctx, inv.SubscriptionID)
	if err != nil {
		return err
	}
	if original == nil {
		logger.CtxWarn(ctx, "invoice for unknown subscription", "subscription_id", inv.SubscriptionID)
		return nil
	}
	if original.CampaignID == nil {
		logger.CtxInfo(ctx, "invoice for campaignless subscription, nothing to record", "subscription_id", inv.SubscriptionID)
		return nil
	}

	// The payment intent id is the dedup key for invoice redelivery;
	// without it a redelivered invoice would append and increment again
	// (NULLs never collide on the unique index), so such payloads are not
	// recorded at all.
	if inv.PaymentIntentID == "" {
		logger.CtxWarn(ctx, "invoice without payment intent, cannot dedup, skipping",
			"invoice_id", inv.ID, "subscription_id", inv.SubscriptionID)
		return nil
	}

	// Redelivered invoices carry the same payment intent; the unique index
	// on payment_intent_id backstops a racing duplicate.
	exists, err := s.donations.ExistsByPaymentIntentID(ctx, inv.PaymentIntentID)
	if err != nil {
		return err
	}
	if exists {
		logger.CtxInfo(ctx, "invoice charge already recorded, skipping", "payment_intent_id", inv.PaymentIntentID)
		return nil
	}

	piID := inv.PaymentIntentID
	subID := inv.SubscriptionID
	charge := &models.Donation{
		UserID:          original.UserID,
		Email:           original.Email,
		FirstName:       original.FirstName,
		LastName:        original.LastName,
		AmountCents:     original.AmountCents,
		Currency:        original.Currency,
		Recurring:       true,
		Status:          models.DonationStatusCompleted,
		CampaignID:      original.CampaignID,
		PaymentIntentID: &piID,
		SubscriptionID:  &subID,
		IsAnonymous:     original.IsAnonymous,
	}

	// Creating the row first lets the unique payment_intent_id index stop a
	// racing duplicate before any total moves; a failed increment after a
	// successful create only lags the total, it never double-counts.
	if err := s.donations.Create(ctx, charge); err != nil {
		return err
	}

	if err := s.campaigns.IncrementTotal(ctx, *original.CampaignID, original.AmountCents); err != nil {
		return err
	}

	s.scheduleReceipt(ctx, charge.ID)

	logger.CtxInfo(ctx, "recurring charge recorded",
		"donation_id", charge.ID,
		"subscription_id", inv.SubscriptionID,
		"amount_cents", charge.AmountCents,
	)
	return nil
}

// scheduleReceipt hands the donation to the receipt queue. A receipt is a
// secondary effect: any problem here is logged and never unwinds the
// payment confirmation.
func (s *DonationLifecycle) scheduleReceipt(ctx context.Context, donationID string) {
	defer func() {
		if r := recover(); r != nil {
			logger.CtxError(ctx, "receipt scheduling panic", "donation_id", donationID, "panic", r)
		}
	}()
	s.receipts.Schedule(donationID)
}
