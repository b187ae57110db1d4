package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumnihub_backend/internal/models"
	"alumnihub_backend/internal/payments"
)

// --- store fakes ---

type fakeDonationStore struct {
	mu        sync.Mutex
	byID      map[string]*models.Donation
	order     []string // insertion order, stands in for created_at ASC
	nextID    int
	createErr error
	lookupErr error
}

func newFakeDonationStore() *fakeDonationStore {
	return &fakeDonationStore{byID: map[string]*models.Donation{}}
}

func (f *fakeDonationStore) add(d *models.Donation) *models.Donation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID == "" {
		f.nextID++
		d.ID = fmt.Sprintf("don_%d", f.nextID)
	}
	f.byID[d.ID] = d
	f.order = append(f.order, d.ID)
	return d
}

func (f *fakeDonationStore) Create(ctx context.Context, donation *models.Donation) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	for _, d := range f.byID {
		if d.PaymentIntentID != nil && donation.PaymentIntentID != nil && *d.PaymentIntentID == *donation.PaymentIntentID {
			f.mu.Unlock()
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	f.mu.Unlock()
	f.add(donation)
	return nil
}

func (f *fakeDonationStore) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Donation, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.byID {
		if d.PaymentIntentID != nil && *d.PaymentIntentID == paymentIntentID {
			copied := *d
			return &copied, nil
		}
	}
	return nil, nil
}

// GetBySubscriptionID returns the earliest matching row, mirroring the
// repository's created_at ASC ordering.
func (f *fakeDonationStore) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.order {
		d := f.byID[id]
		if d.SubscriptionID != nil && *d.SubscriptionID == subscriptionID {
			copied := *d
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeDonationStore) ExistsByPaymentIntentID(ctx context.Context, paymentIntentID string) (bool, error) {
	d, err := f.GetByPaymentIntentID(ctx, paymentIntentID)
	return d != nil, err
}

func (f *fakeDonationStore) TransitionStatus(ctx context.Context, id string, from []models.DonationStatus, to models.DonationStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.byID[id]
	if !ok {
		return 0, nil
	}
	for _, s := range from {
		if d.Status == s {
			d.Status = to
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeDonationStore) get(id string) *models.Donation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

func (f *fakeDonationStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

type fakeCampaignStore struct {
	mu             sync.Mutex
	totals         map[string]int64
	incrementCalls int
	err            error
}

func newFakeCampaignStore() *fakeCampaignStore {
	return &fakeCampaignStore{totals: map[string]int64{}}
}

func (f *fakeCampaignStore) IncrementTotal(ctx context.Context, id string, amountCents int64) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totals[id] += amountCents
	f.incrementCalls++
	return nil
}

func (f *fakeCampaignStore) total(id string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totals[id]
}

type fakeReceiptScheduler struct {
	mu        sync.Mutex
	scheduled []string
	panics    bool
}

func (f *fakeReceiptScheduler) Schedule(donationID string) {
	if f.panics {
		panic("receipt queue unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, donationID)
}

func (f *fakeReceiptScheduler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scheduled)
}

// --- helpers ---

func strptr(s string) *string { return &s }

func lifecycleFixture() (*DonationLifecycle, *fakeDonationStore, *fakeCampaignStore, *fakeReceiptScheduler) {
	donations := newFakeDonationStore()
	campaigns := newFakeCampaignStore()
	receipts := &fakeReceiptScheduler{}
	return NewDonationLifecycle(donations, campaigns, receipts), donations, campaigns, receipts
}

func makeEvent(t *testing.T, eventType string, object any) *payments.Event {
	t.Helper()
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	return &payments.Event{ID: "evt_" + eventType, Type: eventType, Raw: raw}
}

func paymentSucceeded(t *testing.T, paymentIntentID string, amount int64) *payments.Event {
	return makeEvent(t, payments.EventPaymentSucceeded, map[string]any{"id": paymentIntentID, "amount": amount})
}

// --- tests ---

func TestPaymentSucceeded_CompletesAndIncrementsOnce(t *testing.T) {
	lc, donations, campaigns, receipts := lifecycleFixture()

	d := donations.add(&models.Donation{
		AmountCents:     2500,
		Status:          models.DonationStatusPending,
		CampaignID:      strptr("camp_1"),
		PaymentIntentID: strptr("pi_1"),
	})

	lc.HandleEvent(context.Background(), paymentSucceeded(t, "pi_1", 2500))

	assert.Equal(t, models.DonationStatusCompleted, donations.get(d.ID).Status)
	assert.Equal(t, int64(2500), campaigns.total("camp_1"))
	assert.Equal(t, 1, receipts.count())
}

func TestPaymentSucceeded_RedeliveryIsIdempotent(t *testing.T) {
	lc, donations, campaigns, _ := lifecycleFixture()

	d := donations.add(&models.Donation{
		AmountCents:     2500,
		Status:          models.DonationStatusPending,
		CampaignID:      strptr("camp_1"),
		PaymentIntentID: strptr("pi_1"),
	})

	for i := 0; i < 5; i++ {
		lc.HandleEvent(context.Background(), paymentSucceeded(t, "pi_1", 2500))
	}

	assert.Equal(t, models.DonationStatusCompleted, donations.get(d.ID).Status)
	assert.Equal(t, int64(2500), campaigns.total("camp_1"), "redelivery must not double-apply the increment")
	assert.Equal(t, 1, campaigns.incrementCalls)
}

func TestPaymentSucceeded_NoCampaign_TouchesNoCampaign(t *testing.T) {
	lc, donations, campaigns, receipts := lifecycleFixture()

	d := donations.add(&models.Donation{
		AmountCents:     1000,
		Status:          models.DonationStatusPending,
		PaymentIntentID: strptr("pi_2"),
	})

	lc.HandleEvent(context.Background(), paymentSucceeded(t, "pi_2", 1000))

	assert.Equal(t, models.DonationStatusCompleted, donations.get(d.ID).Status)
	assert.Equal(t, 0, campaigns.incrementCalls)
	assert.Equal(t, 1, receipts.count())
}

func TestPaymentSucceeded_UnknownIntent_IsNoOp(t *testing.T) {
	lc, donations, campaigns, receipts := lifecycleFixture()

	lc.HandleEvent(context.Background(), paymentSucceeded(t, "pi_stray", 999))

	assert.Equal(t, 0, donations.count())
	assert.Equal(t, 0, campaigns.incrementCalls)
	assert.Equal(t, 0, receipts.count())
}

func TestPaymentSucceeded_FailedDonationStaysFailed(t *testing.T) {
	// FAILED is terminal: a late success event may not resurrect the
	// donation or move any campaign total.
	lc, donations, campaigns, receipts := lifecycleFixture()

	d := donations.add(&models.Donation{
		AmountCents:     4000,
		Status:          models.DonationStatusFailed,
		CampaignID:      strptr("camp_1"),
		PaymentIntentID: strptr("pi_3"),
	})

	lc.HandleEvent(context.Background(), paymentSucceeded(t, "pi_3", 4000))

	assert.Equal(t, models.DonationStatusFailed, donations.get(d.ID).Status)
	assert.Equal(t, int64(0), campaigns.total("camp_1"))
	assert.Equal(t, 0, receipts.count())
}

func TestPaymentSucceeded_ReceiptPanicDoesNotUnwindConfirmation(t *testing.T) {
	donations := newFakeDonationStore()
	campaigns := newFakeCampaignStore()
	lc := NewDonationLifecycle(donations, campaigns, &fakeReceiptScheduler{panics: true})

	d := donations.add(&models.Donation{
		AmountCents:     2500,
		Status:          models.DonationStatusPending,
		CampaignID:      strptr("camp_1"),
		PaymentIntentID: strptr("pi_4"),
	})

	lc.HandleEvent(context.Background(), paymentSucceeded(t, "pi_4", 2500))

	assert.Equal(t, models.DonationStatusCompleted, donations.get(d.ID).Status)
	assert.Equal(t, int64(2500), campaigns.total("camp_1"))
}

func TestPaymentFailed_TransitionsPendingOnly(t *testing.T) {
	lc, donations, campaigns, _ := lifecycleFixture()

	pending := donations.add(&models.Donation{
		AmountCents:     1000,
		Status:          models.DonationStatusPending,
		PaymentIntentID: strptr("pi_5"),
	})
	completed := donations.add(&models.Donation{
		AmountCents:     1000,
		Status:          models.DonationStatusCompleted,
		PaymentIntentID: strptr("pi_6"),
	})

	lc.HandleEvent(context.Background(), makeEvent(t, payments.EventPaymentFailed, map[string]any{"id": "pi_5"}))
	lc.HandleEvent(context.Background(), makeEvent(t, payments.EventPaymentFailed, map[string]any{"id": "pi_6"}))

	assert.Equal(t, models.DonationStatusFailed, donations.get(pending.ID).Status)
	assert.Equal(t, models.DonationStatusCompleted, donations.get(completed.ID).Status)
	assert.Equal(t, 0, campaigns.incrementCalls, "failed payments never move campaign totals")
}

func TestPaymentFailed_UnknownIntent_IsNoOp(t *testing.T) {
	lc, donations, _, _ := lifecycleFixture()

	lc.HandleEvent(context.Background(), makeEvent(t, payments.EventPaymentFailed, map[string]any{"id": "pi_missing"}))

	assert.Equal(t, 0, donations.count())
}

func TestSubscriptionCreated_ConfirmsFirstCharge(t *testing.T) {
	lc, donations, campaigns, receipts := lifecycleFixture()

	d := donations.add(&models.Donation{
		AmountCents:    5000,
		Status:         models.DonationStatusPending,
		CampaignID:     strptr("camp_1"),
		SubscriptionID: strptr("sub_1"),
	})

	event := makeEvent(t, payments.EventSubscriptionCreated, map[string]any{"id": "sub_1", "status": "active"})
	lc.HandleEvent(context.Background(), event)
	lc.HandleEvent(context.Background(), event) // redelivery

	assert.Equal(t, models.DonationStatusCompleted, donations.get(d.ID).Status)
	assert.Equal(t, int64(5000), campaigns.total("camp_1"))
	assert.Equal(t, 1, campaigns.incrementCalls)
	assert.Equal(t, 1, receipts.count())
}

func TestSubscriptionUpdated_IsLoggedOnly(t *testing.T) {
	lc, donations, campaigns, receipts := lifecycleFixture()

	d := donations.add(&models.Donation{
		AmountCents:    5000,
		Status:         models.DonationStatusCompleted,
		CampaignID:     strptr("camp_1"),
		SubscriptionID: strptr("sub_1"),
	})

	lc.HandleEvent(context.Background(), makeEvent(t, payments.EventSubscriptionUpdated,
		map[string]any{"id": "sub_1", "status": "past_due"}))

	assert.Equal(t, models.DonationStatusCompleted, donations.get(d.ID).Status)
	assert.Equal(t, 0, campaigns.incrementCalls)
	assert.Equal(t, 0, receipts.count())
}

func TestSubscriptionDeleted_CancelsWithoutReversal(t *testing.T) {
	lc, donations, campaigns, _ := lifecycleFixture()

	campaigns.totals["camp_1"] = 5000 // first charge already counted
	d := donations.add(&models.Donation{
		AmountCents:    5000,
		Status:         models.DonationStatusCompleted,
		CampaignID:     strptr("camp_1"),
		SubscriptionID: strptr("sub_1"),
	})

	lc.HandleEvent(context.Background(), makeEvent(t, payments.EventSubscriptionDeleted, map[string]any{"id": "sub_1"}))

	assert.Equal(t, models.DonationStatusCancelled, donations.get(d.ID).Status)
	assert.Equal(t, int64(5000), campaigns.total("camp_1"), "past completed charges stay counted")
}

func TestInvoicePaid_AppendsNewCompletedDonation(t *testing.T) {
	lc, donations, campaigns, receipts := lifecycleFixture()

	userID := "user_1"
	original := donations.add(&models.Donation{
		UserID:         &userID,
		Email:          "donor@example.edu",
		FirstName:      "Dana",
		LastName:       "Whitfield",
		AmountCents:    5000,
		Currency:       "USD",
		Recurring:      true,
		Status:         models.DonationStatusCompleted,
		CampaignID:     strptr("camp_1"),
		SubscriptionID: strptr("sub_1"),
		IsAnonymous:    true,
	})

	lc.HandleEvent(context.Background(), makeEvent(t, payments.EventInvoicePaid, map[string]any{
		"id":             "in_1",
		"subscription":   "sub_1",
		"payment_intent": "pi_cycle2",
		"amount_paid":    5000,
	}))

	require.Equal(t, 2, donations.count(), "each billing cycle appends a new row")

	charge, err := donations.GetByPaymentIntentID(context.Background(), "pi_cycle2")
	require.NoError(t, err)
	require.NotNil(t, charge)
	assert.NotEqual(t, original.ID, charge.ID)
	assert.True(t, charge.Recurring)
	assert.Equal(t, models.DonationStatusCompleted, charge.Status)
	assert.Equal(t, int64(5000), charge.AmountCents)
	assert.Equal(t, "camp_1", *charge.CampaignID)
	assert.Equal(t, "USD", charge.Currency)
	assert.Equal(t, userID, *charge.UserID)
	assert.True(t, charge.IsAnonymous)

	assert.Equal(t, int64(5000), campaigns.total("camp_1"))
	assert.Equal(t, 1, receipts.count())

	// Original row untouched.
	assert.Equal(t, models.DonationStatusCompleted, donations.get(original.ID).Status)
}

func TestInvoicePaid_RedeliveryDoesNotDoubleCount(t *testing.T) {
	lc, donations, campaigns, _ := lifecycleFixture()

	donations.add(&models.Donation{
		AmountCents:    5000,
		Currency:       "USD",
		Recurring:      true,
		Status:         models.DonationStatusCompleted,
		CampaignID:     strptr("camp_1"),
		SubscriptionID: strptr("sub_1"),
	})

	invoice := makeEvent(t, payments.EventInvoicePaid, map[string]any{
		"id":             "in_1",
		"subscription":   "sub_1",
		"payment_intent": "pi_cycle2",
		"amount_paid":    5000,
	})
	lc.HandleEvent(context.Background(), invoice)
	lc.HandleEvent(context.Background(), invoice)

	assert.Equal(t, 2, donations.count())
	assert.Equal(t, int64(5000), campaigns.total("camp_1"))
	assert.Equal(t, 1, campaigns.incrementCalls)
}

func TestInvoicePaid_MissingPaymentIntent_IsNoOp(t *testing.T) {
	// Without a payment intent id there is no dedup key, so the charge is
	// not recorded: redelivery would otherwise append and increment again
	// on every delivery.
	lc, donations, campaigns, receipts := lifecycleFixture()

	donations.add(&models.Donation{
		AmountCents:    5000,
		Currency:       "USD",
		Recurring:      true,
		Status:         models.DonationStatusCompleted,
		CampaignID:     strptr("camp_1"),
		SubscriptionID: strptr("sub_1"),
	})

	invoice := makeEvent(t, payments.EventInvoicePaid, map[string]any{
		"id":           "in_1",
		"subscription": "sub_1",
		"amount_paid":  5000,
	})
	lc.HandleEvent(context.Background(), invoice)
	lc.HandleEvent(context.Background(), invoice)

	assert.Equal(t, 1, donations.count(), "no row may be appended without a dedup key")
	assert.Equal(t, int64(0), campaigns.total("camp_1"))
	assert.Equal(t, 0, campaigns.incrementCalls)
	assert.Equal(t, 0, receipts.count())
}

func TestInvoicePaid_CampaignlessSubscription_IsNoOp(t *testing.T) {
	lc, donations, campaigns, _ := lifecycleFixture()

	donations.add(&models.Donation{
		AmountCents:    5000,
		Recurring:      true,
		Status:         models.DonationStatusCompleted,
		SubscriptionID: strptr("sub_1"),
	})

	lc.HandleEvent(context.Background(), makeEvent(t, payments.EventInvoicePaid, map[string]any{
		"id":             "in_1",
		"subscription":   "sub_1",
		"payment_intent": "pi_cycle2",
	}))

	assert.Equal(t, 1, donations.count())
	assert.Equal(t, 0, campaigns.incrementCalls)
}

func TestHandleEvent_UnknownType_IsAckedAndIgnored(t *testing.T) {
	lc, donations, campaigns, receipts := lifecycleFixture()

	assert.NotPanics(t, func() {
		lc.HandleEvent(context.Background(), makeEvent(t, "charge.refunded", map[string]any{"id": "ch_1"}))
	})
	assert.Equal(t, 0, donations.count())
	assert.Equal(t, 0, campaigns.incrementCalls)
	assert.Equal(t, 0, receipts.count())
}

func TestHandleEvent_StoreFailureIsSwallowed(t *testing.T) {
	// A transient persistence failure must not escape the dispatcher; the
	// webhook is still acknowledged and redelivery recovers the transition.
	donations := newFakeDonationStore()
	donations.lookupErr = errors.New("connection reset")
	lc := NewDonationLifecycle(donations, newFakeCampaignStore(), &fakeReceiptScheduler{})

	assert.NotPanics(t, func() {
		lc.HandleEvent(context.Background(), paymentSucceeded(t, "pi_1", 100))
	})
}

func TestHandleEvent_MalformedPayloadIsSwallowed(t *testing.T) {
	lc, _, campaigns, _ := lifecycleFixture()

	assert.NotPanics(t, func() {
		lc.HandleEvent(context.Background(), &payments.Event{
			Type: payments.EventPaymentSucceeded,
			Raw:  []byte(`{"amount": "not-a-number"`),
		})
	})
	assert.Equal(t, 0, campaigns.incrementCalls)
}

func TestScenario_CampaignAccumulatesAcrossDonations(t *testing.T) {
	lc, donations, campaigns, _ := lifecycleFixture()

	a := donations.add(&models.Donation{
		AmountCents:     2500,
		Status:          models.DonationStatusPending,
		CampaignID:      strptr("camp_c"),
		PaymentIntentID: strptr("pi_a"),
	})
	donations.add(&models.Donation{
		AmountCents:     1000,
		Status:          models.DonationStatusPending,
		PaymentIntentID: strptr("pi_b"),
	})

	// Donation A completes, then the same event redelivers.
	lc.HandleEvent(context.Background(), paymentSucceeded(t, "pi_a", 2500))
	assert.Equal(t, int64(2500), campaigns.total("camp_c"))
	assert.Equal(t, models.DonationStatusCompleted, donations.get(a.ID).Status)

	lc.HandleEvent(context.Background(), paymentSucceeded(t, "pi_a", 2500))
	assert.Equal(t, int64(2500), campaigns.total("camp_c"))

	// Donation B fails; no campaign anywhere is touched.
	lc.HandleEvent(context.Background(), makeEvent(t, payments.EventPaymentFailed, map[string]any{"id": "pi_b"}))
	assert.Equal(t, int64(2500), campaigns.total("camp_c"))
	assert.Equal(t, 1, campaigns.incrementCalls)
}
