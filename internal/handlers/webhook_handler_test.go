package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumnihub_backend/internal/models"
	"alumnihub_backend/internal/payments"
	"alumnihub_backend/internal/services"
	"alumnihub_backend/internal/validator"
)

// donationStoreSpy records writes; reads resolve from a fixed donation.
type donationStoreSpy struct {
	mu          sync.Mutex
	donation    *models.Donation
	transitions int
	creates     int
}

func (s *donationStoreSpy) Create(ctx context.Context, donation *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	return nil
}

func (s *donationStoreSpy) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Donation, error) {
	if s.donation != nil && s.donation.PaymentIntentID != nil && *s.donation.PaymentIntentID == paymentIntentID {
		return s.donation, nil
	}
	return nil, nil
}

func (s *donationStoreSpy) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Donation, error) {
	return nil, nil
}

func (s *donationStoreSpy) ExistsByPaymentIntentID(ctx context.Context, paymentIntentID string) (bool, error) {
	return false, nil
}

func (s *donationStoreSpy) TransitionStatus(ctx context.Context, id string, from []models.DonationStatus, to models.DonationStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions++
	return 1, nil
}

func (s *donationStoreSpy) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates + s.transitions
}

type campaignStoreSpy struct {
	mu         sync.Mutex
	increments int
}

func (s *campaignStoreSpy) IncrementTotal(ctx context.Context, id string, amountCents int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.increments++
	return nil
}

type schedulerSpy struct{}

func (schedulerSpy) Schedule(donationID string) {}

func webhookTestServer(t *testing.T, donations *donationStoreSpy) (*gin.Engine, *payments.MockProvider, *campaignStoreSpy) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := payments.NewMockProvider("whsec_test")
	campaigns := &campaignStoreSpy{}
	lifecycle := services.NewDonationLifecycle(donations, campaigns, schedulerSpy{})

	handler := NewWebhookHandler(NewBaseHandler(validator.New()), provider, lifecycle)
	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router, provider, campaigns
}

func webhookPayload(t *testing.T, eventType string, object map[string]any) []byte {
	t.Helper()
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	payload, err := json.Marshal(map[string]any{
		"id":   "evt_test",
		"type": eventType,
		"data": map[string]any{"object": json.RawMessage(raw)},
	})
	require.NoError(t, err)
	return payload
}

func postWebhook(router *gin.Engine, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set(payments.SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_ValidSignatureProcessesEvent(t *testing.T) {
	pi := "pi_1"
	donations := &donationStoreSpy{donation: &models.Donation{
		AmountCents:     2500,
		Status:          models.DonationStatusPending,
		PaymentIntentID: &pi,
	}}
	donations.donation.ID = "don_1"
	router, provider, _ := webhookTestServer(t, donations)

	payload := webhookPayload(t, payments.EventPaymentSucceeded, map[string]any{"id": "pi_1", "amount": 2500})
	rec := postWebhook(router, payload, provider.Sign(payload))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received": true}`, rec.Body.String())
	assert.Equal(t, 1, donations.writes())
}

func TestWebhook_BadSignatureIsRejectedWithoutSideEffects(t *testing.T) {
	donations := &donationStoreSpy{}
	router, _, campaigns := webhookTestServer(t, donations)

	payload := webhookPayload(t, payments.EventPaymentSucceeded, map[string]any{"id": "pi_1", "amount": 2500})
	rec := postWebhook(router, payload, "deadbeef")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, donations.writes(), "unverified events must not touch storage")
	assert.Equal(t, 0, campaigns.increments)
}

func TestWebhook_MissingSignatureIsRejected(t *testing.T) {
	donations := &donationStoreSpy{}
	router, _, _ := webhookTestServer(t, donations)

	payload := webhookPayload(t, payments.EventPaymentSucceeded, map[string]any{"id": "pi_1"})
	rec := postWebhook(router, payload, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, donations.writes())
}

func TestWebhook_UnknownEventTypeIsAcked(t *testing.T) {
	donations := &donationStoreSpy{}
	router, provider, _ := webhookTestServer(t, donations)

	payload := webhookPayload(t, "charge.refunded", map[string]any{"id": "ch_1"})
	rec := postWebhook(router, payload, provider.Sign(payload))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, donations.writes())
}

func TestWebhook_HandlerFailureStillAcks(t *testing.T) {
	// The event is authenticated but references an unknown payment intent;
	// the provider must still get a 2xx so it stops redelivering.
	donations := &donationStoreSpy{}
	router, provider, _ := webhookTestServer(t, donations)

	payload := webhookPayload(t, payments.EventPaymentSucceeded, map[string]any{"id": "pi_unknown", "amount": 100})
	rec := postWebhook(router, payload, provider.Sign(payload))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, donations.writes())
}
