package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"alumnihub_backend/internal/logger"
	"alumnihub_backend/internal/models"
	"alumnihub_backend/internal/payments"
	"alumnihub_backend/internal/repositories"
	"alumnihub_backend/pkg/apperrors"
)

// DonationCheckout is what the client needs to finish payment: the pending
// donation row plus the provider's client secret for its payment form.
type DonationCheckout struct {
	Donation     *models.Donation `json:"donation"`
	ClientSecret string           `json:"client_secret"`
}

// DonationService handles checkout initiation and donation reads. After
// initiation the donation is owned by the webhook lifecycle; nothing here
// mutates status.
type DonationService struct {
	donations *repositories.DonationRepository
	campaigns *repositories.CampaignRepository
	provider  payments.Provider
}

func NewDonationService(donations *repositories.DonationRepository, campaigns *repositories.CampaignRepository, provider payments.Provider) *DonationService {
	return &DonationService{
		donations: donations,
		campaigns: campaigns,
		provider:  provider,
	}
}

// InitiateDonation registers the charge with the payment provider and
// persists a PENDING donation carrying the provider reference. The status
// only moves when the corresponding webhook event arrives.
func (s *DonationService) InitiateDonation(ctx context.Context, req *models.CreateDonationRequest, userID *string) (*DonationCheckout, error) {
	var campaignID *string
	if req.CampaignID != "" {
		campaign, err := s.campaigns.GetByID(ctx, req.CampaignID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if !campaign.IsActive(time.Now()) {
			return nil, apperrors.ErrCampaignNotActive
		}
		campaignID = &campaign.ID
	}

	donation := &models.Donation{
		UserID:      userID,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Recurring:   req.Recurring,
		Status:      models.DonationStatusPending,
		CampaignID:  campaignID,
		IsAnonymous: req.IsAnonymous,
	}

	description := "Alumni donation"
	if campaignID != nil {
		description = fmt.Sprintf("Alumni donation to campaign %s", *campaignID)
	}

	var clientSecret string
	if req.Recurring {
		sub, err := s.provider.CreateSubscription(ctx, payments.SubscriptionRequest{
			AmountCents: req.AmountCents,
			Currency:    req.Currency,
			Email:       req.Email,
			Description: description,
			Interval:    "month",
		})
		if err != nil {
			logger.CtxWithError(ctx, "provider subscription creation failed", err, "email", req.Email)
			return nil, apperrors.ErrPaymentProvider
		}
		donation.SubscriptionID = &sub.ID
		clientSecret = sub.ClientSecret
	} else {
		intent, err := s.provider.CreatePaymentIntent(ctx, payments.IntentRequest{
			AmountCents: req.AmountCents,
			Currency:    req.Currency,
			Email:       req.Email,
			Description: description,
			Metadata:    map[string]string{"source": "alumnihub"},
		})
		if err != nil {
			logger.CtxWithError(ctx, "provider intent creation failed", err, "email", req.Email)
			return nil, apperrors.ErrPaymentProvider
		}
		donation.PaymentIntentID = &intent.ID
		clientSecret = intent.ClientSecret
	}

	if err := s.donations.Create(ctx, donation); err != nil {
		// The provider-side object is now orphaned; it expires unconfirmed
		// on the provider and never produces a matching donation.
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "donation initiated",
		"donation_id", donation.ID,
		"amount_cents", donation.AmountCents,
		"recurring", donation.Recurring,
	)
	return &DonationCheckout{Donation: donation, ClientSecret: clientSecret}, nil
}

func (s *DonationService) GetDonation(ctx context.Context, id string) (*models.Donation, error) {
	donation, err := s.donations.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return donation, nil
}

func (s *DonationService) ListDonations(ctx context.Context, filter models.DonationFilter) ([]models.Donation, int64, error) {
	donations, total, err := s.donations.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}
	return donations, total, nil
}
