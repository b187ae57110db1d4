package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"alumnihub_backend/internal/models"
)

type DonationRepository struct {
	db *gorm.DB
}

func NewDonationRepository(db *gorm.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

func (r *DonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	return r.db.WithContext(ctx).Create(donation).Error
}

func (r *DonationRepository) GetByID(ctx context.Context, id string) (*models.Donation, error) {
	var donation models.Donation
	err := r.db.WithContext(ctx).Preload("Campaign").First(&donation, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &donation, nil
}

// GetByPaymentIntentID returns (nil, nil) when no donation matches; a stray
// or duplicate webhook is not an error.
func (r *DonationRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Donation, error) {
	var donation models.Donation
	err := r.db.WithContext(ctx).First(&donation, "payment_intent_id = ?", paymentIntentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &donation, nil
}

// GetBySubscriptionID returns the subscription's anchor donation: the
// earliest row carrying the external subscription id.
func (r *DonationRepository) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Donation, error) {
	var donation models.Donation
	err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at ASC").
		First(&donation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &donation, nil
}

// TransitionStatus performs the guarded state change as a single UPDATE:
// `SET status = to WHERE id = ? AND status IN (from...)`. The returned row
// count is the concurrency-safe signal: zero means another delivery already
// moved the donation, and the caller must skip its side effects.
func (r *DonationRepository) TransitionStatus(ctx context.Context, id string, from []models.DonationStatus, to models.DonationStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

func (r *DonationRepository) ExistsByPaymentIntentID(ctx context.Context, paymentIntentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("payment_intent_id = ?", paymentIntentID).
		Count(&count).Error
	return count > 0, err
}

func (r *DonationRepository) List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Donation{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CampaignID != "" {
		query = query.Where("campaign_id = ?", filter.CampaignID)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Recurring != nil {
		query = query.Where("recurring = ?", *filter.Recurring)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	var donations []models.Donation
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&donations).Error
	if err != nil {
		return nil, 0, err
	}

	return donations, total, nil
}
