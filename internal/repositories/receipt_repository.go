package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"alumnihub_backend/internal/models"
)

type ReceiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// CreateCurrent persists a new receipt attempt and makes it the donation's
// current receipt in one transaction, demoting any earlier attempt.
func (r *ReceiptRepository) CreateCurrent(ctx context.Context, receipt *models.Receipt) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Receipt{}).
			Where("donation_id = ? AND is_current", receipt.DonationID).
			Update("is_current", false).Error; err != nil {
			return err
		}
		receipt.IsCurrent = true
		return tx.Create(receipt).Error
	})
}

func (r *ReceiptRepository) GetCurrentByDonation(ctx context.Context, donationID string) (*models.Receipt, error) {
	var receipt models.Receipt
	err := r.db.WithContext(ctx).
		Where("donation_id = ? AND is_current", donationID).
		First(&receipt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *ReceiptRepository) ListByDonation(ctx context.Context, donationID string) ([]models.Receipt, error) {
	var receipts []models.Receipt
	err := r.db.WithContext(ctx).
		Where("donation_id = ?", donationID).
		Order("created_at DESC").
		Find(&receipts).Error
	return receipts, err
}
