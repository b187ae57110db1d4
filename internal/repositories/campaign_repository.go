package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"alumnihub_backend/internal/models"
)

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) Create(ctx context.Context, campaign *models.FundraisingCampaign) error {
	return r.db.WithContext(ctx).Create(campaign).Error
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*models.FundraisingCampaign, error) {
	var campaign models.FundraisingCampaign
	err := r.db.WithContext(ctx).First(&campaign, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *CampaignRepository) Update(ctx context.Context, campaign *models.FundraisingCampaign) error {
	return r.db.WithContext(ctx).Save(campaign).Error
}

func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.FundraisingCampaign{}, "id = ?", id).Error
}

// IncrementTotal moves the running total with a single atomic UPDATE at the
// database. Two concurrent completions on the same campaign both land; a
// read-modify-write here would lose one.
func (r *CampaignRepository) IncrementTotal(ctx context.Context, id string, amountCents int64) error {
	return r.db.WithContext(ctx).
		Model(&models.FundraisingCampaign{}).
		Where("id = ?", id).
		UpdateColumn("current_amount_cents", gorm.Expr("current_amount_cents + ?", amountCents)).
		Error
}

func (r *CampaignRepository) List(ctx context.Context, filter models.CampaignFilter) ([]models.FundraisingCampaign, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FundraisingCampaign{})

	now := time.Now()
	switch filter.State {
	case models.CampaignStateActive:
		query = query.Where("start_date <= ? AND end_date >= ?", now, now)
	case models.CampaignStateUpcoming:
		query = query.Where("start_date > ?", now)
	case models.CampaignStateEnded:
		query = query.Where("end_date < ?", now)
	}

	if filter.DateFrom != nil {
		query = query.Where("end_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("start_date <= ?", *filter.DateTo)
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

	var campaigns []models.FundraisingCampaign
	err := query.
		Order("start_date DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&campaigns).Error
	if err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}
