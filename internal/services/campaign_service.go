package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"alumnihub_backend/internal/models"
	"alumnihub_backend/internal/repositories"
	"alumnihub_backend/pkg/apperrors"
)

// CampaignService manages fundraising campaigns. Campaign totals are not
// touched here: only the webhook lifecycle moves CurrentAmountCents.
type CampaignService struct {
	campaigns *repositories.CampaignRepository
	stats     *repositories.CampaignStatsRepository
}

func NewCampaignService(campaigns *repositories.CampaignRepository, stats *repositories.CampaignStatsRepository) *CampaignService {
	return &CampaignService{campaigns: campaigns, stats: stats}
}

func (s *CampaignService) CreateCampaign(ctx context.Context, req *models.CreateCampaignRequest, createdByID string) (*models.FundraisingCampaign, error) {
	if !req.EndDate.After(req.StartDate) {
		return nil, apperrors.ErrCampaignDatesInvalid
	}

	campaign := &models.FundraisingCampaign{
		Title:           req.Title,
		Description:     req.Description,
		GoalAmountCents: req.GoalAmountCents,
		Currency:        req.Currency,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		CoverImageURL:   req.CoverImageURL,
		CreatedByID:     createdByID,
	}
	if req.Metadata != nil {
		raw, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, apperrors.NewBadRequestError("invalid campaign metadata")
		}
		campaign.Metadata = datatypes.JSON(raw)
	}

	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return campaign, nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, id string) (*models.FundraisingCampaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return campaign, nil
}

func (s *CampaignService) UpdateCampaign(ctx context.Context, id string, req *models.UpdateCampaignRequest) (*models.FundraisingCampaign, error) {
	campaign, err := s.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		campaign.Title = *req.Title
	}
	if req.Description != nil {
		campaign.Description = *req.Description
	}
	if req.GoalAmountCents != nil {
		campaign.GoalAmountCents = *req.GoalAmountCents
	}
	if req.StartDate != nil {
		campaign.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		campaign.EndDate = *req.EndDate
	}
	if req.CoverImageURL != nil {
		campaign.CoverImageURL = *req.CoverImageURL
	}

	if !campaign.EndDate.After(campaign.StartDate) {
		return nil, apperrors.ErrCampaignDatesInvalid
	}

	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return campaign, nil
}

func (s *CampaignService) DeleteCampaign(ctx context.Context, id string) error {
	if _, err := s.GetCampaign(ctx, id); err != nil {
		return err
	}
	if err := s.campaigns.Delete(ctx, id); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *CampaignService) ListCampaigns(ctx context.Context, filter models.CampaignFilter) ([]models.FundraisingCampaign, int64, error) {
	campaigns, total, err := s.campaigns.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}
	return campaigns, total, nil
}

func (s *CampaignService) GetCampaignStats(ctx context.Context, campaignID string) (*models.CampaignStats, error) {
	if _, err := s.GetCampaign(ctx, campaignID); err != nil {
		return nil, err
	}
	stats, err := s.stats.GetCampaignStats(ctx, campaignID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return stats, nil
}

func (s *CampaignService) GetTopCampaigns(ctx context.Context, limit int) ([]models.CampaignStats, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	stats, err := s.stats.GetTopCampaigns(ctx, limit)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return stats, nil
}

func (s *CampaignService) GetRevenueByPeriod(ctx context.Context, start, end time.Time) ([]models.PeriodRevenue, error) {
	if !end.After(start) {
		return nil, apperrors.NewBadRequestError("end must be after start")
	}
	revenue, err := s.stats.GetRevenueByPeriod(ctx, start, end)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return revenue, nil
}
