package models

import (
	"time"

	"gorm.io/datatypes"
)

// FundraisingCampaign accumulates completed donation amounts in
// CurrentAmountCents. The counter is only ever moved by the storage-level
// atomic increment, never by read-modify-write.
type FundraisingCampaign struct {
	BaseModelWithDeleted
	Title              string         `gorm:"not null" json:"title"`
	Description        string         `gorm:"type:text" json:"description"`
	GoalAmountCents    int64          `gorm:"not null" json:"goal_amount_cents"`
	CurrentAmountCents int64          `gorm:"not null;default:0" json:"current_amount_cents"`
	Currency           string         `gorm:"type:varchar(3);default:'USD'" json:"currency"`
	StartDate          time.Time      `gorm:"index" json:"start_date"`
	EndDate            time.Time      `gorm:"index" json:"end_date"`
	CoverImageURL      string         `json:"cover_image_url,omitempty"`
	Metadata           datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedByID        string         `gorm:"type:uuid;index" json:"created_by_id"`
}

// State derives the lifecycle state from the campaign dates.
func (c *FundraisingCampaign) State(now time.Time) CampaignState {
	switch {
	case now.Before(c.StartDate):
		return CampaignStateUpcoming
	case now.After(c.EndDate):
		return CampaignStateEnded
	default:
		return CampaignStateActive
	}
}

func (c *FundraisingCampaign) IsActive(now time.Time) bool {
	return c.State(now) == CampaignStateActive
}

type CreateCampaignRequest struct {
	Title           string         `json:"title" validate:"required,min=3,max=200"`
	Description     string         `json:"description" validate:"max=10000"`
	GoalAmountCents int64          `json:"goal_amount_cents" validate:"required,gt=0"`
	Currency        string         `json:"currency" validate:"required,currency"`
	StartDate       time.Time      `json:"start_date" validate:"required"`
	EndDate         time.Time      `json:"end_date" validate:"required"`
	CoverImageURL   string         `json:"cover_image_url" validate:"omitempty,url"`
	Metadata        map[string]any `json:"metadata"`
}

type UpdateCampaignRequest struct {
	Title           *string    `json:"title" validate:"omitempty,min=3,max=200"`
	Description     *string    `json:"description" validate:"omitempty,max=10000"`
	GoalAmountCents *int64     `json:"goal_amount_cents" validate:"omitempty,gt=0"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	CoverImageURL   *string    `json:"cover_image_url" validate:"omitempty,url"`
}

// CampaignFilter narrows campaign listings.
type CampaignFilter struct {
	State    CampaignState
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}
