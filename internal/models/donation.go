package models

// Donation is one attempted charge. Recurring agreements keep the original
// row as the subscription anchor; every later billing cycle appends a new
// completed row referencing the same campaign (append-only ledger).
type Donation struct {
	BaseModel
	UserID          *string        `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Email           string         `gorm:"index" json:"email"`
	FirstName       string         `json:"first_name"`
	LastName        string         `json:"last_name"`
	AmountCents     int64          `gorm:"not null" json:"amount_cents"`
	Currency        string         `gorm:"type:varchar(3);default:'USD'" json:"currency"`
	Recurring       bool           `gorm:"default:false" json:"recurring"`
	Status          DonationStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	CampaignID      *string        `gorm:"type:uuid;index" json:"campaign_id,omitempty"`
	PaymentIntentID *string        `gorm:"uniqueIndex" json:"payment_intent_id,omitempty"`
	SubscriptionID  *string        `gorm:"index" json:"subscription_id,omitempty"`
	IsAnonymous     bool           `gorm:"default:false" json:"is_anonymous"`

	Campaign *FundraisingCampaign `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
	Receipts []Receipt            `gorm:"foreignKey:DonationID" json:"receipts,omitempty"`
}

type CreateDonationRequest struct {
	Email       string `json:"email" validate:"required,email"`
	FirstName   string `json:"first_name" validate:"max=100"`
	LastName    string `json:"last_name" validate:"max=100"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	Currency    string `json:"currency" validate:"required,currency"`
	Recurring   bool   `json:"recurring"`
	CampaignID  string `json:"campaign_id" validate:"omitempty,uuid4"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// DonationFilter narrows admin donation listings.
type DonationFilter struct {
	Status     DonationStatus
	CampaignID string
	UserID     string
	Recurring  *bool
	Page       int
	PageSize   int
}
