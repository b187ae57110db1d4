package models

// Receipt is one issuance attempt for a completed donation. A donation may
// accumulate several attempts; exactly one carries IsCurrent.
type Receipt struct {
	BaseModel
	DonationID    string `gorm:"type:uuid;not null;index" json:"donation_id"`
	ReceiptNumber string `gorm:"uniqueIndex;not null" json:"receipt_number"`
	ArtifactPath  string `gorm:"not null" json:"-"`
	ArtifactURL   string `json:"artifact_url"`
	IsCurrent     bool   `gorm:"default:false;index" json:"is_current"`
	EmailedTo     string `json:"emailed_to,omitempty"`
}
