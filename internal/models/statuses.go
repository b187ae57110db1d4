package models

type UserStatus string
type UserRole string
type DonationStatus string
type CampaignState string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"

	UserRoleAlumnus UserRole = "alumnus"
	UserRoleStaff   UserRole = "staff"
	UserRoleAdmin   UserRole = "admin"

	DonationStatusPending   DonationStatus = "pending"
	DonationStatusCompleted DonationStatus = "completed"
	DonationStatusFailed    DonationStatus = "failed"
	DonationStatusCancelled DonationStatus = "cancelled"

	CampaignStateUpcoming CampaignState = "upcoming"
	CampaignStateActive   CampaignState = "active"
	CampaignStateEnded    CampaignState = "ended"
)

// IsTerminal reports whether no handler-driven transition leaves the status.
func (s DonationStatus) IsTerminal() bool {
	switch s {
	case DonationStatusCompleted, DonationStatusFailed, DonationStatusCancelled:
		return true
	}
	return false
}
