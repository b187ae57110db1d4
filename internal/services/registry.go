package services

// ServiceContainer bundles every service for handler wiring.
type ServiceContainer struct {
	Auth      *AuthService
	Campaigns *CampaignService
	Donations *DonationService
	Receipts  *ReceiptService
	Lifecycle *DonationLifecycle
}
