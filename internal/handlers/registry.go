package handlers

// AppHandlers bundles every handler for route registration.
type AppHandlers struct {
	AuthHandler     *AuthHandler
	CampaignHandler *CampaignHandler
	DonationHandler *DonationHandler
	ReceiptHandler  *ReceiptHandler
	WebhookHandler  *WebhookHandler
}
