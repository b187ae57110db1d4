package models

import "time"

// CampaignStats aggregates completed donations for one campaign.
type CampaignStats struct {
	CampaignID       string `json:"campaign_id"`
	Title            string `json:"title"`
	GoalAmountCents  int64  `json:"goal_amount_cents"`
	RaisedCents      int64  `json:"raised_cents"`
	DonationCount    int64  `json:"donation_count"`
	DonorCount       int64  `json:"donor_count"`
	RecurringCount   int64  `json:"recurring_count"`
	LastDonationTime *time.Time `json:"last_donation_time,omitempty"`
}

// PeriodRevenue is completed-donation revenue bucketed by day.
type PeriodRevenue struct {
	Day           time.Time `json:"day"`
	AmountCents   int64     `json:"amount_cents"`
	DonationCount int64     `json:"donation_count"`
}
