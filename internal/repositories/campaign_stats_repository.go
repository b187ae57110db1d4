package repositories

import (
	"context"
	"database/sql"
	"time"

	"alumnihub_backend/internal/models"
)

// CampaignStatsRepository runs the reporting queries raw; the aggregates
// span donations and campaigns and GORM adds nothing here.
type CampaignStatsRepository struct {
	db *sql.DB
}

func NewCampaignStatsRepository(db *sql.DB) *CampaignStatsRepository {
	return &CampaignStatsRepository{db: db}
}

func (r *CampaignStatsRepository) GetCampaignStats(ctx context.Context, campaignID string) (*models.CampaignStats, error) {
	query := `
		SELECT c.id, c.title, c.goal_amount_cents, c.current_amount_cents,
		       COUNT(d.id)                                   AS donation_count,
		       COUNT(DISTINCT COALESCE(d.user_id::text, d.email)) AS donor_count,
		       COUNT(d.id) FILTER (WHERE d.recurring)        AS recurring_count,
		       MAX(d.created_at)                             AS last_donation_time
		FROM fundraising_campaigns c
		LEFT JOIN donations d ON d.campaign_id = c.id AND d.status = 'completed'
		WHERE c.id = $1 AND c.deleted_at IS NULL
		GROUP BY c.id
	`
	row := r.db.QueryRowContext(ctx, query, campaignID)

	var stats models.CampaignStats
	var last sql.NullTime
	err := row.Scan(
		&stats.CampaignID,
		&stats.Title,
		&stats.GoalAmountCents,
		&stats.RaisedCents,
		&stats.DonationCount,
		&stats.DonorCount,
		&stats.RecurringCount,
		&last,
	)
	if err != nil {
		return nil, err
	}
	if last.Valid {
		stats.LastDonationTime = &last.Time
	}
	return &stats, nil
}

// GetTopCampaigns ranks campaigns by completed amount raised.
func (r *CampaignStatsRepository) GetTopCampaigns(ctx context.Context, limit int) ([]models.CampaignStats, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT c.id, c.title, c.goal_amount_cents, c.current_amount_cents,
		       COUNT(d.id)                                   AS donation_count,
		       COUNT(DISTINCT COALESCE(d.user_id::text, d.email)) AS donor_count,
		       COUNT(d.id) FILTER (WHERE d.recurring)        AS recurring_count,
		       MAX(d.created_at)                             AS last_donation_time
		FROM fundraising_campaigns c
		LEFT JOIN donations d ON d.campaign_id = c.id AND d.status = 'completed'
		WHERE c.deleted_at IS NULL
		GROUP BY c.id
		ORDER BY c.current_amount_cents DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []models.CampaignStats
	for rows.Next() {
		var stats models.CampaignStats
		var last sql.NullTime
		if err := rows.Scan(
			&stats.CampaignID,
			&stats.Title,
			&stats.GoalAmountCents,
			&stats.RaisedCents,
			&stats.DonationCount,
			&stats.DonorCount,
			&stats.RecurringCount,
			&last,
		); err != nil {
			return nil, err
		}
		if last.Valid {
			stats.LastDonationTime = &last.Time
		}
		all = append(all, stats)
	}
	return all, rows.Err()
}

// GetRevenueByPeriod buckets completed donations by day inside [start, end].
func (r *CampaignStatsRepository) GetRevenueByPeriod(ctx context.Context, start, end time.Time) ([]models.PeriodRevenue, error) {
	query := `
		SELECT date_trunc('day', created_at) AS day,
		       SUM(amount_cents)             AS amount_cents,
		       COUNT(id)                     AS donation_count
		FROM donations
		WHERE status = 'completed'
		  AND created_at BETWEEN $1 AND $2
		GROUP BY day
		ORDER BY day ASC
	`
	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []models.PeriodRevenue
	for rows.Next() {
		var b models.PeriodRevenue
		if err := rows.Scan(&b.Day, &b.AmountCents, &b.DonationCount); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
