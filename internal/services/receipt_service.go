package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"gorm.io/gorm"

	"alumnihub_backend/internal/email"
	"alumnihub_backend/internal/logger"
	"alumnihub_backend/internal/models"
	"alumnihub_backend/internal/repositories"
	"alumnihub_backend/internal/storage"
	"alumnihub_backend/pkg/apperrors"
)

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Donation Receipt {{.Number}}</title></head>
<body>
  <h1>Donation Receipt</h1>
  <p>Receipt number: <strong>{{.Number}}</strong></p>
  <p>Date: {{.IssuedAt}}</p>
  <p>Donor: {{.DonorName}}</p>
  <p>Amount: <strong>{{.Amount}}</strong></p>
  {{if .CampaignTitle}}<p>Campaign: {{.CampaignTitle}}</p>{{end}}
  {{if .Recurring}}<p>This is a recurring donation charge.</p>{{end}}
  <p>Thank you for supporting your alma mater.</p>
</body>
</html>
`))

type receiptData struct {
	Number        string
	IssuedAt      string
	DonorName     string
	Amount        string
	CampaignTitle string
	Recurring     bool
}

// ReceiptService renders, stores and emails donation receipts. Generation
// runs on the background worker; only the admin re-trigger calls it inline.
type ReceiptService struct {
	donations *repositories.DonationRepository
	receipts  *repositories.ReceiptRepository
	store     storage.Storage
	mail      email.Sender
}

func NewReceiptService(donations *repositories.DonationRepository, receipts *repositories.ReceiptRepository, store storage.Storage, mail email.Sender) *ReceiptService {
	return &ReceiptService{
		donations: donations,
		receipts:  receipts,
		store:     store,
		mail:      mail,
	}
}

// Generate issues a new receipt for a completed donation: render, persist
// the artifact, record the attempt as current, then email the donor. The
// email is best effort; a send failure does not fail generation.
func (s *ReceiptService) Generate(ctx context.Context, donationID string) error {
	donation, err := s.donations.GetByID(ctx, donationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound(err)
	}
	if err != nil {
		return apperrors.InternalError(err)
	}
	if donation.Status != models.DonationStatusCompleted {
		return apperrors.ErrDonationNotCompleted
	}

	now := time.Now().UTC()
	number, err := newReceiptNumber(now)
	if err != nil {
		return apperrors.InternalError(err)
	}

	var body bytes.Buffer
	data := receiptData{
		Number:    number,
		IssuedAt:  now.Format("January 2, 2006"),
		DonorName: donorDisplayName(donation),
		Amount:    formatAmount(donation.AmountCents, donation.Currency),
		Recurring: donation.Recurring,
	}
	if donation.Campaign != nil {
		data.CampaignTitle = donation.Campaign.Title
	}
	if err := receiptTemplate.Execute(&body, data); err != nil {
		return apperrors.InternalError(err)
	}

	path := fmt.Sprintf("receipts/%d/%s.html", now.Year(), number)
	if err := s.store.Save(ctx, path, bytes.NewReader(body.Bytes()), "text/html; charset=utf-8"); err != nil {
		return apperrors.InternalError(err)
	}
	url, err := s.store.GetURL(ctx, path)
	if err != nil {
		return apperrors.InternalError(err)
	}

	receipt := &models.Receipt{
		DonationID:    donation.ID,
		ReceiptNumber: number,
		ArtifactPath:  path,
		ArtifactURL:   url,
	}

	if donation.Email != "" {
		subject := fmt.Sprintf("Your donation receipt %s", number)
		if err := s.mail.Send(donation.Email, subject, body.String()); err != nil {
			logger.CtxWithError(ctx, "receipt email failed", err, "donation_id", donation.ID, "receipt_number", number)
		} else {
			receipt.EmailedTo = donation.Email
		}
	}

	if err := s.receipts.CreateCurrent(ctx, receipt); err != nil {
		return apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "receipt issued", "donation_id", donation.ID, "receipt_number", number)
	return nil
}

func (s *ReceiptService) GetCurrentReceipt(ctx context.Context, donationID string) (*models.Receipt, error) {
	receipt, err := s.receipts.GetCurrentByDonation(ctx, donationID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if receipt == nil {
		return nil, apperrors.ErrNotFound(gorm.ErrRecordNotFound)
	}
	return receipt, nil
}

func (s *ReceiptService) ListReceipts(ctx context.Context, donationID string) ([]models.Receipt, error) {
	receipts, err := s.receipts.ListByDonation(ctx, donationID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return receipts, nil
}

// newReceiptNumber returns AH-<year>-<random token>. The unique index on
// receipt_number catches the astronomically unlikely collision.
func newReceiptNumber(now time.Time) (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("AH-%d-%s", now.Year(), strings.ToUpper(hex.EncodeToString(buf))), nil
}

func donorDisplayName(d *models.Donation) string {
	if d.IsAnonymous {
		return "Anonymous donor"
	}
	name := strings.TrimSpace(d.FirstName + " " + d.LastName)
	if name == "" {
		return d.Email
	}
	return name
}

func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%.2f %s", float64(cents)/100, currency)
}
