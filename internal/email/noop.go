package email

import "alumnihub_backend/internal/logger"

// NoopSender is used when email delivery is disabled; it only logs.
type NoopSender struct{}

func (NoopSender) Send(to, subject, htmlBody string) error {
	logger.Info("email delivery disabled, dropping message", "to", to, "subject", subject)
	return nil
}
