package email

// Sender delivers transactional mail. Implementations must treat failures
// as non-fatal to callers; delivery is best-effort.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// Config for the SMTP sender.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}
