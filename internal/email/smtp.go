package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPSender delivers mail through an SMTP relay via gomail.
type SMTPSender struct {
	cfg Config
}

func NewSMTPSender(cfg Config) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, fmt.Errorf("smtp host and port are required")
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("from address is required")
	}
	return &SMTPSender{cfg: cfg}, nil
}

func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.FromEmail, s.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	return d.DialAndSend(m)
}
