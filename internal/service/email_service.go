package service

import (
	"fmt"
	"net/smtp"

	"depanku-backend/internal/config"
)

// EmailService delivers transactional mail over SMTP. When email is
// disabled in the configuration every call is a no-op.
type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) Enabled() bool {
	return s.cfg.EnableEmail && s.cfg.SMTPHost != ""
}

func (s *EmailService) Send(to, subject, body string) error {
	if !s.Enabled() {
		return nil
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)

	msg := fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		s.cfg.SiteName, s.cfg.SMTPFrom, to, subject, body,
	)

	return smtp.SendMail(addr, auth, s.cfg.SMTPFrom, []string{to}, []byte(msg))
}
