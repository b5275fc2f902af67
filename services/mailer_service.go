package services

import (
	"fmt"
	"log"
	"net/smtp"

	"service-platform-server/config"
)

// MailerService sends transactional email over SMTP. When SMTP is not
// configured, sends are logged and skipped so flows stay usable in dev.
type MailerService struct{}

// NewMailerService creates a new mailer service
func NewMailerService() *MailerService {
	return &MailerService{}
}

// Send delivers a plain-text email to a single recipient
func (ms *MailerService) Send(to, subject, body string) error {
	cfg := config.AppConfig.SMTP
	if cfg.Host == "" {
		log.Printf("⚠️ SMTP not configured, skipping email to %s: %s", to, subject)
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", cfg.From, to, subject, body)

	addr := cfg.Host + ":" + cfg.Port
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("✅ Email sent to %s: %s", to, subject)
	return nil
}

// SendOTP emails a verification code
func (ms *MailerService) SendOTP(to, code string) error {
	body := fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", code)
	return ms.Send(to, "Your verification code", body)
}

// SendPasswordReset emails a password reset code
func (ms *MailerService) SendPasswordReset(to, code string) error {
	body := fmt.Sprintf("Your password reset code is %s. It expires in 5 minutes.\n\nIf you did not request a reset, you can ignore this email.", code)
	return ms.Send(to, "Password reset code", body)
}

// SendWorkerCredentials emails login credentials to a newly approved worker
func (ms *MailerService) SendWorkerCredentials(to, name, email, password string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour worker application has been approved.\n\nLogin email: %s\nTemporary password: %s\n\nPlease change your password after your first login.",
		name, email, password,
	)
	return ms.Send(to, "Your worker account is ready", body)
}
