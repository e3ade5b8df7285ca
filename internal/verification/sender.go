package verification

import (
	"fmt"

	"buzzchat_backend/internal/config"
	"buzzchat_backend/internal/logger"

	"gopkg.in/gomail.v2"
)

// Sender delivers a verification code to a recipient. Delivery is
// fire-and-forget from the core's point of view.
type Sender interface {
	Send(recipient, code string) error
}

// LogSender writes codes to the log. Used in development and as the SMS
// stand-in until a provider is wired.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(recipient, code string) error {
	logger.Info("verification code issued", "recipient", recipient, "code", code)
	return nil
}

// EmailSender delivers codes over SMTP.
type EmailSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailSender(cfg *config.Config) *EmailSender {
	dialer := gomail.NewDialer(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUsername,
		cfg.Email.SMTPPassword,
	)
	return &EmailSender{
		dialer: dialer,
		from:   fmt.Sprintf("%s <%s>", cfg.Email.FromName, cfg.Email.FromEmail),
	}
}

func (s *EmailSender) Send(recipient, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", "Your verification code")
	m.SetBody("text/plain", fmt.Sprintf("Your verification code is: %s", code))

	return s.dialer.DialAndSend(m)
}

// NewSender picks the sender implementation from config.
func NewSender(cfg *config.Config) Sender {
	switch cfg.Verification.Channel {
	case "email":
		return NewEmailSender(cfg)
	default:
		return NewLogSender()
	}
}
