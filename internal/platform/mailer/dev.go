package mailer

import (
	"github.com/sentinelworks/gatepass/pkg/logger"
)

// DevMailer prints mail to the log instead of sending it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("[DEV MAIL]",
		"to", toEmail,
		"name", toName,
		"subject", subject,
		"text", text,
	)
	return "dev", nil
}

func (d *DevMailer) SendPasswordReset(toEmail, toName, resetURL string) error {
	logger.Info("[DEV MAIL] Password Reset",
		"to", toEmail,
		"name", toName,
		"reset_url", resetURL,
	)
	return nil
}
