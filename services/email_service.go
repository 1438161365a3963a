package services

import (
	"fmt"
	"html"

	"invoicer/config"

	"gopkg.in/gomail.v2"
)

// Mailer отправляет письма
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// EmailService предоставляет методы для отправки email через SMTP
type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService создает новый экземпляр EmailService
func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		dialer: dialer,
		from:   cfg.SMTP.From,
	}
}

// SendEmail отправляет email
func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func signatureOTPEmail(quoteNumber, code string) (subject, body string) {
	subject = fmt.Sprintf("Your signing code for quote %s", quoteNumber)
	body = fmt.Sprintf(`
		<h2>Quote signature</h2>
		<p>Use this code to sign quote <strong>%s</strong>:</p>
		<p style="font-size:24px;letter-spacing:4px"><strong>%s</strong></p>
		<p>The code expires in 15 minutes and can only be used once.</p>
	`, html.EscapeString(quoteNumber), code)
	return subject, body
}

func dangerZoneOTPEmail(code string) (subject, body string) {
	subject = "Confirmation code for a destructive action"
	body = fmt.Sprintf(`
		<h2>Danger zone</h2>
		<p>Someone requested to reset data on your account. Confirmation code:</p>
		<p style="font-size:24px;letter-spacing:4px"><strong>%s</strong></p>
		<p>The code expires in 10 minutes. If this was not you, ignore this message.</p>
	`, code)
	return subject, body
}
