package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"strings"

	"github.com/mailersend/mailersend-go"
	"github.com/sirupsen/logrus"
	"github.com/villarent/reservation-api/internal/config"
	"github.com/villarent/reservation-api/internal/models"
	gomail "gopkg.in/gomail.v2"
)

// Notifier delivers a single HTML email
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// NewNotifier picks the mail transport named in cfg.Provider
func NewNotifier(cfg config.MailConfig, logger *logrus.Logger) Notifier {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPNotifier(cfg, logger)
	case "mailersend":
		return NewMailerSendNotifier(cfg, logger)
	default:
		return NewLogNotifier(logger)
	}
}

// ============================================================================
// SMTP
// ============================================================================

// SMTPNotifier sends mail through an SMTP relay
type SMTPNotifier struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
	logger   *logrus.Logger
}

// NewSMTPNotifier creates an SMTP notifier
func NewSMTPNotifier(cfg config.MailConfig, logger *logrus.Logger) *SMTPNotifier {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	dialer.TLSConfig = &tls.Config{ServerName: cfg.SMTPHost}

	return &SMTPNotifier{
		dialer:   dialer,
		from:     cfg.FromEmail,
		fromName: cfg.FromName,
		logger:   logger,
	}
}

// Send delivers the message over SMTP
func (n *SMTPNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(n.from, n.fromName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	// gomail has no context support; the caller is released on ctx.Done()
	// while the SMTP exchange finishes or fails on its own
	done := make(chan error, 1)
	go func() {
		done <- n.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
	case <-ctx.Done():
		n.logger.WithFields(logrus.Fields{"to": to, "subject": subject}).Warn("Gave up waiting for SMTP relay")
		return ctx.Err()
	}

	n.logger.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email sent via SMTP")
	return nil
}

// ============================================================================
// MAILERSEND
// ============================================================================

// MailerSendNotifier sends mail through the MailerSend HTTP API
type MailerSendNotifier struct {
	client *mailersend.Mailersend
	from   mailersend.From
	logger *logrus.Logger
}

// NewMailerSendNotifier creates a MailerSend notifier
func NewMailerSendNotifier(cfg config.MailConfig, logger *logrus.Logger) *MailerSendNotifier {
	return &MailerSendNotifier{
		client: mailersend.NewMailersend(cfg.MailerSendAPIKey),
		from:   mailersend.From{Name: cfg.FromName, Email: cfg.FromEmail},
		logger: logger,
	}
}

// Send delivers the message through MailerSend
func (n *MailerSendNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	message := n.client.Email.NewMessage()
	message.SetFrom(n.from)
	message.SetRecipients([]mailersend.Recipient{{Email: to}})
	message.SetSubject(subject)
	message.SetHTML(htmlBody)

	res, err := n.client.Email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.WithFields(logrus.Fields{
		"to":         to,
		"message_id": res.Header.Get("X-Message-Id"),
	}).Info("Email sent via MailerSend")
	return nil
}

// ============================================================================
// LOG ONLY
// ============================================================================

// LogNotifier only logs what would have been sent. Used when mail is not configured.
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the message and reports success
func (n *LogNotifier) Send(_ context.Context, to, subject, _ string) error {
	n.logger.WithFields(logrus.Fields{"to": to, "subject": subject}).Warn("Mail not configured, skipping email")
	return nil
}

// ============================================================================
// TEMPLATES
// ============================================================================

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Your reservation is confirmed</h2>
  <p>Dear {{.GuestName}},</p>
  <p>Thank you for your deposit. Your stay at <strong>{{.VillaName}}</strong> is confirmed.</p>
  <table cellpadding="4">
    <tr><td>Reservation code</td><td><strong>{{.Code}}</strong></td></tr>
    <tr><td>Check-in</td><td>{{.CheckIn}}</td></tr>
    <tr><td>Check-out</td><td>{{.CheckOut}}</td></tr>
    <tr><td>Nights</td><td>{{.Nights}}</td></tr>
    <tr><td>Deposit paid</td><td>{{.Deposit}} {{.Currency}}</td></tr>
  </table>
  <p>Please keep your reservation code for check-in.</p>
</body>
</html>`))

// ReservationConfirmedEmail renders the confirmation subject and HTML body
func ReservationConfirmedEmail(r *models.Reservation) (string, string, error) {
	villa := r.VillaName
	if villa == "" {
		villa = fmt.Sprintf("villa #%d", r.VillaID)
	}

	data := struct {
		GuestName, VillaName, Code, CheckIn, CheckOut, Deposit, Currency string
		Nights                                                           int
	}{
		GuestName: r.GuestName,
		VillaName: villa,
		Code:      r.ReservationCode,
		CheckIn:   r.StartDate.String(),
		CheckOut:  r.EndDate.String(),
		Deposit:   r.FeeAmount.StringFixed(2),
		Currency:  strings.ToUpper(r.Currency),
		Nights:    r.Nights(),
	}

	var body bytes.Buffer
	if err := confirmationTemplate.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("failed to render confirmation email: %w", err)
	}

	subject := fmt.Sprintf("Your reservation %s is confirmed", r.ReservationCode)
	return subject, body.String(), nil
}
