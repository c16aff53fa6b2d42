package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/healthfirst/connect/internal/booking"
	"github.com/healthfirst/connect/pkg/logging"
)

// Service sends patient-facing booking notifications. It implements
// booking.Notifier; a send failure is logged and counted but never escalated,
// since the appointment is already persisted by the time email runs.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates the notification service. email may be nil, in which
// case sends are skipped.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

var _ booking.Notifier = (*Service)(nil)

// SendBookingConfirmation emails the patient a summary of their confirmed
// appointment with a link back to the receipt.
func (s *Service) SendBookingConfirmation(ctx context.Context, c booking.Confirmation) error {
	if s.email == nil {
		s.logger.Debug("email sender not configured, skipping booking confirmation",
			"transaction_id", c.TransactionID)
		return nil
	}
	if c.ToEmail == "" {
		return fmt.Errorf("notify: confirmation has no recipient")
	}

	msg := EmailMessage{
		To:      c.ToEmail,
		ToName:  c.PatientName,
		Subject: fmt.Sprintf("Your %s appointment is confirmed", c.ServiceName),
		Body:    confirmationText(c),
		HTML:    confirmationHTML(c),
	}

	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("booking confirmation email failed",
			"error", err, "to", c.ToEmail, "transaction_id", c.TransactionID)
		return err
	}
	return nil
}

func formatBookingDate(date string) string {
	d, err := time.Parse(booking.DateLayout, date)
	if err != nil {
		return date
	}
	return d.Format("Monday, 02 Jan 2006")
}

func formatPrice(price int64) string {
	return fmt.Sprintf("₹%.2f", float64(price))
}

func confirmationText(c booking.Confirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", c.PatientName)
	b.WriteString("Your appointment with HealthFirst Connect is confirmed.\n\n")
	fmt.Fprintf(&b, "Service:     %s\n", c.ServiceName)
	fmt.Fprintf(&b, "Date:        %s\n", formatBookingDate(c.Date))
	fmt.Fprintf(&b, "Time:        %s\n", c.Time)
	fmt.Fprintf(&b, "Amount Paid: %s\n", formatPrice(c.Price))
	fmt.Fprintf(&b, "Receipt No:  %s\n\n", c.TransactionID)
	if c.ReceiptURL != "" {
		fmt.Fprintf(&b, "View your receipt: %s\n\n", c.ReceiptURL)
	}
	b.WriteString("If you need to reschedule or cancel, visit your dashboard.\n\n")
	b.WriteString("HealthFirst Connect\n")
	return b.String()
}

func confirmationHTML(c booking.Confirmation) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto">`)
	b.WriteString(`<h2 style="color:#0f766e">Appointment Confirmed</h2>`)
	fmt.Fprintf(&b, `<p>Hi %s,</p>`, c.PatientName)
	b.WriteString(`<p>Your appointment with HealthFirst Connect is confirmed.</p>`)
	b.WriteString(`<table style="border-collapse:collapse;width:100%">`)
	row := func(label, value string) {
		fmt.Fprintf(&b, `<tr><td style="padding:6px 12px;color:#64748b">%s</td><td style="padding:6px 12px"><strong>%s</strong></td></tr>`, label, value)
	}
	row("Service", c.ServiceName)
	row("Date", formatBookingDate(c.Date))
	row("Time", c.Time)
	row("Amount Paid", formatPrice(c.Price))
	row("Receipt No", c.TransactionID)
	b.WriteString(`</table>`)
	if c.ReceiptURL != "" {
		fmt.Fprintf(&b, `<p><a href="%s" style="color:#0f766e">View your receipt</a></p>`, c.ReceiptURL)
	}
	b.WriteString(`<p style="color:#64748b;font-size:13px">If you need to reschedule or cancel, visit your dashboard.</p>`)
	b.WriteString(`</div>`)
	return b.String()
}
