// Package receipt renders confirmed bookings into the receipt shown after
// payment and archives a plain-text copy for record keeping.
package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/healthfirst/connect/internal/booking"
)

// View is the presentation shape for one receipt. Price is pre-formatted in
// rupees so every surface (page, email, export) renders it identically.
type View struct {
	TransactionID string `json:"transactionId"`
	AppointmentID string `json:"appointmentId"`
	ServiceName   string `json:"serviceName"`
	AmountPaid    string `json:"amountPaid"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	PatientName   string `json:"patientName"`
	PatientEmail  string `json:"patientEmail"`
	PaymentDate   string `json:"paymentDate"`
	Status        string `json:"status"`
}

// FormatAmount renders a whole-rupee price the way the receipt shows it.
func FormatAmount(price int64) string {
	return fmt.Sprintf("₹%.2f", float64(price))
}

// NewView builds the receipt presentation for a confirmed appointment.
func NewView(appt booking.Appointment) View {
	return View{
		TransactionID: appt.TransactionID,
		AppointmentID: appt.ID,
		ServiceName:   appt.ServiceName,
		AmountPaid:    FormatAmount(appt.Price),
		Date:          formatDate(appt.Date),
		Time:          appt.Time,
		PatientName:   appt.PatientName,
		PatientEmail:  maskEmail(appt.PatientEmail),
		PaymentDate:   appt.PaymentDate.UTC().Format("02 Jan 2006, 03:04 PM"),
		Status:        string(appt.Status),
	}
}

// Export renders the plain-text copy persisted to the archive.
func (v View) Export() string {
	var b strings.Builder
	b.WriteString("HealthFirst Connect — Payment Receipt\n")
	b.WriteString(strings.Repeat("-", 44) + "\n")
	fmt.Fprintf(&b, "Transaction ID : %s\n", v.TransactionID)
	fmt.Fprintf(&b, "Service        : %s\n", v.ServiceName)
	fmt.Fprintf(&b, "Amount Paid    : %s\n", v.AmountPaid)
	fmt.Fprintf(&b, "Appointment    : %s at %s\n", v.Date, v.Time)
	fmt.Fprintf(&b, "Patient        : %s\n", v.PatientName)
	fmt.Fprintf(&b, "Paid On        : %s\n", v.PaymentDate)
	fmt.Fprintf(&b, "Status         : %s\n", v.Status)
	return b.String()
}

func formatDate(date string) string {
	d, err := time.Parse(booking.DateLayout, date)
	if err != nil {
		return date
	}
	return d.Format("02 Jan 2006")
}

// maskEmail hides most of the local part: receipts can be shared as proof of
// payment without exposing the full address.
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 1 {
		return email
	}
	return email[:1] + strings.Repeat("*", at-1) + email[at:]
}
