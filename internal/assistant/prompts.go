package assistant

import (
	"fmt"
	"strings"

	"github.com/healthfirst/connect/internal/booking"
	"github.com/healthfirst/connect/internal/catalog"
)

// systemPrompt grounds the model in the live catalog so it never invents
// services, prices, or slots. The model must answer with a single JSON object
// so intent parsing stays deterministic.
func systemPrompt(cat *catalog.Catalog, appts []booking.Appointment) string {
	var b strings.Builder

	b.WriteString("You are the HealthFirst Connect assistant, helping patients book medical appointments.\n\n")

	b.WriteString("Available services (id, name, price in rupees):\n")
	for _, svc := range cat.Services() {
		fmt.Fprintf(&b, "- %s | %s | ₹%d\n", svc.ID, svc.Name, svc.Price)
	}

	b.WriteString("\nDoctors:\n")
	for _, doc := range cat.Doctors() {
		fmt.Fprintf(&b, "- %s (%s)\n", doc.Name, doc.Specialty)
	}
	fmt.Fprintf(&b, "\nDoctor availability: %s\n", catalog.DoctorAvailability)

	b.WriteString("\nBookable time slots:\n")
	b.WriteString(strings.Join(cat.Slots(), ", "))
	b.WriteString("\n")

	if len(appts) > 0 {
		b.WriteString("\nThe patient's existing appointments:\n")
		for _, a := range appts {
			fmt.Fprintf(&b, "- %s on %s at %s (%s)\n", a.ServiceName, a.Date, a.Time, a.Status)
		}
	}

	b.WriteString(`
Rules:
- Only discuss services, doctors, prices, and slots listed above.
- Dates must be YYYY-MM-DD and in the future; times must be one of the listed slots.
- Never claim a booking is confirmed unless you emit a confirmBooking action.
- If asked for medical advice, recommend booking a consultation instead.

Respond with a single JSON object and nothing else:
{
  "reply": "<your message to the patient>",
  "startBooking": {"serviceId": "<id>"},                // optional: patient wants to begin booking
  "confirmBooking": {                                    // optional: every field collected and patient agreed
    "serviceId": "<id>", "date": "YYYY-MM-DD", "time": "<slot>",
    "patientName": "<name>", "patientEmail": "<email>", "patientPhone": "<phone or empty>"
  }
}
Include startBooking or confirmBooking only when the conversation warrants it, never both.`)

	return b.String()
}

// suggestionPrompt asks for appointment time recommendations as a JSON list.
func suggestionPrompt(cat *catalog.Catalog, serviceID, preferences string) string {
	var b strings.Builder

	b.WriteString("You recommend appointment times for a medical booking service.\n\n")
	if svc, ok := cat.ServiceByID(serviceID); ok {
		fmt.Fprintf(&b, "The patient is booking: %s.\n", svc.Name)
	}
	fmt.Fprintf(&b, "Doctor availability: %s\n", catalog.DoctorAvailability)
	b.WriteString("Bookable slots: " + strings.Join(cat.Slots(), ", ") + "\n")
	if strings.TrimSpace(preferences) != "" {
		fmt.Fprintf(&b, "Patient preferences: %s\n", preferences)
	}

	b.WriteString(`
Pick the 3 slots from the list above that best fit the preferences.
Respond with a single JSON object and nothing else:
{"suggestions": [{"time": "<slot>", "reason": "<one short sentence>"}]}`)

	return b.String()
}
