package booking

import "time"

// Status is the lifecycle state of a persisted appointment. Appointments are
// created already confirmed; the only permitted transition afterwards is
// confirmed to cancelled, and cancelled is terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// DateLayout is the calendar-date wire format for appointments.
const DateLayout = "2006-01-02"

// Draft is the unpersisted booking-in-progress working set for one user.
// It has no identity until confirmed and is discarded afterwards.
type Draft struct {
	ServiceID    string `json:"serviceId,omitempty"`
	Date         string `json:"date,omitempty"` // YYYY-MM-DD
	Time         string `json:"time,omitempty"` // slot label, e.g. "10:00 AM"
	PatientName  string `json:"patientName,omitempty"`
	PatientEmail string `json:"patientEmail,omitempty"`
	PatientPhone string `json:"patientPhone,omitempty"`
	Preferences  string `json:"preferences,omitempty"`
}

// DraftPatch carries a shallow merge for an in-progress draft. Only non-nil
// fields overwrite.
type DraftPatch struct {
	ServiceID    *string `json:"serviceId,omitempty"`
	Date         *string `json:"date,omitempty"`
	Time         *string `json:"time,omitempty"`
	PatientName  *string `json:"patientName,omitempty"`
	PatientEmail *string `json:"patientEmail,omitempty"`
	PatientPhone *string `json:"patientPhone,omitempty"`
	Preferences  *string `json:"preferences,omitempty"`
}

func (d Draft) apply(p DraftPatch) Draft {
	if p.ServiceID != nil {
		d.ServiceID = *p.ServiceID
	}
	if p.Date != nil {
		d.Date = *p.Date
	}
	if p.Time != nil {
		d.Time = *p.Time
	}
	if p.PatientName != nil {
		d.PatientName = *p.PatientName
	}
	if p.PatientEmail != nil {
		d.PatientEmail = *p.PatientEmail
	}
	if p.PatientPhone != nil {
		d.PatientPhone = *p.PatientPhone
	}
	if p.Preferences != nil {
		d.Preferences = *p.Preferences
	}
	return d
}

// PaymentAck is the claimed payment capture result supplied by the caller.
// The transaction id is recorded, not verified; this is a simulation boundary.
type PaymentAck struct {
	TransactionID string    `json:"transactionId"`
	PaidAt        time.Time `json:"paidAt,omitempty"`
}

// Appointment is the durable booking record. ID and CreatedAt are assigned at
// the store layer; ServiceName and Price are snapshots taken at confirmation
// and never change afterwards, even if the catalog price moves.
type Appointment struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	ServiceID     string    `json:"serviceId"`
	ServiceName   string    `json:"serviceName"`
	Price         int64     `json:"price"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	PatientName   string    `json:"patientName"`
	PatientEmail  string    `json:"patientEmail"`
	PatientPhone  string    `json:"patientPhone"`
	Status        Status    `json:"status"`
	TransactionID string    `json:"transactionId"`
	CreatedAt     time.Time `json:"createdAt"`
	PaymentDate   time.Time `json:"paymentDate"`
}
