package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/healthfirst/connect/internal/catalog"
	"github.com/healthfirst/connect/internal/identity"
	"github.com/healthfirst/connect/internal/observability/metrics"
	"github.com/healthfirst/connect/pkg/logging"
)

// AppointmentStore is the document-store boundary the manager depends on.
// *Store implements it against DynamoDB; tests inject fakes.
type AppointmentStore interface {
	Create(ctx context.Context, appt Appointment) (Appointment, error)
	ListByUser(ctx context.Context, userID string) ([]Appointment, error)
	FindByTransaction(ctx context.Context, userID, transactionID string) (Appointment, error)
	Get(ctx context.Context, id string) (Appointment, error)
	SetStatus(ctx context.Context, userID, id string, status Status) error
}

// Confirmation carries the fields the notifier needs to announce a completed
// booking. Sending is fire-and-forget; failures never surface to the booking.
type Confirmation struct {
	ToEmail       string
	PatientName   string
	ServiceName   string
	Date          string
	Time          string
	Price         int64
	TransactionID string
	ReceiptURL    string
}

// Notifier announces completed bookings, typically by email.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, c Confirmation) error
}

// Service is the lifecycle surface consumed by HTTP handlers and the
// conversational assistant. *Manager implements it.
type Service interface {
	Confirm(ctx context.Context, user identity.User, draft Draft, ack PaymentAck) (Appointment, error)
	List(ctx context.Context, userID string) ([]Appointment, error)
	FindByTransactionID(ctx context.Context, userID, transactionID string) (Appointment, error)
	Cancel(ctx context.Context, userID, appointmentID string) error
}

// Manager turns a completed draft plus a payment acknowledgement into a
// persisted appointment, and owns the confirmed-to-cancelled transition.
//
// Consistency policy: after every successful write the manager re-reads the
// owner's full appointment list from the store instead of trusting the local
// echo ("refetch-after-write"). The cached list is only ever replaced with
// store-read data, never mutated optimistically.
type Manager struct {
	store    AppointmentStore
	catalog  *catalog.Catalog
	notifier Notifier
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger

	publicBaseURL string
	notifyTimeout time.Duration

	mu    sync.RWMutex
	cache map[string][]Appointment
}

// NewManager creates the lifecycle manager. notifier and m may be nil.
func NewManager(store AppointmentStore, cat *catalog.Catalog, notifier Notifier, m *metrics.BookingMetrics, publicBaseURL string, logger *logging.Logger) *Manager {
	if store == nil {
		panic("booking: appointment store required")
	}
	if cat == nil {
		panic("booking: catalog required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		store:         store,
		catalog:       cat,
		notifier:      notifier,
		metrics:       m,
		logger:        logger,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		notifyTimeout: 15 * time.Second,
		cache:         make(map[string][]Appointment),
	}
}

var _ Service = (*Manager)(nil)

// Confirm validates the draft's preconditions, snapshots the service name and
// price, and persists the appointment already in status confirmed. On store
// failure nothing is written and the caller's draft is left intact for retry.
// The returned appointment is materialized from the known field values plus
// the just-assigned id; the list refetch is for cache consistency only.
func (m *Manager) Confirm(ctx context.Context, user identity.User, draft Draft, ack PaymentAck) (Appointment, error) {
	start := time.Now()

	if user.ID == "" {
		m.metrics.ObserveConfirmFailure(string(ReasonUnauthenticated))
		return Appointment{}, bookingErr(ReasonUnauthenticated, "sign in to confirm a booking")
	}

	var missing []string
	if draft.ServiceID == "" {
		missing = append(missing, "serviceId")
	}
	if draft.Date == "" {
		missing = append(missing, "date")
	}
	if draft.Time == "" {
		missing = append(missing, "time")
	}
	if draft.PatientName == "" {
		missing = append(missing, "patientName")
	}
	if draft.PatientEmail == "" {
		missing = append(missing, "patientEmail")
	}
	if ack.TransactionID == "" {
		missing = append(missing, "transactionId")
	}
	if len(missing) > 0 {
		m.metrics.ObserveConfirmFailure(string(ReasonValidationFailed))
		return Appointment{}, bookingErr(ReasonValidationFailed,
			"incomplete booking: missing "+strings.Join(missing, ", "))
	}

	svc, ok := m.catalog.ServiceByID(draft.ServiceID)
	if !ok {
		m.metrics.ObserveConfirmFailure(string(ReasonUnknownService))
		return Appointment{}, bookingErr(ReasonUnknownService,
			fmt.Sprintf("service %q is not in the catalog", draft.ServiceID))
	}

	paidAt := ack.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	appt := Appointment{
		UserID:        user.ID,
		ServiceID:     svc.ID,
		ServiceName:   svc.Name,
		Price:         svc.Price,
		Date:          draft.Date,
		Time:          draft.Time,
		PatientName:   draft.PatientName,
		PatientEmail:  draft.PatientEmail,
		PatientPhone:  draft.PatientPhone,
		Status:        StatusConfirmed,
		TransactionID: ack.TransactionID,
		PaymentDate:   paidAt,
	}

	created, err := m.store.Create(ctx, appt)
	if err != nil {
		m.metrics.ObserveConfirmFailure(string(ReasonPersistenceFailed))
		return Appointment{}, bookingWrap(ReasonPersistenceFailed, "could not save the booking", err)
	}

	// Refetch-after-write: correctness over latency. A refresh failure is
	// logged, not surfaced; the booking itself already succeeded.
	if err := m.refresh(ctx, user.ID); err != nil {
		m.logger.Warn("appointment list refresh after confirm failed",
			"error", err, "user_id", user.ID)
	}

	m.metrics.ObserveConfirmed(svc.ID)
	m.metrics.ObserveConfirmLatency(time.Since(start).Seconds())
	m.sendConfirmation(created)

	return created, nil
}

// List returns all appointments owned by userID, most recent first. The read
// always goes to the store; the cache is refreshed as a side effect.
func (m *Manager) List(ctx context.Context, userID string) ([]Appointment, error) {
	if userID == "" {
		return nil, bookingErr(ReasonUnauthenticated, "sign in to view appointments")
	}

	appts, err := m.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, bookingWrap(ReasonPersistenceFailed, "could not load appointments", err)
	}
	appts = ownedBy(appts, userID)

	m.mu.Lock()
	m.cache[userID] = appts
	m.mu.Unlock()

	// Callers get their own copy; the cached slice stays private.
	out := make([]Appointment, len(appts))
	copy(out, appts)
	return out, nil
}

// FindByTransactionID resolves a receipt's appointment. The miss case returns
// ErrAppointmentNotFound so callers can render the dedicated empty state;
// transport failures come back as a BookingError instead.
func (m *Manager) FindByTransactionID(ctx context.Context, userID, transactionID string) (Appointment, error) {
	if userID == "" {
		return Appointment{}, bookingErr(ReasonUnauthenticated, "sign in to view receipts")
	}

	appt, err := m.store.FindByTransaction(ctx, userID, transactionID)
	if errors.Is(err, ErrAppointmentNotFound) {
		return Appointment{}, ErrAppointmentNotFound
	}
	if err != nil {
		return Appointment{}, bookingWrap(ReasonPersistenceFailed, "could not look up the receipt", err)
	}
	return appt, nil
}

// Cancel applies the single permitted transition, confirmed to cancelled.
// Ownership is checked here and enforced again by the store's conditional
// update. Cancelling an already-cancelled appointment is an idempotent
// success with no side effects. The local cache is never marked cancelled
// ahead of store confirmation.
func (m *Manager) Cancel(ctx context.Context, userID, appointmentID string) error {
	if userID == "" {
		return cancelErr(ReasonUnauthenticated, "sign in to cancel a booking")
	}

	appt, err := m.store.Get(ctx, appointmentID)
	if errors.Is(err, ErrAppointmentNotFound) {
		return cancelErr(ReasonNotFound, "appointment does not exist")
	}
	if err != nil {
		return cancelWrap(ReasonPersistenceFailed, "could not load the appointment", err)
	}
	if appt.UserID != userID {
		return cancelErr(ReasonNotAuthorized, "appointment belongs to another user")
	}

	switch appt.Status {
	case StatusCancelled:
		return nil
	case StatusConfirmed:
		// The one permitted transition.
	default:
		return cancelErr(ReasonInvalidTransition,
			fmt.Sprintf("cannot cancel an appointment in status %q", appt.Status))
	}

	if err := m.store.SetStatus(ctx, userID, appointmentID, StatusCancelled); err != nil {
		return cancelWrap(ReasonPersistenceFailed, "could not cancel the booking", err)
	}

	if err := m.refresh(ctx, userID); err != nil {
		m.logger.Warn("appointment list refresh after cancel failed",
			"error", err, "user_id", userID)
	}

	m.metrics.ObserveCancelled()
	return nil
}

// Snapshot returns the last store-read list for userID without touching the
// store. It reflects state as of the most recent List or refetch.
func (m *Manager) Snapshot(userID string) []Appointment {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cached := m.cache[userID]
	out := make([]Appointment, len(cached))
	copy(out, cached)
	return out
}

// ReceiptURL builds the public link to a receipt for a transaction id.
func (m *Manager) ReceiptURL(transactionID string) string {
	return fmt.Sprintf("%s/receipt?transactionId=%s", m.publicBaseURL, transactionID)
}

func (m *Manager) refresh(ctx context.Context, userID string) error {
	appts, err := m.store.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.cache[userID] = ownedBy(appts, userID)
	m.mu.Unlock()
	return nil
}

// sendConfirmation dispatches the booking email without blocking or failing
// the confirm. Uses a detached context: the HTTP request may finish first.
func (m *Manager) sendConfirmation(appt Appointment) {
	if m.notifier == nil {
		return
	}

	c := Confirmation{
		ToEmail:       appt.PatientEmail,
		PatientName:   appt.PatientName,
		ServiceName:   appt.ServiceName,
		Date:          appt.Date,
		Time:          appt.Time,
		Price:         appt.Price,
		TransactionID: appt.TransactionID,
		ReceiptURL:    m.ReceiptURL(appt.TransactionID),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.notifyTimeout)
		defer cancel()

		if err := m.notifier.SendBookingConfirmation(ctx, c); err != nil {
			m.metrics.ObserveNotification("failed")
			m.logger.Error("booking confirmation email failed",
				"error", err, "transaction_id", appt.TransactionID)
			return
		}
		m.metrics.ObserveNotification("sent")
	}()
}

func ownedBy(appts []Appointment, userID string) []Appointment {
	out := appts[:0]
	for _, a := range appts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}
