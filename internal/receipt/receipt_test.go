package receipt

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthfirst/connect/internal/booking"
	"github.com/healthfirst/connect/internal/identity"
	"github.com/healthfirst/connect/pkg/logging"
)

func confirmedAppointment() booking.Appointment {
	return booking.Appointment{
		ID:            "appt-1",
		UserID:        "user-asha",
		ServiceID:     "cardiology",
		ServiceName:   "Cardiology",
		Price:         12000,
		Date:          "2025-03-10",
		Time:          "10:00 AM",
		PatientName:   "Asha Rao",
		PatientEmail:  "asha@example.com",
		Status:        booking.StatusConfirmed,
		TransactionID: "RCPT-1000",
		PaymentDate:   time.Date(2025, 3, 9, 14, 30, 0, 0, time.UTC),
	}
}

func TestNewViewFormatsAmountAndDates(t *testing.T) {
	v := NewView(confirmedAppointment())

	assert.Equal(t, "₹12000.00", v.AmountPaid)
	assert.Equal(t, "10 Mar 2025", v.Date)
	assert.Equal(t, "09 Mar 2025, 02:30 PM", v.PaymentDate)
	assert.Equal(t, "a***@example.com", v.PatientEmail)
	assert.Equal(t, "RCPT-1000", v.TransactionID)
}

func TestExportContainsEssentials(t *testing.T) {
	out := NewView(confirmedAppointment()).Export()

	assert.Contains(t, out, "RCPT-1000")
	assert.Contains(t, out, "Cardiology")
	assert.Contains(t, out, "₹12000.00")
	assert.Contains(t, out, "10 Mar 2025 at 10:00 AM")
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a***@example.com", maskEmail("asha@example.com"))
	assert.Equal(t, "a@example.com", maskEmail("a@example.com"))
	assert.Equal(t, "not-an-email", maskEmail("not-an-email"))
}

type capturingS3 struct {
	mu   sync.Mutex
	key  string
	body string
	done chan struct{}
}

func (c *capturingS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	raw, _ := io.ReadAll(in.Body)
	c.mu.Lock()
	c.key = *in.Key
	c.body = string(raw)
	c.mu.Unlock()
	close(c.done)
	return &s3.PutObjectOutput{}, nil
}

func TestArchiverWritesUnderTransactionKey(t *testing.T) {
	client := &capturingS3{done: make(chan struct{})}
	a := NewArchiver(client, "receipts-bucket", logging.Default())

	require.NoError(t, a.Archive(context.Background(), NewView(confirmedAppointment())))

	assert.Equal(t, "receipts/RCPT-1000.txt", client.key)
	assert.Contains(t, client.body, "₹12000.00")
}

func TestArchiverDisabledIsNoop(t *testing.T) {
	a := NewArchiver(nil, "", logging.Default())
	assert.False(t, a.Enabled())
	assert.NoError(t, a.Archive(context.Background(), NewView(confirmedAppointment())))
}

type stubBookings struct {
	appt booking.Appointment
	err  error
}

func (s *stubBookings) Confirm(ctx context.Context, user identity.User, d booking.Draft, ack booking.PaymentAck) (booking.Appointment, error) {
	return booking.Appointment{}, nil
}
func (s *stubBookings) List(ctx context.Context, userID string) ([]booking.Appointment, error) {
	return nil, nil
}
func (s *stubBookings) FindByTransactionID(ctx context.Context, userID, transactionID string) (booking.Appointment, error) {
	return s.appt, s.err
}
func (s *stubBookings) Cancel(ctx context.Context, userID, appointmentID string) error {
	return nil
}

func receiptRouter(svc booking.Service, a *Archiver) http.Handler {
	h := NewHandler(svc, a, logging.Default())
	r := chi.NewRouter()
	r.Get("/receipts/{transactionID}", h.Get)
	return r
}

func getReceipt(t *testing.T, h http.Handler, user identity.User, txID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/receipts/"+txID, nil)
	if user.ID != "" {
		req = req.WithContext(identity.WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestReceiptHandlerFound(t *testing.T) {
	archiveClient := &capturingS3{done: make(chan struct{})}
	router := receiptRouter(&stubBookings{appt: confirmedAppointment()}, NewArchiver(archiveClient, "receipts-bucket", logging.Default()))

	rec := getReceipt(t, router, identity.User{ID: "user-asha"}, "RCPT-1000")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Found   bool `json:"found"`
		Receipt View `json:"receipt"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.True(t, payload.Found)
	assert.Equal(t, "₹12000.00", payload.Receipt.AmountPaid)

	select {
	case <-archiveClient.done:
	case <-time.After(2 * time.Second):
		t.Fatal("archive copy was never written")
	}
}

func TestReceiptHandlerMissIsDedicatedState(t *testing.T) {
	router := receiptRouter(&stubBookings{err: booking.ErrAppointmentNotFound}, nil)

	rec := getReceipt(t, router, identity.User{ID: "user-asha"}, "RCPT-stale")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var payload struct {
		Found   bool   `json:"found"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.False(t, payload.Found)
	assert.NotEmpty(t, payload.Message)
}

func TestReceiptHandlerRequiresAuth(t *testing.T) {
	router := receiptRouter(&stubBookings{}, nil)

	rec := getReceipt(t, router, identity.User{}, "RCPT-1")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
