package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthfirst/connect/internal/catalog"
	"github.com/healthfirst/connect/internal/identity"
	"github.com/healthfirst/connect/pkg/logging"
)

// fakeService scripts the lifecycle surface so handler tests stay about HTTP.
type fakeService struct {
	confirmAppt Appointment
	confirmErr  error
	listAppts   []Appointment
	listErr     error
	cancelErr   error
	lastCancel  string
}

func (f *fakeService) Confirm(ctx context.Context, user identity.User, draft Draft, ack PaymentAck) (Appointment, error) {
	if f.confirmErr != nil {
		return Appointment{}, f.confirmErr
	}
	return f.confirmAppt, nil
}

func (f *fakeService) List(ctx context.Context, userID string) ([]Appointment, error) {
	return f.listAppts, f.listErr
}

func (f *fakeService) FindByTransactionID(ctx context.Context, userID, transactionID string) (Appointment, error) {
	return Appointment{}, ErrAppointmentNotFound
}

func (f *fakeService) Cancel(ctx context.Context, userID, appointmentID string) error {
	f.lastCancel = appointmentID
	return f.cancelErr
}

func newTestRouter(svc Service, drafts DraftStore) http.Handler {
	h := NewHandler(svc, drafts, catalog.Default(), logging.Default())
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func doAs(t *testing.T, h http.Handler, user identity.User, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user.ID != "" {
		req = req.WithContext(identity.WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Kind
}

func TestDraftRoundTrip(t *testing.T) {
	router := newTestRouter(&fakeService{}, NewMemoryDraftStore(time.Minute))
	user := identity.User{ID: "user-1"}

	rec := doAs(t, router, user, http.MethodPost, "/booking/draft", `{"serviceId":"dermatology"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doAs(t, router, user, http.MethodPatch, "/booking/draft",
		`{"date":"2031-06-01","time":"10:00 AM","patientName":"Meera Pillai","patientEmail":"meera@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doAs(t, router, user, http.MethodGet, "/booking/draft", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var draft Draft
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &draft))
	assert.Equal(t, "dermatology", draft.ServiceID)
	assert.Equal(t, "2031-06-01", draft.Date)
	assert.Equal(t, "Meera Pillai", draft.PatientName)

	rec = doAs(t, router, user, http.MethodDelete, "/booking/draft", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doAs(t, router, user, http.MethodGet, "/booking/draft", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartDraftRejectsUnknownService(t *testing.T) {
	router := newTestRouter(&fakeService{}, NewMemoryDraftStore(time.Minute))

	rec := doAs(t, router, identity.User{ID: "user-1"}, http.MethodPost, "/booking/draft", `{"serviceId":"neurosurgery"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "unknown_service", errorKind(t, rec))
}

func TestUpdateDraftWithoutStartConflicts(t *testing.T) {
	router := newTestRouter(&fakeService{}, NewMemoryDraftStore(time.Minute))

	rec := doAs(t, router, identity.User{ID: "user-1"}, http.MethodPatch, "/booking/draft", `{"date":"2031-06-01"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no_active_draft", errorKind(t, rec))
}

func TestDraftRequiresAuthentication(t *testing.T) {
	router := newTestRouter(&fakeService{}, NewMemoryDraftStore(time.Minute))

	rec := doAs(t, router, identity.User{}, http.MethodPost, "/booking/draft", `{}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestConfirmBookingHappyPath(t *testing.T) {
	drafts := NewMemoryDraftStore(time.Minute)
	svc := &fakeService{confirmAppt: Appointment{ID: "appt-1", Status: StatusConfirmed, TransactionID: "RCPT-77"}}
	router := newTestRouter(svc, drafts)
	user := identity.User{ID: "user-1"}

	_, err := drafts.Start(context.Background(), user.ID, "cardiology")
	require.NoError(t, err)
	date := "2031-03-10"
	slot := "10:00 AM"
	name := "Asha Rao"
	email := "asha@example.com"
	_, err = drafts.Update(context.Background(), user.ID, DraftPatch{
		Date: &date, Time: &slot, PatientName: &name, PatientEmail: &email,
	})
	require.NoError(t, err)

	rec := doAs(t, router, user, http.MethodPost, "/appointments", `{"transactionId":"RCPT-77"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var appt Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appt))
	assert.Equal(t, "appt-1", appt.ID)

	// Draft is gone once confirmed.
	_, err = drafts.Get(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestConfirmBookingWithoutDraftConflicts(t *testing.T) {
	router := newTestRouter(&fakeService{}, NewMemoryDraftStore(time.Minute))

	rec := doAs(t, router, identity.User{ID: "user-1"}, http.MethodPost, "/appointments", `{"transactionId":"RCPT-1"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestConfirmBookingValidatesBeforeService(t *testing.T) {
	drafts := NewMemoryDraftStore(time.Minute)
	router := newTestRouter(&fakeService{}, drafts)
	user := identity.User{ID: "user-1"}

	// Draft missing patient details.
	_, err := drafts.Start(context.Background(), user.ID, "cardiology")
	require.NoError(t, err)

	rec := doAs(t, router, user, http.MethodPost, "/appointments", `{"transactionId":"RCPT-1"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_failed", errorKind(t, rec))

	// Failed confirm leaves the draft in place for another attempt.
	_, err = drafts.Get(context.Background(), user.ID)
	assert.NoError(t, err)
}

func TestConfirmErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"persistence", bookingErr(ReasonPersistenceFailed, "down"), http.StatusBadGateway},
		{"unknown service", bookingErr(ReasonUnknownService, "nope"), http.StatusUnprocessableEntity},
		{"unauthenticated", bookingErr(ReasonUnauthenticated, "who"), http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			drafts := NewMemoryDraftStore(time.Minute)
			user := identity.User{ID: "user-1"}
			_, err := drafts.Start(context.Background(), user.ID, "cardiology")
			require.NoError(t, err)
			date := "2031-03-10"
			slot := "10:00 AM"
			name := "Asha Rao"
			email := "asha@example.com"
			_, err = drafts.Update(context.Background(), user.ID, DraftPatch{
				Date: &date, Time: &slot, PatientName: &name, PatientEmail: &email,
			})
			require.NoError(t, err)

			router := newTestRouter(&fakeService{confirmErr: tc.err}, drafts)
			rec := doAs(t, router, user, http.MethodPost, "/appointments", `{"transactionId":"RCPT-1"}`)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestListAppointmentsEmptyIsAList(t *testing.T) {
	router := newTestRouter(&fakeService{}, NewMemoryDraftStore(time.Minute))

	rec := doAs(t, router, identity.User{ID: "user-1"}, http.MethodGet, "/appointments", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"appointments":[]}`, rec.Body.String())
}

func TestCancelAppointmentStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"ok", nil, http.StatusOK},
		{"not found", cancelErr(ReasonNotFound, "gone"), http.StatusNotFound},
		{"foreign", cancelErr(ReasonNotAuthorized, "not yours"), http.StatusForbidden},
		{"pending", cancelErr(ReasonInvalidTransition, "pending"), http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{cancelErr: tc.err}
			router := newTestRouter(svc, NewMemoryDraftStore(time.Minute))

			rec := doAs(t, router, identity.User{ID: "user-1"}, http.MethodPost, "/appointments/appt-9/cancel", "")

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "appt-9", svc.lastCancel)
		})
	}
}
