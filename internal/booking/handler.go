package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/healthfirst/connect/internal/catalog"
	"github.com/healthfirst/connect/internal/identity"
	"github.com/healthfirst/connect/pkg/logging"
)

// Handler exposes the booking wizard draft and the appointment lifecycle
// over HTTP. All routes assume the auth middleware has already placed an
// identity.User in the request context.
type Handler struct {
	service Service
	drafts  DraftStore
	catalog *catalog.Catalog
	logger  *logging.Logger
}

func NewHandler(service Service, drafts DraftStore, cat *catalog.Catalog, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, drafts: drafts, catalog: cat, logger: logger}
}

// Routes mounts the handler under the authenticated router group.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/booking/draft", func(r chi.Router) {
		r.Post("/", h.StartDraft)
		r.Patch("/", h.UpdateDraft)
		r.Get("/", h.GetDraft)
		r.Delete("/", h.ClearDraft)
	})
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", h.ConfirmBooking)
		r.Get("/", h.ListAppointments)
		r.Post("/{appointmentID}/cancel", h.CancelAppointment)
	})
}

// StartDraft begins (or restarts) the caller's single booking draft. The
// body may seed any subset of draft fields; unknown services are rejected
// before the draft is stored.
func (h *Handler) StartDraft(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, string(ReasonUnauthenticated), "sign in to start a booking")
		return
	}

	var patch DraftPatch
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "request body is not valid JSON")
			return
		}
	}
	var serviceID string
	if patch.ServiceID != nil && *patch.ServiceID != "" {
		if _, known := h.catalog.ServiceByID(*patch.ServiceID); !known {
			writeError(w, http.StatusUnprocessableEntity, string(ReasonUnknownService), "service is not in the catalog")
			return
		}
		serviceID = *patch.ServiceID
	}

	draft, err := h.drafts.Start(r.Context(), user.ID, serviceID)
	if err != nil {
		h.logger.Error("draft start failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusBadGateway, string(ReasonPersistenceFailed), "could not start the draft")
		return
	}
	if patchHasDetails(patch) {
		draft, err = h.drafts.Update(r.Context(), user.ID, patch)
		if err != nil {
			h.logger.Error("draft seed failed", "error", err, "user_id", user.ID)
			writeError(w, http.StatusBadGateway, string(ReasonPersistenceFailed), "could not start the draft")
			return
		}
	}
	writeJSON(w, http.StatusCreated, draft)
}

// UpdateDraft merges the supplied fields into the existing draft. Updating
// without a started draft is a conflict, not an implicit start.
func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, string(ReasonUnauthenticated), "sign in to update a booking")
		return
	}

	var patch DraftPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body is not valid JSON")
		return
	}
	if patch.ServiceID != nil && *patch.ServiceID != "" {
		if _, known := h.catalog.ServiceByID(*patch.ServiceID); !known {
			writeError(w, http.StatusUnprocessableEntity, string(ReasonUnknownService), "service is not in the catalog")
			return
		}
	}

	draft, err := h.drafts.Update(r.Context(), user.ID, patch)
	if errors.Is(err, ErrNoDraft) {
		writeError(w, http.StatusConflict, "no_active_draft", "no booking draft in progress")
		return
	}
	if err != nil {
		h.logger.Error("draft update failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusBadGateway, string(ReasonPersistenceFailed), "could not update the draft")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, string(ReasonUnauthenticated), "sign in to view the booking draft")
		return
	}

	draft, err := h.drafts.Get(r.Context(), user.ID)
	if errors.Is(err, ErrNoDraft) {
		writeError(w, http.StatusNotFound, "no_active_draft", "no booking draft in progress")
		return
	}
	if err != nil {
		h.logger.Error("draft read failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusBadGateway, string(ReasonPersistenceFailed), "could not load the draft")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (h *Handler) ClearDraft(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, string(ReasonUnauthenticated), "sign in to clear the booking draft")
		return
	}

	if err := h.drafts.Clear(r.Context(), user.ID); err != nil {
		h.logger.Error("draft clear failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusBadGateway, string(ReasonPersistenceFailed), "could not clear the draft")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// patchHasDetails reports whether the patch sets anything beyond the service.
func patchHasDetails(p DraftPatch) bool {
	return p.Date != nil || p.Time != nil || p.PatientName != nil ||
		p.PatientEmail != nil || p.PatientPhone != nil || p.Preferences != nil
}

type confirmRequest struct {
	TransactionID string `json:"transactionId"`
}

// ConfirmBooking finalizes the caller's draft with a payment acknowledgement.
// The draft is validated against the catalog first, then confirmed; only a
// successful confirm clears the draft.
func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, string(ReasonUnauthenticated), "sign in to confirm a booking")
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body is not valid JSON")
		return
	}

	draft, err := h.drafts.Get(r.Context(), user.ID)
	if errors.Is(err, ErrNoDraft) {
		writeError(w, http.StatusConflict, "no_active_draft", "no booking draft in progress")
		return
	}
	if err != nil {
		h.logger.Error("draft read failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusBadGateway, string(ReasonPersistenceFailed), "could not load the draft")
		return
	}

	if err := ValidateDraft(h.catalog, draft, time.Now()); err != nil {
		writeBookingError(w, err)
		return
	}

	appt, err := h.service.Confirm(r.Context(), user, draft, PaymentAck{TransactionID: req.TransactionID})
	if err != nil {
		writeBookingError(w, err)
		return
	}

	if err := h.drafts.Clear(r.Context(), user.ID); err != nil {
		h.logger.Warn("draft clear after confirm failed", "error", err, "user_id", user.ID)
	}
	writeJSON(w, http.StatusCreated, appt)
}

func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, string(ReasonUnauthenticated), "sign in to view appointments")
		return
	}

	appts, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	if appts == nil {
		appts = []Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

func (h *Handler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, string(ReasonUnauthenticated), "sign in to cancel a booking")
		return
	}

	id := chi.URLParam(r, "appointmentID")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "appointment id is required")
		return
	}

	if err := h.service.Cancel(r.Context(), user.ID, id); err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(StatusCancelled)})
}

// writeBookingError maps the booking error taxonomy onto HTTP statuses.
func writeBookingError(w http.ResponseWriter, err error) {
	var reason Reason
	var msg string

	var be *BookingError
	var ce *CancellationError
	switch {
	case errors.As(err, &be):
		reason, msg = be.Reason, be.Message
	case errors.As(err, &ce):
		reason, msg = ce.Reason, ce.Message
	case errors.Is(err, ErrAppointmentNotFound):
		reason, msg = ReasonNotFound, "appointment not found"
	default:
		reason, msg = ReasonPersistenceFailed, "unexpected error"
	}

	writeError(w, statusForReason(reason), string(reason), msg)
}

func statusForReason(r Reason) int {
	switch r {
	case ReasonUnauthenticated:
		return http.StatusUnauthorized
	case ReasonNotAuthorized:
		return http.StatusForbidden
	case ReasonNotFound:
		return http.StatusNotFound
	case ReasonInvalidTransition:
		return http.StatusConflict
	case ReasonValidationFailed, ReasonUnknownService:
		return http.StatusUnprocessableEntity
	case ReasonPersistenceFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"kind": kind, "message": message},
	})
}
