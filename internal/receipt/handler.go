package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/healthfirst/connect/internal/booking"
	"github.com/healthfirst/connect/internal/identity"
	"github.com/healthfirst/connect/pkg/logging"
)

// Handler serves the post-payment receipt lookup. A miss is a distinct,
// well-formed "not found" state: redirects with stale or foreign transaction
// ids land on an empty receipt page, never an error page.
type Handler struct {
	bookings booking.Service
	archiver *Archiver
	logger   *logging.Logger
}

func NewHandler(bookings booking.Service, archiver *Archiver, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{bookings: bookings, archiver: archiver, logger: logger}
}

// Get resolves the receipt for a transaction id owned by the caller.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": map[string]string{"kind": "authentication_required", "message": "sign in to view receipts"},
		})
		return
	}

	txID := chi.URLParam(r, "transactionID")
	appt, err := h.bookings.FindByTransactionID(r.Context(), user.ID, txID)
	if errors.Is(err, booking.ErrAppointmentNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"found":   false,
			"message": "no receipt found for this transaction",
		})
		return
	}
	if err != nil {
		h.logger.Error("receipt lookup failed", "error", err, "transaction_id", txID)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": map[string]string{"kind": "persistence_failed", "message": "could not look up the receipt"},
		})
		return
	}

	view := NewView(appt)
	h.archiveAsync(view)
	writeJSON(w, http.StatusOK, map[string]any{"found": true, "receipt": view})
}

// archiveAsync dispatches the best-effort archive copy off the request path.
func (h *Handler) archiveAsync(v View) {
	if !h.archiver.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.archiver.Archive(ctx, v); err != nil {
			h.logger.Warn("receipt archive failed", "error", err, "transaction_id", v.TransactionID)
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
