package payments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/healthfirst/connect/internal/booking"
	"github.com/healthfirst/connect/internal/catalog"
	"github.com/healthfirst/connect/internal/identity"
	"github.com/healthfirst/connect/pkg/logging"
)

// Handler exposes the simulated checkout. The amount is never taken from the
// request; it is read from the catalog for the draft's service so the client
// cannot pay a price of its own choosing.
type Handler struct {
	processor *Processor
	drafts    booking.DraftStore
	catalog   *catalog.Catalog
	logger    *logging.Logger
}

func NewHandler(processor *Processor, drafts booking.DraftStore, cat *catalog.Catalog, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{processor: processor, drafts: drafts, catalog: cat, logger: logger}
}

// Checkout runs the simulated capture against the caller's current draft.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication_required", "sign in to pay for a booking")
		return
	}

	draft, err := h.drafts.Get(r.Context(), user.ID)
	if errors.Is(err, booking.ErrNoDraft) {
		writeError(w, http.StatusConflict, "no_active_draft", "no booking draft in progress")
		return
	}
	if err != nil {
		h.logger.Error("draft read failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusBadGateway, "persistence_failed", "could not load the draft")
		return
	}

	svc, known := h.catalog.ServiceByID(draft.ServiceID)
	if !known {
		writeError(w, http.StatusUnprocessableEntity, "unknown_service", "draft has no valid service selected")
		return
	}

	receipt, err := h.processor.Checkout(r.Context(), user.ID, draft, svc.Price)
	if errors.Is(err, ErrSimulationDisabled) {
		writeError(w, http.StatusServiceUnavailable, "payments_disabled", "payments are not available in this deployment")
		return
	}
	if err != nil {
		h.logger.Error("checkout failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusBadGateway, "payment_failed", "payment could not be completed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(receipt)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"kind": kind, "message": message},
	})
}
