package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/healthfirst/connect/pkg/logging"
)

// Handler serves the read-only catalog endpoints.
type Handler struct {
	catalog *Catalog
	logger  *logging.Logger
}

// NewHandler creates a catalog handler.
func NewHandler(catalog *Catalog, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{catalog: catalog, logger: logger}
}

// ListServices handles GET /catalog/services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"services": h.catalog.Services()})
}

// ListDoctors handles GET /catalog/doctors.
func (h *Handler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"doctors": h.catalog.Doctors()})
}

// ListSlots handles GET /catalog/slots.
func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"slots":        h.catalog.Slots(),
		"availability": DoctorAvailability,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
