package assistant

import (
	"encoding/json"
	"net/http"

	"github.com/healthfirst/connect/internal/booking"
	"github.com/healthfirst/connect/internal/identity"
	"github.com/healthfirst/connect/pkg/logging"
)

// Handler exposes the chat and suggestion endpoints.
type Handler struct {
	assistant *Service
	bookings  booking.Service
	logger    *logging.Logger
}

func NewHandler(assistant *Service, bookings booking.Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{assistant: assistant, bookings: bookings, logger: logger}
}

type chatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history"`
}

// Chat runs one conversational turn for the signed-in patient.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication_required", "sign in to use the assistant")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body is not valid JSON")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "message is required")
		return
	}

	// Ground the model in the patient's bookings; a lookup failure just
	// means the assistant answers without them.
	appts, err := h.bookings.List(r.Context(), user.ID)
	if err != nil {
		h.logger.Warn("assistant could not load appointments", "error", err, "user_id", user.ID)
		appts = nil
	}

	result, err := h.assistant.Chat(r.Context(), user, req.History, req.Message, appts)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type suggestionRequest struct {
	ServiceID   string `json:"serviceId"`
	Preferences string `json:"preferences"`
}

// Suggest returns recommended appointment slots for a service.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	_, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication_required", "sign in to get suggestions")
		return
	}

	var req suggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body is not valid JSON")
		return
	}

	suggestions, err := h.assistant.SuggestTimes(r.Context(), req.ServiceID, req.Preferences)
	if err != nil {
		h.logger.Error("suggestions failed", "error", err, "service_id", req.ServiceID)
		writeError(w, http.StatusBadGateway, "llm_failed", "could not generate suggestions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
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
