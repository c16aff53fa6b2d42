package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/healthfirst/connect/internal/booking"
	"github.com/healthfirst/connect/internal/catalog"
	"github.com/healthfirst/connect/internal/identity"
	"github.com/healthfirst/connect/internal/observability/metrics"
	"github.com/healthfirst/connect/pkg/logging"
)

// fallbackReply is shown whenever the model fails or returns garbage. The
// chat never surfaces provider errors to patients.
const fallbackReply = "Sorry, I had trouble processing that. Could you try rephrasing, or use the booking page directly?"

// ChatResult is the assistant's turn outcome: a reply plus whatever actions
// the backend executed on the patient's behalf.
type ChatResult struct {
	Reply             string               `json:"reply"`
	StartBooking      *StartBookingIntent  `json:"startBooking,omitempty"`
	BookedAppointment *booking.Appointment `json:"bookedAppointment,omitempty"`
}

// Suggestion is one recommended appointment slot.
type Suggestion struct {
	Time   string `json:"time"`
	Reason string `json:"reason"`
}

// Service runs the chat and suggestion flows against the configured LLM.
type Service struct {
	llm      LLMClient
	model    string
	catalog  *catalog.Catalog
	bookings booking.Service
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
	timeout  time.Duration
}

// NewService creates the assistant. bookings drives the confirmBooking action
// so chat bookings take the exact same path as wizard bookings.
func NewService(llm LLMClient, model string, cat *catalog.Catalog, bookings booking.Service, m *metrics.BookingMetrics, timeout time.Duration, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		llm:      llm,
		model:    model,
		catalog:  cat,
		bookings: bookings,
		metrics:  m,
		logger:   logger,
		timeout:  timeout,
	}
}

// Chat runs one assistant turn. history is the prior conversation, oldest
// first; message is the patient's new input. appts ground the model in the
// patient's existing bookings.
func (s *Service) Chat(ctx context.Context, user identity.User, history []ChatMessage, message string, appts []booking.Appointment) (ChatResult, error) {
	if strings.TrimSpace(message) == "" {
		return ChatResult{}, errors.New("assistant: message is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	messages := make([]ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: message})

	resp, err := s.llm.Complete(ctx, LLMRequest{
		Model:       s.model,
		System:      []string{systemPrompt(s.catalog, appts)},
		Messages:    messages,
		MaxTokens:   1024,
		Temperature: 0.4,
	})
	if err != nil {
		s.metrics.ObserveChat("llm_error")
		s.logger.Error("assistant completion failed", "error", err, "user_id", user.ID)
		return ChatResult{Reply: fallbackReply}, nil
	}

	intent, err := ParseIntent(resp.Text, s.catalog)
	if err != nil {
		s.metrics.ObserveChat("unparseable")
		s.logger.Warn("assistant reply was not parseable", "user_id", user.ID)
		return ChatResult{Reply: fallbackReply}, nil
	}

	result := ChatResult{Reply: intent.Reply, StartBooking: intent.StartBooking}

	if cb := intent.ConfirmBooking; cb != nil {
		appt, err := s.confirmFromChat(ctx, user, cb)
		if err != nil {
			s.metrics.ObserveChat("booking_failed")
			s.logger.Warn("chat booking failed", "error", err, "user_id", user.ID)
			result.Reply = bookingFailureReply(err)
			return result, nil
		}
		result.BookedAppointment = &appt
		s.metrics.ObserveChat("booked")
		return result, nil
	}

	s.metrics.ObserveChat("ok")
	return result, nil
}

// confirmFromChat routes a chat-collected booking through the same lifecycle
// as the wizard, including a simulated payment transaction id.
func (s *Service) confirmFromChat(ctx context.Context, user identity.User, cb *ConfirmBookingIntent) (booking.Appointment, error) {
	draft := booking.Draft{
		ServiceID:    cb.ServiceID,
		Date:         cb.Date,
		Time:         cb.Time,
		PatientName:  cb.PatientName,
		PatientEmail: cb.PatientEmail,
		PatientPhone: cb.PatientPhone,
	}

	if err := booking.ValidateDraft(s.catalog, draft, time.Now()); err != nil {
		return booking.Appointment{}, err
	}

	ack := booking.PaymentAck{
		TransactionID: fmt.Sprintf("RCPT-%d", time.Now().UnixMilli()),
		PaidAt:        time.Now().UTC(),
	}
	return s.bookings.Confirm(ctx, user, draft, ack)
}

func bookingFailureReply(err error) string {
	var be *booking.BookingError
	if errors.As(err, &be) {
		switch be.Reason {
		case booking.ReasonValidationFailed:
			return "I couldn't finalize that booking: " + be.Message + ". Could you correct those details?"
		case booking.ReasonUnknownService:
			return "That service isn't in our catalog. Would you like to hear what we offer?"
		}
	}
	return "I couldn't save that booking just now. Your details are safe; please try again in a moment or use the booking page."
}

// SuggestTimes asks the model for slot recommendations for a service. On any
// failure it falls back to the first three catalog slots so the wizard always
// has something to show.
func (s *Service) SuggestTimes(ctx context.Context, serviceID, preferences string) ([]Suggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.llm.Complete(ctx, LLMRequest{
		Model:       s.model,
		System:      []string{suggestionPrompt(s.catalog, serviceID, preferences)},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: "Suggest appointment times."}},
		MaxTokens:   512,
		Temperature: 0.4,
	})
	if err != nil {
		s.logger.Warn("suggestion completion failed", "error", err, "service_id", serviceID)
		return s.defaultSuggestions(), nil
	}

	var payload struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	cleaned := stripCodeFences(resp.Text)
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		if embedded := extractJSONObject(cleaned); embedded != "" {
			_ = json.Unmarshal([]byte(embedded), &payload)
		}
	}

	// Keep only suggestions naming real slots.
	valid := payload.Suggestions[:0]
	for _, sug := range payload.Suggestions {
		if s.catalog.KnownSlot(sug.Time) {
			valid = append(valid, sug)
		}
	}
	if len(valid) == 0 {
		return s.defaultSuggestions(), nil
	}
	if len(valid) > 3 {
		valid = valid[:3]
	}
	return valid, nil
}

func (s *Service) defaultSuggestions() []Suggestion {
	slots := s.catalog.Slots()
	n := 3
	if len(slots) < n {
		n = len(slots)
	}
	out := make([]Suggestion, 0, n)
	for _, slot := range slots[:n] {
		out = append(out, Suggestion{Time: slot, Reason: "Morning slots tend to have the shortest wait."})
	}
	return out
}
