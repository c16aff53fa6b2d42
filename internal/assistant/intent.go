package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/healthfirst/connect/internal/catalog"
)

// ErrUnparseableReply signals the model did not honor the JSON contract. The
// caller falls back to a generic retry message instead of surfacing raw text.
var ErrUnparseableReply = errors.New("assistant: model reply was not valid intent JSON")

// StartBookingIntent asks the wizard to begin with a service preselected.
type StartBookingIntent struct {
	ServiceID string `json:"serviceId"`
}

// ConfirmBookingIntent carries a fully collected booking the patient agreed
// to finalize in chat.
type ConfirmBookingIntent struct {
	ServiceID    string `json:"serviceId"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	PatientName  string `json:"patientName"`
	PatientEmail string `json:"patientEmail"`
	PatientPhone string `json:"patientPhone"`
}

// Intent is the parsed, validated model output: always a reply, plus at most
// one action.
type Intent struct {
	Reply          string                `json:"reply"`
	StartBooking   *StartBookingIntent   `json:"startBooking,omitempty"`
	ConfirmBooking *ConfirmBookingIntent `json:"confirmBooking,omitempty"`
}

// ParseIntent decodes the model's JSON contract and validates every action
// against the catalog. Actions referencing unknown services or slots are
// dropped rather than forwarded; the reply text survives.
func ParseIntent(raw string, cat *catalog.Catalog) (Intent, error) {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return Intent{}, ErrUnparseableReply
	}

	var intent Intent
	if err := json.Unmarshal([]byte(cleaned), &intent); err != nil {
		// Some models wrap JSON in prose. Try the outermost object.
		if embedded := extractJSONObject(cleaned); embedded != "" {
			if err2 := json.Unmarshal([]byte(embedded), &intent); err2 == nil {
				return validateIntent(intent, cat)
			}
		}
		return Intent{}, fmt.Errorf("%w: %v", ErrUnparseableReply, err)
	}
	return validateIntent(intent, cat)
}

func validateIntent(intent Intent, cat *catalog.Catalog) (Intent, error) {
	if strings.TrimSpace(intent.Reply) == "" {
		return Intent{}, ErrUnparseableReply
	}

	// At most one action per turn; confirm wins if the model sent both.
	if intent.ConfirmBooking != nil {
		intent.StartBooking = nil
	}

	if sb := intent.StartBooking; sb != nil {
		if _, ok := cat.ServiceByID(sb.ServiceID); !ok {
			intent.StartBooking = nil
		}
	}

	if cb := intent.ConfirmBooking; cb != nil {
		_, knownService := cat.ServiceByID(cb.ServiceID)
		complete := knownService &&
			cb.Date != "" &&
			cat.KnownSlot(cb.Time) &&
			cb.PatientName != "" &&
			cb.PatientEmail != ""
		if !complete {
			intent.ConfirmBooking = nil
		}
	}

	return intent, nil
}

// stripCodeFences removes a ```json ... ``` wrapper if present.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractJSONObject returns the first balanced top-level {...} in s.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
