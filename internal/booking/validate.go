package booking

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/healthfirst/connect/internal/catalog"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Permissive international format: optional +, then digits with common
	// separators.
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s().-]{5,19}$`)
)

// ValidateDraft enforces the wizard-boundary rules before a draft reaches the
// lifecycle manager: service selected and known, date present and not in the
// past, slot chosen, patient name at least 2 characters, syntactically valid
// email, permissive international phone. Phone is optional; the rest are not.
func ValidateDraft(cat *catalog.Catalog, d Draft, now time.Time) error {
	var problems []string

	if strings.TrimSpace(d.ServiceID) == "" {
		problems = append(problems, "serviceId is required")
	} else if _, ok := cat.ServiceByID(d.ServiceID); !ok {
		return bookingErr(ReasonUnknownService, fmt.Sprintf("service %q is not in the catalog", d.ServiceID))
	}

	if strings.TrimSpace(d.Date) == "" {
		problems = append(problems, "date is required")
	} else if date, err := time.Parse(DateLayout, d.Date); err != nil {
		problems = append(problems, "date must be formatted YYYY-MM-DD")
	} else {
		// The draft date parses as UTC midnight, so truncate "today" in UTC
		// too; mixing in the host zone shifts the boundary near midnight.
		y, m, d := now.UTC().Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if date.Before(today) {
			problems = append(problems, "date must not be in the past")
		}
	}

	if strings.TrimSpace(d.Time) == "" {
		problems = append(problems, "time slot is required")
	}

	if utf8.RuneCountInString(strings.TrimSpace(d.PatientName)) < 2 {
		problems = append(problems, "patientName must be at least 2 characters")
	}

	if strings.TrimSpace(d.PatientEmail) == "" {
		problems = append(problems, "patientEmail is required")
	} else if !emailPattern.MatchString(d.PatientEmail) {
		problems = append(problems, "patientEmail is not a valid email address")
	}

	if d.PatientPhone != "" && !phonePattern.MatchString(d.PatientPhone) {
		problems = append(problems, "patientPhone is not a valid phone number")
	}

	if len(problems) > 0 {
		return bookingErr(ReasonValidationFailed, strings.Join(problems, "; "))
	}
	return nil
}
