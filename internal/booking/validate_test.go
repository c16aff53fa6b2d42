package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthfirst/connect/internal/catalog"
)

var validateNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func validDraft() Draft {
	return Draft{
		ServiceID:    "general-consultation",
		Date:         "2025-03-10",
		Time:         "09:00 AM",
		PatientName:  "Asha Rao",
		PatientEmail: "asha@example.com",
		PatientPhone: "+91 9876543210",
	}
}

func TestValidateDraftAccepts(t *testing.T) {
	assert.NoError(t, ValidateDraft(catalog.Default(), validDraft(), validateNow))
}

func TestValidateDraftPhoneIsOptional(t *testing.T) {
	d := validDraft()
	d.PatientPhone = ""
	assert.NoError(t, ValidateDraft(catalog.Default(), d, validateNow))
}

func TestValidateDraftAcceptsToday(t *testing.T) {
	d := validDraft()
	d.Date = "2025-03-01"
	assert.NoError(t, ValidateDraft(catalog.Default(), d, validateNow))
}

func TestValidateDraftTodayBoundaryIgnoresHostZone(t *testing.T) {
	// 23:30 on Feb 28 in UTC+5 is still 18:00 Feb 28 UTC; the UTC date
	// decides, regardless of the zone the clock reading carries.
	kolkata := time.FixedZone("UTC+5", 5*60*60)

	d := validDraft()
	d.Date = "2025-02-28"
	late := time.Date(2025, 2, 28, 23, 30, 0, 0, kolkata)
	assert.NoError(t, ValidateDraft(catalog.Default(), d, late))

	// 03:00 Mar 1 local is 22:00 Feb 28 UTC, so Feb 28 is not yet past.
	early := time.Date(2025, 3, 1, 3, 0, 0, 0, kolkata)
	assert.NoError(t, ValidateDraft(catalog.Default(), d, early))
}

func TestValidateDraftUnknownService(t *testing.T) {
	d := validDraft()
	d.ServiceID = "neurosurgery"

	err := ValidateDraft(catalog.Default(), d, validateNow)

	var be *BookingError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ReasonUnknownService, be.Reason)
}

func TestValidateDraftCollectsProblems(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Draft)
		mention string
	}{
		{"missing service", func(d *Draft) { d.ServiceID = "" }, "serviceId"},
		{"missing date", func(d *Draft) { d.Date = "" }, "date"},
		{"bad date format", func(d *Draft) { d.Date = "10-03-2025" }, "YYYY-MM-DD"},
		{"past date", func(d *Draft) { d.Date = "2025-02-28" }, "past"},
		{"missing slot", func(d *Draft) { d.Time = "" }, "time slot"},
		{"short name", func(d *Draft) { d.PatientName = "A" }, "patientName"},
		{"missing email", func(d *Draft) { d.PatientEmail = "" }, "patientEmail"},
		{"bad email", func(d *Draft) { d.PatientEmail = "asha@nowhere" }, "patientEmail"},
		{"bad phone", func(d *Draft) { d.PatientPhone = "not-a-phone" }, "patientPhone"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDraft()
			tc.mutate(&d)

			err := ValidateDraft(catalog.Default(), d, validateNow)

			var be *BookingError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, ReasonValidationFailed, be.Reason)
			assert.Contains(t, be.Message, tc.mention)
		})
	}
}

func TestValidateDraftReportsAllProblemsAtOnce(t *testing.T) {
	err := ValidateDraft(catalog.Default(), Draft{ServiceID: "cardiology"}, validateNow)

	var be *BookingError
	require.ErrorAs(t, err, &be)
	assert.Contains(t, be.Message, "date is required")
	assert.Contains(t, be.Message, "time slot is required")
	assert.Contains(t, be.Message, "patientName")
	assert.Contains(t, be.Message, "patientEmail")
}
