package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthfirst/connect/internal/catalog"
)

func TestParseIntentPlainReply(t *testing.T) {
	intent, err := ParseIntent(`{"reply":"We offer six services."}`, catalog.Default())
	require.NoError(t, err)
	assert.Equal(t, "We offer six services.", intent.Reply)
	assert.Nil(t, intent.StartBooking)
	assert.Nil(t, intent.ConfirmBooking)
}

func TestParseIntentStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"reply\":\"Sure!\",\"startBooking\":{\"serviceId\":\"cardiology\"}}\n```"

	intent, err := ParseIntent(raw, catalog.Default())
	require.NoError(t, err)
	require.NotNil(t, intent.StartBooking)
	assert.Equal(t, "cardiology", intent.StartBooking.ServiceID)
}

func TestParseIntentExtractsEmbeddedJSON(t *testing.T) {
	raw := `Here is my answer: {"reply":"Hello there"} hope that helps`

	intent, err := ParseIntent(raw, catalog.Default())
	require.NoError(t, err)
	assert.Equal(t, "Hello there", intent.Reply)
}

func TestParseIntentDropsUnknownServiceAction(t *testing.T) {
	intent, err := ParseIntent(`{"reply":"Booking neurosurgery","startBooking":{"serviceId":"neurosurgery"}}`, catalog.Default())
	require.NoError(t, err)
	assert.Nil(t, intent.StartBooking, "actions for services outside the catalog must be dropped")
	assert.Equal(t, "Booking neurosurgery", intent.Reply)
}

func TestParseIntentDropsIncompleteConfirm(t *testing.T) {
	raw := `{"reply":"Confirming","confirmBooking":{"serviceId":"cardiology","date":"2031-03-10","time":"10:00 AM","patientName":"","patientEmail":"asha@example.com"}}`

	intent, err := ParseIntent(raw, catalog.Default())
	require.NoError(t, err)
	assert.Nil(t, intent.ConfirmBooking)
}

func TestParseIntentDropsConfirmWithUnknownSlot(t *testing.T) {
	raw := `{"reply":"Confirming","confirmBooking":{"serviceId":"cardiology","date":"2031-03-10","time":"03:17 AM","patientName":"Asha Rao","patientEmail":"asha@example.com"}}`

	intent, err := ParseIntent(raw, catalog.Default())
	require.NoError(t, err)
	assert.Nil(t, intent.ConfirmBooking)
}

func TestParseIntentKeepsCompleteConfirm(t *testing.T) {
	raw := `{"reply":"Done","confirmBooking":{"serviceId":"cardiology","date":"2031-03-10","time":"10:00 AM","patientName":"Asha Rao","patientEmail":"asha@example.com","patientPhone":"+91 9876543210"}}`

	intent, err := ParseIntent(raw, catalog.Default())
	require.NoError(t, err)
	require.NotNil(t, intent.ConfirmBooking)
	assert.Equal(t, "cardiology", intent.ConfirmBooking.ServiceID)
	assert.Equal(t, "Asha Rao", intent.ConfirmBooking.PatientName)
}

func TestParseIntentConfirmWinsOverStart(t *testing.T) {
	raw := `{"reply":"Done","startBooking":{"serviceId":"cardiology"},"confirmBooking":{"serviceId":"cardiology","date":"2031-03-10","time":"10:00 AM","patientName":"Asha Rao","patientEmail":"asha@example.com"}}`

	intent, err := ParseIntent(raw, catalog.Default())
	require.NoError(t, err)
	assert.Nil(t, intent.StartBooking)
	assert.NotNil(t, intent.ConfirmBooking)
}

func TestParseIntentGarbage(t *testing.T) {
	for _, raw := range []string{"", "I cannot answer that.", `{"reply":""}`} {
		_, err := ParseIntent(raw, catalog.Default())
		assert.ErrorIs(t, err, ErrUnparseableReply, "input %q", raw)
	}
}
