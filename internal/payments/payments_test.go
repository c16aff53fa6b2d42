package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthfirst/connect/internal/booking"
	"github.com/healthfirst/connect/internal/catalog"
	"github.com/healthfirst/connect/internal/identity"
	"github.com/healthfirst/connect/pkg/logging"
)

func TestCheckoutMintsMillisecondTransactionID(t *testing.T) {
	p := NewProcessor(true, logging.Default())
	p.now = func() time.Time { return time.UnixMilli(1700000000123).UTC() }

	r, err := p.Checkout(context.Background(), "user-1", booking.Draft{ServiceID: "cardiology"}, 12000)
	require.NoError(t, err)

	assert.Equal(t, "RCPT-1700000000123", r.TransactionID)
	assert.Equal(t, int64(12000), r.Amount)
	assert.Equal(t, "cardiology", r.ServiceID)
}

func TestCheckoutDisabled(t *testing.T) {
	p := NewProcessor(false, logging.Default())

	_, err := p.Checkout(context.Background(), "user-1", booking.Draft{ServiceID: "cardiology"}, 12000)
	assert.ErrorIs(t, err, ErrSimulationDisabled)
}

func newCheckoutRequest(user identity.User) (*httptest.ResponseRecorder, *http.Request) {
	req := httptest.NewRequest(http.MethodPost, "/payments/checkout", nil)
	if user.ID != "" {
		req = req.WithContext(identity.WithUser(req.Context(), user))
	}
	return httptest.NewRecorder(), req
}

func TestCheckoutHandlerChargesCatalogPrice(t *testing.T) {
	drafts := booking.NewMemoryDraftStore(time.Minute)
	_, err := drafts.Start(context.Background(), "user-1", "cardiology")
	require.NoError(t, err)

	h := NewHandler(NewProcessor(true, logging.Default()), drafts, catalog.Default(), logging.Default())
	rec, req := newCheckoutRequest(identity.User{ID: "user-1"})
	h.Checkout(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var receipt Receipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	assert.Equal(t, int64(12000), receipt.Amount, "amount comes from the catalog, not the client")
	assert.Regexp(t, `^RCPT-\d+$`, receipt.TransactionID)
}

func TestCheckoutHandlerWithoutDraft(t *testing.T) {
	h := NewHandler(NewProcessor(true, logging.Default()), booking.NewMemoryDraftStore(time.Minute), catalog.Default(), logging.Default())

	rec, req := newCheckoutRequest(identity.User{ID: "user-1"})
	h.Checkout(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckoutHandlerWithoutService(t *testing.T) {
	drafts := booking.NewMemoryDraftStore(time.Minute)
	_, err := drafts.Start(context.Background(), "user-1", "")
	require.NoError(t, err)

	h := NewHandler(NewProcessor(true, logging.Default()), drafts, catalog.Default(), logging.Default())
	rec, req := newCheckoutRequest(identity.User{ID: "user-1"})
	h.Checkout(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCheckoutHandlerDisabled(t *testing.T) {
	drafts := booking.NewMemoryDraftStore(time.Minute)
	_, err := drafts.Start(context.Background(), "user-1", "cardiology")
	require.NoError(t, err)

	h := NewHandler(NewProcessor(false, logging.Default()), drafts, catalog.Default(), logging.Default())
	rec, req := newCheckoutRequest(identity.User{ID: "user-1"})
	h.Checkout(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCheckoutHandlerRequiresAuth(t *testing.T) {
	h := NewHandler(NewProcessor(true, logging.Default()), booking.NewMemoryDraftStore(time.Minute), catalog.Default(), logging.Default())

	rec, req := newCheckoutRequest(identity.User{})
	h.Checkout(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
