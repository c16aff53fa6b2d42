// Package payments provides the simulated checkout used between the booking
// wizard and confirmation. No money moves: the processor mints a transaction
// id that the booking service records as-is.
package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/healthfirst/connect/internal/booking"
	"github.com/healthfirst/connect/pkg/logging"
)

// ErrSimulationDisabled is returned when the deployment has not opted in to
// simulated payments. There is no real processor to fall back to.
var ErrSimulationDisabled = errors.New("payments: simulated payments are disabled")

// Receipt is the outcome of a simulated capture.
type Receipt struct {
	TransactionID string    `json:"transactionId"`
	Amount        int64     `json:"amount"`
	ServiceID     string    `json:"serviceId"`
	PaidAt        time.Time `json:"paidAt"`
}

// Processor mints simulated payment transactions. Safe for concurrent use.
type Processor struct {
	enabled bool
	logger  *logging.Logger
	now     func() time.Time
}

func NewProcessor(enabled bool, logger *logging.Logger) *Processor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Processor{enabled: enabled, logger: logger, now: time.Now}
}

// Checkout simulates a successful capture for the given draft and amount.
// Transaction ids are "RCPT-" plus the capture time in Unix milliseconds,
// matching what the receipt lookup index stores.
func (p *Processor) Checkout(ctx context.Context, userID string, draft booking.Draft, amount int64) (Receipt, error) {
	if !p.enabled {
		return Receipt{}, ErrSimulationDisabled
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	paidAt := p.now().UTC()
	r := Receipt{
		TransactionID: fmt.Sprintf("RCPT-%d", paidAt.UnixMilli()),
		Amount:        amount,
		ServiceID:     draft.ServiceID,
		PaidAt:        paidAt,
	}

	p.logger.Info("simulated payment captured",
		"transaction_id", r.TransactionID, "user_id", userID, "amount", amount)
	return r, nil
}
