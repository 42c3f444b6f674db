package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/agrifi-network/ledger-engine/internal/fixedpoint"
)

// PaymentStream is a constant-rate payment between two accounts. The stream is
// immutable once opened; cancellation is expressed by the caller freezing the
// end time at the cancellation timestamp.
type PaymentStream struct {
	Payer          string      `json:"payer"`
	Payee          string      `json:"payee"`
	Rate           sdkmath.Int `json:"rate"`            // Units per second
	StartTime      uint64      `json:"start_time"`      // Unix seconds accrual begins
	EndTime        uint64      `json:"end_time"`        // Unix seconds accrual stops
	TotalCommitted sdkmath.Int `json:"total_committed"` // Upper bound on total streamed value
}

// Validate checks the stream invariants, including that the committed amount
// covers the full rate * (end - start) accrual.
func (s PaymentStream) Validate() error {
	if s.Payer == "" || s.Payee == "" {
		return fmt.Errorf("payment stream: payer and payee are required")
	}
	if s.Rate.IsNil() || s.Rate.IsNegative() {
		return fmt.Errorf("payment stream %s->%s: rate must be non-negative", s.Payer, s.Payee)
	}
	if s.TotalCommitted.IsNil() || s.TotalCommitted.IsNegative() {
		return fmt.Errorf("payment stream %s->%s: committed amount must be non-negative", s.Payer, s.Payee)
	}
	if s.EndTime < s.StartTime {
		return fmt.Errorf("payment stream %s->%s: end time %d precedes start time %d", s.Payer, s.Payee, s.EndTime, s.StartTime)
	}
	full, err := fixedpoint.Mul(s.Rate, sdkmath.NewIntFromUint64(s.EndTime-s.StartTime))
	if err != nil {
		return fmt.Errorf("payment stream %s->%s: full-duration accrual: %w", s.Payer, s.Payee, err)
	}
	if full.GT(s.TotalCommitted) {
		return fmt.Errorf("payment stream %s->%s: rate over full duration %s exceeds committed %s", s.Payer, s.Payee, full, s.TotalCommitted)
	}
	return nil
}
