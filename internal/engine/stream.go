package engine

import (
	sdkmath "cosmossdk.io/math"

	"github.com/agrifi-network/ledger-engine/internal/fixedpoint"
	"github.com/agrifi-network/ledger-engine/internal/types"
)

// StreamedAmount returns the value streamed from payer to payee as of now:
// zero before the stream starts, rate * elapsed while it runs, frozen at the
// end time and capped by the committed total.
func StreamedAmount(stream types.PaymentStream, now uint64) (sdkmath.Int, error) {
	if err := stream.Validate(); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if now <= stream.StartTime {
		return sdkmath.ZeroInt(), nil
	}

	effective := now
	if effective > stream.EndTime {
		effective = stream.EndTime
	}

	accrued, err := fixedpoint.Mul(stream.Rate, sdkmath.NewIntFromUint64(effective-stream.StartTime))
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return fixedpoint.Min(accrued, stream.TotalCommitted), nil
}

// CanCancel reports whether the requester is authorized to cancel the stream.
// Only the payer and the payee may cancel. Cancellation itself is expressed
// by the caller re-reading the stream with the frozen end time; the engine
// holds no state to mutate.
func CanCancel(stream types.PaymentStream, requester string) bool {
	return requester != "" && (requester == stream.Payer || requester == stream.Payee)
}
