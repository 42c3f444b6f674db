package engine

import (
	"errors"

	"github.com/agrifi-network/ledger-engine/internal/accrual"
	"github.com/agrifi-network/ledger-engine/internal/fixedpoint"
)

// Domain-rule rejections. Callers branch on these routinely; they are
// structured reasons, not exceptional failures.
var (
	ErrPositionLocked        = errors.New("position is locked")
	ErrAuctionEnded          = errors.New("auction has ended")
	ErrBidTooLow             = errors.New("bid does not exceed current price")
	ErrSellerCannotBid       = errors.New("seller cannot bid on own auction")
	ErrOverLiquidation       = errors.New("repay amount exceeds outstanding debt")
	ErrInsufficientLiquidity = errors.New("swap would drain the pool")
	ErrSlippageExceeded      = errors.New("output below minimum acceptable amount")
)

// No-op conditions, distinct from true errors so callers can skip a
// transaction instead of retrying.
var (
	ErrNothingToRelease = errors.New("nothing to release")
	ErrZeroAmount       = errors.New("amount is zero")
)

// RejectCode maps an engine error to a stable string identifier suitable for
// receipts and API payloads. Unknown errors map to "internal".
func RejectCode(err error) string {
	switch {
	case errors.Is(err, ErrPositionLocked):
		return "position_locked"
	case errors.Is(err, ErrAuctionEnded):
		return "auction_ended"
	case errors.Is(err, ErrBidTooLow):
		return "bid_too_low"
	case errors.Is(err, ErrSellerCannotBid):
		return "seller_cannot_bid"
	case errors.Is(err, ErrOverLiquidation):
		return "over_liquidation"
	case errors.Is(err, ErrInsufficientLiquidity):
		return "insufficient_liquidity"
	case errors.Is(err, ErrSlippageExceeded):
		return "slippage_exceeded"
	case errors.Is(err, ErrNothingToRelease):
		return "nothing_to_release"
	case errors.Is(err, ErrZeroAmount):
		return "zero_amount"
	case errors.Is(err, accrual.ErrClockRegression):
		return "clock_regression"
	case errors.Is(err, fixedpoint.ErrOverflow):
		return "arithmetic_overflow"
	case errors.Is(err, fixedpoint.ErrDivisionByZero):
		return "division_by_zero"
	default:
		return "internal"
	}
}
