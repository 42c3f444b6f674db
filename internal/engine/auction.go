package engine

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/agrifi-network/ledger-engine/internal/fixedpoint"
	"github.com/agrifi-network/ledger-engine/internal/types"
)

// BidDecision is the accepted outcome of a bid: the new highest bid and
// bidder for the caller to persist.
type BidDecision struct {
	HighestBid    sdkmath.Int `json:"highest_bid"`
	HighestBidder string      `json:"highest_bidder"`
}

// ValidateBid checks a bid against the auction snapshot at the supplied time.
// A bid must arrive before the end time, come from someone other than the
// seller and strictly exceed both the current highest bid and the starting
// price.
func ValidateBid(auction types.Auction, bidder string, bidAmount sdkmath.Int, now uint64) (BidDecision, error) {
	if err := auction.Validate(); err != nil {
		return BidDecision{}, err
	}
	if bidder == "" {
		return BidDecision{}, fmt.Errorf("auction %s: bidder is required", auction.AssetID)
	}
	if bidAmount.IsNil() || bidAmount.IsNegative() {
		return BidDecision{}, fmt.Errorf("%w: bid amount", fixedpoint.ErrNegativeInput)
	}

	if now >= auction.EndTime {
		return BidDecision{}, fmt.Errorf("%w: ended at %d, bid at %d", ErrAuctionEnded, auction.EndTime, now)
	}
	if bidder == auction.Seller {
		return BidDecision{}, fmt.Errorf("%w: %s", ErrSellerCannotBid, bidder)
	}

	floor := auction.StartingPrice
	if auction.HighestBid.GT(floor) {
		floor = auction.HighestBid
	}
	if bidAmount.LTE(floor) {
		return BidDecision{}, fmt.Errorf("%w: bid %s, current price %s", ErrBidTooLow, bidAmount, floor)
	}

	return BidDecision{HighestBid: bidAmount, HighestBidder: bidder}, nil
}

// IsSettleable reports whether the auction can settle to the highest bidder:
// the end time has passed and the highest bid meets the reserve price.
// Otherwise the asset returns to the seller through an external action.
func IsSettleable(auction types.Auction, now uint64) bool {
	if now < auction.EndTime {
		return false
	}
	if auction.HighestBidder == "" {
		return false
	}
	return auction.HighestBid.GTE(auction.ReservePrice)
}
