package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Auction is an ascending-price auction snapshot. HighestBidder is empty
// until the first accepted bid.
type Auction struct {
	AssetID       string      `json:"asset_id"`
	Seller        string      `json:"seller"`
	StartingPrice sdkmath.Int `json:"starting_price"`
	ReservePrice  sdkmath.Int `json:"reserve_price"`
	EndTime       uint64      `json:"end_time"` // Unix seconds bidding closes
	HighestBid    sdkmath.Int `json:"highest_bid"`
	HighestBidder string      `json:"highest_bidder,omitempty"`
}

// Validate checks the auction invariants. Once any bid exists the highest bid
// must meet the starting price.
func (a Auction) Validate() error {
	if a.AssetID == "" {
		return fmt.Errorf("auction: asset id is required")
	}
	if a.Seller == "" {
		return fmt.Errorf("auction %s: seller is required", a.AssetID)
	}
	if a.StartingPrice.IsNil() || a.StartingPrice.IsNegative() {
		return fmt.Errorf("auction %s: starting price must be non-negative", a.AssetID)
	}
	if a.ReservePrice.IsNil() || a.ReservePrice.IsNegative() {
		return fmt.Errorf("auction %s: reserve price must be non-negative", a.AssetID)
	}
	if a.HighestBid.IsNil() || a.HighestBid.IsNegative() {
		return fmt.Errorf("auction %s: highest bid must be non-negative", a.AssetID)
	}
	if a.HighestBidder != "" && a.HighestBid.LT(a.StartingPrice) {
		return fmt.Errorf("auction %s: highest bid %s below starting price %s", a.AssetID, a.HighestBid, a.StartingPrice)
	}
	return nil
}
