package chainreader

import (
	"github.com/agrifi-network/ledger-engine/internal/config"
	"github.com/agrifi-network/ledger-engine/internal/types"
)

// Reader bundles the snapshot and RPC fetchers behind one value so consumers
// can depend on an interface instead of package functions.
type Reader struct{}

// NewReader returns a Reader using the configured endpoints.
func NewReader() Reader {
	return Reader{}
}

func (Reader) StakingSnapshot(poolAccount, staker string) (StakingSnapshot, error) {
	return FetchStakingSnapshot(poolAccount, staker)
}

func (Reader) VestingSchedule(beneficiary string) (types.VestingSchedule, error) {
	return FetchVestingSchedule(beneficiary)
}

func (Reader) PaymentStream(streamID string) (types.PaymentStream, error) {
	return FetchPaymentStream(streamID)
}

func (Reader) AMMPool(poolID, denomIn, denomOut string) (types.AMMPool, error) {
	return FetchAMMPool(poolID, denomIn, denomOut)
}

func (Reader) Auction(assetID string) (types.Auction, error) {
	return FetchAuction(assetID)
}

func (Reader) LiquidationCase(borrower string) (types.LiquidationCase, error) {
	return FetchLiquidationCase(borrower)
}

func (Reader) LatestBlockTime() (uint64, error) {
	return LatestBlockTime(config.NodeRPC)
}
