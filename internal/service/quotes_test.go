package service

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/agrifi-network/ledger-engine/internal/chainreader"
	"github.com/agrifi-network/ledger-engine/internal/engine"
	"github.com/agrifi-network/ledger-engine/internal/types"
)

// stubReader serves fixed snapshots so quotes are fully deterministic.
type stubReader struct {
	blockTime uint64
}

func (r stubReader) StakingSnapshot(poolAccount, staker string) (chainreader.StakingSnapshot, error) {
	return chainreader.StakingSnapshot{
		Pool: types.StakingPool{
			Account:     poolAccount,
			StakedDenom: "ugrain",
			RewardDenom: "useed",
			RewardRate:  sdkmath.NewInt(1000),
			LockPeriod:  3600,
		},
		Position: types.StakingPosition{
			Staker:         staker,
			Amount:         sdkmath.NewInt(500),
			StartTime:      0,
			ClaimedRewards: sdkmath.ZeroInt(),
		},
	}, nil
}

func (r stubReader) VestingSchedule(beneficiary string) (types.VestingSchedule, error) {
	return types.VestingSchedule{
		Beneficiary: beneficiary,
		TokenDenom:  "useed",
		Total:       sdkmath.NewInt(1200),
		StartTime:   0,
		Cliff:       100,
		Duration:    1000,
		Released:    sdkmath.ZeroInt(),
	}, nil
}

func (r stubReader) PaymentStream(streamID string) (types.PaymentStream, error) {
	return types.PaymentStream{
		Payer:          "agri1payer",
		Payee:          "agri1payee",
		Rate:           sdkmath.NewInt(5),
		StartTime:      0,
		EndTime:        1000,
		TotalCommitted: sdkmath.NewInt(5000),
	}, nil
}

func (r stubReader) AMMPool(poolID, denomIn, denomOut string) (types.AMMPool, error) {
	return types.AMMPool{
		ReserveIn:      sdkmath.NewInt(1000),
		ReserveOut:     sdkmath.NewInt(1000),
		FeeBasisPoints: 30,
	}, nil
}

func (r stubReader) Auction(assetID string) (types.Auction, error) {
	return types.Auction{
		AssetID:       assetID,
		Seller:        "agri1seller",
		StartingPrice: sdkmath.NewInt(10),
		ReservePrice:  sdkmath.NewInt(20),
		EndTime:       1000,
		HighestBid:    sdkmath.ZeroInt(),
	}, nil
}

func (r stubReader) LiquidationCase(borrower string) (types.LiquidationCase, error) {
	return types.LiquidationCase{
		Borrower:   borrower,
		Liquidator: "agri1liquidator",
		Collateral: sdkmath.NewInt(1000),
		Debt:       sdkmath.NewInt(800),
		BonusBps:   1000,
	}, nil
}

func (r stubReader) LatestBlockTime() (uint64, error) {
	return r.blockTime, nil
}

func newTestService(t *testing.T, blockTime uint64) (*QuoteService, *[]types.QuoteReceipt) {
	t.Helper()
	var saved []types.QuoteReceipt
	svc, err := NewQuoteService(Config{
		Reader: stubReader{blockTime: blockTime},
		SaveReceipt: func(r types.QuoteReceipt) (int64, error) {
			saved = append(saved, r)
			return int64(len(saved)), nil
		},
	})
	require.NoError(t, err)
	return svc, &saved
}

func TestNewQuoteServiceRequiresReader(t *testing.T) {
	_, err := NewQuoteService(Config{})
	require.Error(t, err)
}

func TestStakingClaimableQuote(t *testing.T) {
	svc, saved := newTestService(t, 0)

	quote, err := svc.StakingClaimable("agri1pool", "agri1staker", 100)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(50), quote.Claimable)
	require.Equal(t, uint64(100), quote.AsOf)

	require.Len(t, *saved, 1)
	require.Equal(t, "staking", (*saved)[0].Engine)
	require.False(t, (*saved)[0].Rejected)
}

func TestZeroNowResolvesToBlockTime(t *testing.T) {
	svc, _ := newTestService(t, 200)

	quote, err := svc.StakingClaimable("agri1pool", "agri1staker", 0)
	require.NoError(t, err)
	require.Equal(t, uint64(200), quote.AsOf)
	// mulDiv(500, 1000*200, 1e6) = 100
	require.Equal(t, sdkmath.NewInt(100), quote.Claimable)
}

func TestAuthorizeUnstakeRecordsRejection(t *testing.T) {
	svc, saved := newTestService(t, 0)

	_, err := svc.AuthorizeUnstake("agri1pool", "agri1staker", 100)
	require.ErrorIs(t, err, engine.ErrPositionLocked)

	require.Len(t, *saved, 1)
	require.True(t, (*saved)[0].Rejected)
	require.Equal(t, "position_locked", (*saved)[0].RejectCode)
}

func TestVestingQuotes(t *testing.T) {
	svc, _ := newTestService(t, 0)

	quote, err := svc.VestingReleasable("agri1beneficiary", 550)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(660), quote.Releasable)
	require.Equal(t, engine.VestingLinear, quote.State)

	release, err := svc.VestingRelease("agri1beneficiary", 550)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(660), release.Releasable)
	require.Equal(t, sdkmath.NewInt(660), release.NewReleased)

	_, err = svc.VestingRelease("agri1beneficiary", 50)
	require.ErrorIs(t, err, engine.ErrNothingToRelease)
}

func TestStreamQuote(t *testing.T) {
	svc, _ := newTestService(t, 0)

	quote, err := svc.StreamedAmount("stream-1", 600)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(3000), quote.Streamed)

	ok, err := svc.CanCancelStream("stream-1", "agri1payer")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.CanCancelStream("stream-1", "agri1stranger")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSwapQuote(t *testing.T) {
	svc, saved := newTestService(t, 0)

	result, err := svc.SwapQuote("pool-1", "ugrain", "useed", sdkmath.NewInt(100), sdkmath.ZeroInt(), 500)
	require.NoError(t, err)
	require.True(t, result.AmountOut.IsPositive())
	require.True(t, result.AmountOut.LT(sdkmath.NewInt(100)))
	// out=90 for in=100 is a 0.90 execution price on the 1e6 scale.
	require.Equal(t, sdkmath.NewInt(900_000), result.PriceScaled)
	// 30 bps = 0.003 on the 1e6 scale.
	require.Equal(t, sdkmath.NewInt(3_000), result.FeeScaled)
	require.Equal(t, uint64(500), result.AsOf)

	_, err = svc.SwapQuote("pool-1", "ugrain", "useed", sdkmath.NewInt(100), sdkmath.NewInt(100), 500)
	require.ErrorIs(t, err, engine.ErrSlippageExceeded)

	require.Len(t, *saved, 2)
	require.Equal(t, "slippage_exceeded", (*saved)[1].RejectCode)
}

func TestBidAndSettle(t *testing.T) {
	svc, _ := newTestService(t, 0)

	decision, err := svc.ValidateBid("plot-42", "agri1bidder", sdkmath.NewInt(15), 500)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(15), decision.HighestBid)

	_, err = svc.ValidateBid("plot-42", "agri1seller", sdkmath.NewInt(15), 500)
	require.ErrorIs(t, err, engine.ErrSellerCannotBid)

	settleable, err := svc.AuctionSettleable("plot-42", 1000)
	require.NoError(t, err)
	require.False(t, settleable, "no bids on the stored snapshot")
}

func TestLiquidationQuote(t *testing.T) {
	svc, _ := newTestService(t, 0)

	result, err := svc.Liquidation("agri1borrower", sdkmath.NewInt(400), nil, 500)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(550), result.SeizedCollateral)
	require.Equal(t, sdkmath.NewInt(400), result.RemainingDebt)

	_, err = svc.Liquidation("agri1borrower", sdkmath.NewInt(900), nil, 500)
	require.ErrorIs(t, err, engine.ErrOverLiquidation)
}

func TestLiquidationBonusOverride(t *testing.T) {
	svc, _ := newTestService(t, 0)

	// Snapshot bonus is 10%; a what-if override at 20% lifts the seizure
	// from 550 to 600 without touching the stored case.
	override := uint64(2000)
	result, err := svc.Liquidation("agri1borrower", sdkmath.NewInt(400), &override, 500)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(600), result.SeizedCollateral)

	result, err = svc.Liquidation("agri1borrower", sdkmath.NewInt(400), nil, 500)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(550), result.SeizedCollateral)
}
