/*

QuoteService binds the chain-state reader, the pure engines and the receipt
store. It is the only layer that touches all three: it resolves the as-of
time, feeds immutable snapshots into an engine and records what was derived.
The engines themselves stay free of I/O.

*/

package service

import (
	"encoding/json"
	"fmt"
	"strconv"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/agrifi-network/ledger-engine/internal/chainreader"
	"github.com/agrifi-network/ledger-engine/internal/engine"
	"github.com/agrifi-network/ledger-engine/internal/logger"
	"github.com/agrifi-network/ledger-engine/internal/state"
	"github.com/agrifi-network/ledger-engine/internal/types"
	"github.com/agrifi-network/ledger-engine/internal/utils"
)

// LedgerReader supplies immutable ledger facts. chainreader.Reader is the
// live implementation; tests substitute their own.
type LedgerReader interface {
	StakingSnapshot(poolAccount, staker string) (chainreader.StakingSnapshot, error)
	VestingSchedule(beneficiary string) (types.VestingSchedule, error)
	PaymentStream(streamID string) (types.PaymentStream, error)
	AMMPool(poolID, denomIn, denomOut string) (types.AMMPool, error)
	Auction(assetID string) (types.Auction, error)
	LiquidationCase(borrower string) (types.LiquidationCase, error)
	LatestBlockTime() (uint64, error)
}

// QuoteService orchestrates reader, engines and receipt persistence.
type QuoteService struct {
	logger      zerolog.Logger
	reader      LedgerReader
	saveReceipt func(types.QuoteReceipt) (int64, error)
}

// Config holds the dependencies for creating a new QuoteService.
type Config struct {
	Reader LedgerReader
	// SaveReceipt persists audit records; defaults to the Postgres store.
	SaveReceipt func(types.QuoteReceipt) (int64, error)
}

// NewQuoteService creates a QuoteService with dependency injection.
func NewQuoteService(cfg Config) (*QuoteService, error) {
	if cfg.Reader == nil {
		return nil, fmt.Errorf("quote service configuration validation failed: reader is required")
	}
	save := cfg.SaveReceipt
	if save == nil {
		save = state.SaveQuoteReceipt
	}
	return &QuoteService{
		logger:      logger.GetForComponent("quote_service"),
		reader:      cfg.Reader,
		saveReceipt: save,
	}, nil
}

// resolveAsOf returns the caller-supplied time, or the latest block time when
// the caller passed zero. The engine never samples a clock itself.
func (s *QuoteService) resolveAsOf(now uint64) (uint64, error) {
	if now != 0 {
		return now, nil
	}
	blockTime, err := s.reader.LatestBlockTime()
	if err != nil {
		return 0, fmt.Errorf("failed to resolve as-of time: %w", err)
	}
	return blockTime, nil
}

// record persists a receipt; persistence failures are logged, never allowed
// to block a quote that was already derived.
func (s *QuoteService) record(engineName string, request any, result any, asOf uint64, quoteErr error) {
	receipt := types.QuoteReceipt{
		Engine: engineName,
		AsOf:   asOf,
	}
	if reqJSON, err := json.Marshal(request); err == nil {
		receipt.Request = string(reqJSON)
	}
	if quoteErr != nil {
		receipt.Rejected = true
		receipt.RejectCode = engine.RejectCode(quoteErr)
	} else if resJSON, err := json.Marshal(result); err == nil {
		receipt.Result = string(resJSON)
	}

	if _, err := s.saveReceipt(receipt); err != nil {
		s.logger.Warn().Err(err).Str("engine", engineName).Msg("Failed to persist quote receipt")
	}
}

// StakingQuote is a staking claimable quote with the as-of time it was
// derived at.
type StakingQuote struct {
	Claimable sdkmath.Int `json:"claimable"`
	AsOf      uint64      `json:"as_of"`
}

// StakingClaimable derives the claimable reward for a staker in a pool.
func (s *QuoteService) StakingClaimable(poolAccount, staker string, now uint64) (StakingQuote, error) {
	asOf, err := s.resolveAsOf(now)
	if err != nil {
		return StakingQuote{}, err
	}
	snapshot, err := s.reader.StakingSnapshot(poolAccount, staker)
	if err != nil {
		return StakingQuote{}, err
	}

	claimable, err := engine.Claimable(snapshot.Position, snapshot.Pool, asOf)
	request := map[string]string{"pool": poolAccount, "staker": staker}
	quote := StakingQuote{Claimable: claimable, AsOf: asOf}
	s.record("staking", request, quote, asOf, err)
	if err != nil {
		return StakingQuote{}, err
	}

	s.logger.Info().
		Str("staker", staker).
		Str("claimable", claimable.String()).
		Uint64("asOf", asOf).
		Msg("Derived staking claimable")
	return quote, nil
}

// AuthorizeUnstake checks the pool lock period for a staker's position.
func (s *QuoteService) AuthorizeUnstake(poolAccount, staker string, now uint64) (uint64, error) {
	asOf, err := s.resolveAsOf(now)
	if err != nil {
		return 0, err
	}
	snapshot, err := s.reader.StakingSnapshot(poolAccount, staker)
	if err != nil {
		return 0, err
	}

	err = engine.AuthorizeUnstake(snapshot.Position, snapshot.Pool, asOf)
	request := map[string]string{"pool": poolAccount, "staker": staker, "op": "unstake"}
	s.record("staking", request, map[string]bool{"authorized": err == nil}, asOf, err)
	return asOf, err
}

// VestingQuote is a releasable quote plus the schedule phase.
type VestingQuote struct {
	Releasable  sdkmath.Int         `json:"releasable"`
	NewReleased sdkmath.Int         `json:"new_released"`
	State       engine.VestingState `json:"state"`
	AsOf        uint64              `json:"as_of"`
}

// VestingReleasable derives the releasable amount for a beneficiary.
func (s *QuoteService) VestingReleasable(beneficiary string, now uint64) (VestingQuote, error) {
	asOf, err := s.resolveAsOf(now)
	if err != nil {
		return VestingQuote{}, err
	}
	schedule, err := s.reader.VestingSchedule(beneficiary)
	if err != nil {
		return VestingQuote{}, err
	}

	releasable, err := engine.Releasable(schedule, asOf)
	request := map[string]string{"beneficiary": beneficiary}
	quote := VestingQuote{
		Releasable:  releasable,
		NewReleased: schedule.Released.Add(releasable),
		State:       engine.VestingStateAt(schedule, asOf),
		AsOf:        asOf,
	}
	s.record("vesting", request, quote, asOf, err)
	if err != nil {
		return VestingQuote{}, err
	}
	return quote, nil
}

// VestingRelease derives the claim increment a release transaction should
// carry. The chain persists the new released total; this service only quotes.
func (s *QuoteService) VestingRelease(beneficiary string, now uint64) (VestingQuote, error) {
	asOf, err := s.resolveAsOf(now)
	if err != nil {
		return VestingQuote{}, err
	}
	schedule, err := s.reader.VestingSchedule(beneficiary)
	if err != nil {
		return VestingQuote{}, err
	}

	newReleased, increment, err := engine.Release(schedule, asOf)
	request := map[string]string{"beneficiary": beneficiary, "op": "release"}
	quote := VestingQuote{
		Releasable:  increment,
		NewReleased: newReleased,
		State:       engine.VestingStateAt(schedule, asOf),
		AsOf:        asOf,
	}
	s.record("vesting", request, quote, asOf, err)
	if err != nil {
		return VestingQuote{}, err
	}
	return quote, nil
}

// StreamQuote is a streamed-amount quote.
type StreamQuote struct {
	Streamed sdkmath.Int `json:"streamed"`
	AsOf     uint64      `json:"as_of"`
}

// StreamedAmount derives the value streamed to the payee as of now.
func (s *QuoteService) StreamedAmount(streamID string, now uint64) (StreamQuote, error) {
	asOf, err := s.resolveAsOf(now)
	if err != nil {
		return StreamQuote{}, err
	}
	stream, err := s.reader.PaymentStream(streamID)
	if err != nil {
		return StreamQuote{}, err
	}

	streamed, err := engine.StreamedAmount(stream, asOf)
	request := map[string]string{"stream": streamID}
	quote := StreamQuote{Streamed: streamed, AsOf: asOf}
	s.record("stream", request, quote, asOf, err)
	if err != nil {
		return StreamQuote{}, err
	}
	return quote, nil
}

// CanCancelStream reports whether requester may cancel the stream.
func (s *QuoteService) CanCancelStream(streamID, requester string) (bool, error) {
	stream, err := s.reader.PaymentStream(streamID)
	if err != nil {
		return false, err
	}
	return engine.CanCancel(stream, requester), nil
}

// SwapQuote is a priced swap plus the execution price and pool fee expressed
// on the shared 1e6 scale.
type SwapQuote struct {
	engine.SwapResult
	PriceScaled sdkmath.Int `json:"price_scaled"`
	FeeScaled   sdkmath.Int `json:"fee_scaled"`
	AsOf        uint64      `json:"as_of"`
}

// SwapQuote derives a constant-product swap output for a pool snapshot.
func (s *QuoteService) SwapQuote(poolID, denomIn, denomOut string, amountIn, minAmountOut sdkmath.Int, now uint64) (SwapQuote, error) {
	asOf, err := s.resolveAsOf(now)
	if err != nil {
		return SwapQuote{}, err
	}
	pool, err := s.reader.AMMPool(poolID, denomIn, denomOut)
	if err != nil {
		return SwapQuote{}, err
	}

	result, err := engine.SwapOutput(pool, amountIn, minAmountOut)
	request := map[string]string{
		"pool": poolID, "denom_in": denomIn, "denom_out": denomOut,
		"amount_in": amountIn.String(), "min_amount_out": minAmountOut.String(),
	}
	s.record("amm", request, result, asOf, err)
	if err != nil {
		return SwapQuote{}, err
	}

	price, err := utils.RatioToScaled(result.AmountOut, amountIn)
	if err != nil {
		return SwapQuote{}, err
	}
	feeScaled, err := utils.BasisPointsToScaled(pool.FeeBasisPoints)
	if err != nil {
		return SwapQuote{}, err
	}

	s.logger.Info().
		Str("pool", poolID).
		Str("amountIn", amountIn.String()).
		Str("amountOut", result.AmountOut.String()).
		Msg("Derived swap quote")
	return SwapQuote{
		SwapResult:  result,
		PriceScaled: price,
		FeeScaled:   feeScaled,
		AsOf:        asOf,
	}, nil
}

// ValidateBid checks a bid against the live auction snapshot.
func (s *QuoteService) ValidateBid(assetID, bidder string, bidAmount sdkmath.Int, now uint64) (engine.BidDecision, error) {
	asOf, err := s.resolveAsOf(now)
	if err != nil {
		return engine.BidDecision{}, err
	}
	auction, err := s.reader.Auction(assetID)
	if err != nil {
		return engine.BidDecision{}, err
	}

	decision, err := engine.ValidateBid(auction, bidder, bidAmount, asOf)
	request := map[string]string{"asset": assetID, "bidder": bidder, "bid": bidAmount.String()}
	s.record("auction", request, decision, asOf, err)
	if err != nil {
		return engine.BidDecision{}, err
	}
	return decision, nil
}

// AuctionSettleable reports whether the auction can settle to its highest
// bidder as of now.
func (s *QuoteService) AuctionSettleable(assetID string, now uint64) (bool, error) {
	asOf, err := s.resolveAsOf(now)
	if err != nil {
		return false, err
	}
	auction, err := s.reader.Auction(assetID)
	if err != nil {
		return false, err
	}
	return engine.IsSettleable(auction, asOf), nil
}

// Liquidation derives the seizure outcome for a flagged borrower. A non-nil
// bonusBpsOverride replaces the snapshot's bonus rate for what-if pricing;
// the override is subject to the same cap as the snapshot value.
func (s *QuoteService) Liquidation(borrower string, repayAmount sdkmath.Int, bonusBpsOverride *uint64, now uint64) (engine.LiquidationResult, error) {
	asOf, err := s.resolveAsOf(now)
	if err != nil {
		return engine.LiquidationResult{}, err
	}
	c, err := s.reader.LiquidationCase(borrower)
	if err != nil {
		return engine.LiquidationResult{}, err
	}

	request := map[string]string{"borrower": borrower, "repay": repayAmount.String()}
	if bonusBpsOverride != nil {
		c.BonusBps = *bonusBpsOverride
		request["bonus_bps_override"] = strconv.FormatUint(*bonusBpsOverride, 10)
	}

	result, err := engine.ComputeLiquidation(c, repayAmount)
	s.record("liquidation", request, result, asOf, err)
	if err != nil {
		return engine.LiquidationResult{}, err
	}
	return result, nil
}
