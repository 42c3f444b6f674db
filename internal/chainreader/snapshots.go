/*

Entity snapshot retrieval from the contract-state indexer. Every fetch
validates the snapshot before handing it to the engine - no partial results
with financial data.

*/

package chainreader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/agrifi-network/ledger-engine/internal/config"
	"github.com/agrifi-network/ledger-engine/internal/logger"
	"github.com/agrifi-network/ledger-engine/internal/types"
)

const snapshotTimeout = 15 * time.Second

var snapshotLogger = logger.GetForComponent("snapshot_reader")

var ErrSnapshotNotFound = errors.New("snapshot not found")

// StakingSnapshot pairs a pool with one staker's position in it.
type StakingSnapshot struct {
	Pool     types.StakingPool     `json:"pool"`
	Position types.StakingPosition `json:"position"`
}

// FetchStakingSnapshot retrieves a pool and the staker's position in it.
func FetchStakingSnapshot(poolAccount, staker string) (StakingSnapshot, error) {
	var snapshot StakingSnapshot
	path := fmt.Sprintf("staking/%s/positions/%s", url.PathEscape(poolAccount), url.PathEscape(staker))
	if err := fetchSnapshot(path, &snapshot); err != nil {
		return StakingSnapshot{}, err
	}
	if err := snapshot.Pool.Validate(); err != nil {
		return StakingSnapshot{}, fmt.Errorf("invalid pool snapshot: %w", err)
	}
	if err := snapshot.Position.Validate(); err != nil {
		return StakingSnapshot{}, fmt.Errorf("invalid position snapshot: %w", err)
	}
	return snapshot, nil
}

// FetchVestingSchedule retrieves a beneficiary's vesting schedule.
func FetchVestingSchedule(beneficiary string) (types.VestingSchedule, error) {
	var schedule types.VestingSchedule
	if err := fetchSnapshot("vesting/"+url.PathEscape(beneficiary), &schedule); err != nil {
		return types.VestingSchedule{}, err
	}
	if err := schedule.Validate(); err != nil {
		return types.VestingSchedule{}, fmt.Errorf("invalid vesting snapshot: %w", err)
	}
	return schedule, nil
}

// FetchPaymentStream retrieves a payment stream by identifier.
func FetchPaymentStream(streamID string) (types.PaymentStream, error) {
	var stream types.PaymentStream
	if err := fetchSnapshot("streams/"+url.PathEscape(streamID), &stream); err != nil {
		return types.PaymentStream{}, err
	}
	if err := stream.Validate(); err != nil {
		return types.PaymentStream{}, fmt.Errorf("invalid stream snapshot: %w", err)
	}
	return stream, nil
}

// FetchAMMPool retrieves a pool oriented for a swap from denomIn to denomOut.
func FetchAMMPool(poolID, denomIn, denomOut string) (types.AMMPool, error) {
	var pool types.AMMPool
	path := fmt.Sprintf("amm/%s?denom_in=%s&denom_out=%s",
		url.PathEscape(poolID), url.QueryEscape(denomIn), url.QueryEscape(denomOut))
	if err := fetchSnapshot(path, &pool); err != nil {
		return types.AMMPool{}, err
	}
	if err := pool.Validate(); err != nil {
		return types.AMMPool{}, fmt.Errorf("invalid amm pool snapshot: %w", err)
	}
	return pool, nil
}

// FetchAuction retrieves an auction by asset identifier.
func FetchAuction(assetID string) (types.Auction, error) {
	var auction types.Auction
	if err := fetchSnapshot("auctions/"+url.PathEscape(assetID), &auction); err != nil {
		return types.Auction{}, err
	}
	if err := auction.Validate(); err != nil {
		return types.Auction{}, fmt.Errorf("invalid auction snapshot: %w", err)
	}
	return auction, nil
}

// FetchLiquidationCase retrieves a flagged undercollateralized position.
func FetchLiquidationCase(borrower string) (types.LiquidationCase, error) {
	var c types.LiquidationCase
	if err := fetchSnapshot("liquidations/"+url.PathEscape(borrower), &c); err != nil {
		return types.LiquidationCase{}, err
	}
	if err := c.Validate(); err != nil {
		return types.LiquidationCase{}, fmt.Errorf("invalid liquidation snapshot: %w", err)
	}
	return c, nil
}

// fetchSnapshot GETs a snapshot path from the indexer and decodes it into out.
func fetchSnapshot(path string, out any) error {
	endpoint := config.SnapshotAPI + "/" + path

	httpClient := http.Client{Timeout: snapshotTimeout}
	resp, err := httpClient.Get(endpoint)
	if err != nil {
		snapshotLogger.Error().Err(err).Str("endpoint", endpoint).Msg("Failed to fetch snapshot")
		return fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, path)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		snapshotLogger.Error().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Snapshot API returned non-OK status")
		return fmt.Errorf("snapshot API returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		snapshotLogger.Error().Err(err).Str("path", path).Msg("Failed to decode snapshot")
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	snapshotLogger.Debug().Str("path", path).Msg("Fetched snapshot")
	return nil
}
