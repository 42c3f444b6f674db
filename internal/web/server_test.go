package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/agrifi-network/ledger-engine/internal/chainreader"
	"github.com/agrifi-network/ledger-engine/internal/config"
	"github.com/agrifi-network/ledger-engine/internal/service"
	"github.com/agrifi-network/ledger-engine/internal/types"
)

// stubReader mirrors the service test fixture so responses are deterministic.
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

func newTestServer(t *testing.T) *WebServer {
	t.Helper()
	quotes, err := service.NewQuoteService(service.Config{
		Reader: stubReader{blockTime: 500},
		SaveReceipt: func(types.QuoteReceipt) (int64, error) {
			return 1, nil
		},
	})
	require.NoError(t, err)
	return NewWebServer("0", quotes)
}

func doRequest(t *testing.T, ws *WebServer, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(raw)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reqBody)
	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestStakingClaimableEndpoint(t *testing.T) {
	ws := newTestServer(t)

	rec := doRequest(t, ws, "GET", "/api/quote/staking/agri1pool/agri1staker?as_of=100", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "50", body["claimable"])
	require.Equal(t, float64(100), body["as_of"])
}

func TestStakingClaimableBadAsOf(t *testing.T) {
	ws := newTestServer(t)

	rec := doRequest(t, ws, "GET", "/api/quote/staking/agri1pool/agri1staker?as_of=abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnstakeBeforeLockExpires(t *testing.T) {
	ws := newTestServer(t)

	rec := doRequest(t, ws, "GET", "/api/quote/staking/agri1pool/agri1staker/unstake?as_of=100", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, false, body["authorized"])
}

func TestUnstakeAfterLockExpires(t *testing.T) {
	ws := newTestServer(t)

	rec := doRequest(t, ws, "GET", "/api/quote/staking/agri1pool/agri1staker/unstake?as_of=7200", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, true, body["authorized"])
}

func TestVestingReleasableEndpoint(t *testing.T) {
	ws := newTestServer(t)

	rec := doRequest(t, ws, "GET", "/api/quote/vesting/agri1founder?as_of=550", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "660", body["releasable"])
}

func TestVestingReleaseDuringCliff(t *testing.T) {
	ws := newTestServer(t)

	rec := doRequest(t, ws, "POST", "/api/quote/vesting/agri1founder/release?as_of=50", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "nothing_to_release", body["reject_code"])
}

func TestStreamedAmountEndpoint(t *testing.T) {
	ws := newTestServer(t)

	// as_of omitted resolves to the stub block time of 500
	rec := doRequest(t, ws, "GET", "/api/quote/streams/stream-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "2500", body["streamed"])
	require.Equal(t, float64(500), body["as_of"])
}

func TestStreamCancelableRequiresRequester(t *testing.T) {
	ws := newTestServer(t)

	rec := doRequest(t, ws, "GET", "/api/quote/streams/stream-1/cancelable", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, ws, "GET", "/api/quote/streams/stream-1/cancelable?requester=agri1payer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decodeBody(t, rec)["can_cancel"])

	rec = doRequest(t, ws, "GET", "/api/quote/streams/stream-1/cancelable?requester=agri1stranger", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, decodeBody(t, rec)["can_cancel"])
}

func TestSwapEndpoint(t *testing.T) {
	ws := newTestServer(t)

	rec := doRequest(t, ws, "POST", "/api/quote/swap", swapRequest{
		PoolID:       "pool-1",
		DenomIn:      "ugrain",
		DenomOut:     "useed",
		AmountIn:     "100",
		MinAmountOut: "90",
		AsOf:         100,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "90", body["amount_out"])
}

func TestSwapSlippageRejection(t *testing.T) {
	ws := newTestServer(t)

	rec := doRequest(t, ws, "POST", "/api/quote/swap", swapRequest{
		PoolID:       "pool-1",
		DenomIn:      "ugrain",
		DenomOut:     "useed",
		AmountIn:     "100",
		MinAmountOut: "91",
		AsOf:         100,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "slippage_exceeded", body["reject_code"])
}

func TestSwapInvalidAmount(t *testing.T) {
	ws := newTestServer(t)

	rec := doRequest(t, ws, "POST", "/api/quote/swap", swapRequest{
		PoolID:       "pool-1",
		DenomIn:      "ugrain",
		DenomOut:     "useed",
		AmountIn:     "not-a-number",
		MinAmountOut: "0",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBidEndpoint(t *testing.T) {
	ws := newTestServer(t)

	rec := doRequest(t, ws, "POST", "/api/quote/auctions/tractor-7/bid", bidRequest{
		Bidder: "agri1bidder",
		Amount: "15",
		AsOf:   100,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "15", body["highest_bid"])
	require.Equal(t, "agri1bidder", body["highest_bidder"])
}

func TestBidTooLowRejection(t *testing.T) {
	ws := newTestServer(t)

	rec := doRequest(t, ws, "POST", "/api/quote/auctions/tractor-7/bid", bidRequest{
		Bidder: "agri1bidder",
		Amount: "5",
		AsOf:   100,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "bid_too_low", decodeBody(t, rec)["reject_code"])
}

func TestSellerCannotBidRejection(t *testing.T) {
	ws := newTestServer(t)

	rec := doRequest(t, ws, "POST", "/api/quote/auctions/tractor-7/bid", bidRequest{
		Bidder: "agri1seller",
		Amount: "15",
		AsOf:   100,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "seller_cannot_bid", decodeBody(t, rec)["reject_code"])
}

func TestSettleableEndpoint(t *testing.T) {
	ws := newTestServer(t)

	// No bids yet, so the auction cannot settle even after it ends.
	rec := doRequest(t, ws, "GET", "/api/quote/auctions/tractor-7/settleable?as_of=2000", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, decodeBody(t, rec)["settleable"])
}

func TestLiquidationEndpoint(t *testing.T) {
	ws := newTestServer(t)

	rec := doRequest(t, ws, "POST", "/api/quote/liquidations/agri1borrower", liquidationRequest{
		RepayAmount: "400",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	// base = 400*1000/800 = 500, with 10% bonus = 550
	require.Equal(t, "550", body["seized_collateral"])
	require.Equal(t, "400", body["remaining_debt"])
}

func TestLiquidationOverRepayRejection(t *testing.T) {
	ws := newTestServer(t)

	rec := doRequest(t, ws, "POST", "/api/quote/liquidations/agri1borrower", liquidationRequest{
		RepayAmount: "801",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "over_liquidation", decodeBody(t, rec)["reject_code"])
}

func TestSwapQuoteIncludesScaledPriceAndFee(t *testing.T) {
	ws := newTestServer(t)

	rec := doRequest(t, ws, "POST", "/api/quote/swap", swapRequest{
		PoolID:       "pool-1",
		DenomIn:      "ugrain",
		DenomOut:     "useed",
		AmountIn:     "100",
		MinAmountOut: "0",
		AsOf:         100,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "900000", body["price_scaled"])
	require.Equal(t, "3000", body["fee_scaled"])
}

func TestLiquidationBonusOverrideEndpoint(t *testing.T) {
	ws := newTestServer(t)

	rec := doRequest(t, ws, "POST", "/api/quote/liquidations/agri1borrower", liquidationRequest{
		RepayAmount: "400",
		BonusBps:    "2000",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "600", decodeBody(t, rec)["seized_collateral"])
}

func TestLiquidationBonusOverrideValidation(t *testing.T) {
	ws := newTestServer(t)

	rec := doRequest(t, ws, "POST", "/api/quote/liquidations/agri1borrower", liquidationRequest{
		RepayAmount: "400",
		BonusBps:    "2001",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, ws, "POST", "/api/quote/liquidations/agri1borrower", liquidationRequest{
		RepayAmount: "400",
		BonusBps:    "not-a-number",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReceiptsLimitCappedByConfig(t *testing.T) {
	prev := config.ReceiptPageLimit
	config.ReceiptPageLimit = 5
	t.Cleanup(func() { config.ReceiptPageLimit = prev })

	ws := newTestServer(t)
	var gotLimit int
	ws.recentReceipts = func(limit int) ([]types.QuoteReceipt, error) {
		gotLimit = limit
		return nil, nil
	}

	rec := doRequest(t, ws, "GET", "/api/receipts?limit=50", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 5, gotLimit)
	require.Equal(t, float64(5), decodeBody(t, rec)["limit"])

	// The default limit is capped too.
	rec = doRequest(t, ws, "GET", "/api/receipts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 5, gotLimit)
}

func TestReceiptsByEngineFilter(t *testing.T) {
	ws := newTestServer(t)
	var gotEngine string
	ws.receiptsByEngine = func(engine string, limit int) ([]types.QuoteReceipt, error) {
		gotEngine = engine
		return nil, nil
	}

	rec := doRequest(t, ws, "GET", "/api/receipts?engine=amm", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "amm", gotEngine)
}
