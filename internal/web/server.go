package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/agrifi-network/ledger-engine/internal/accrual"
	"github.com/agrifi-network/ledger-engine/internal/chainreader"
	"github.com/agrifi-network/ledger-engine/internal/config"
	"github.com/agrifi-network/ledger-engine/internal/engine"
	"github.com/agrifi-network/ledger-engine/internal/fixedpoint"
	"github.com/agrifi-network/ledger-engine/internal/logger"
	"github.com/agrifi-network/ledger-engine/internal/service"
	"github.com/agrifi-network/ledger-engine/internal/state"
	"github.com/agrifi-network/ledger-engine/internal/types"
	"github.com/agrifi-network/ledger-engine/internal/utils"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer handles HTTP requests for derived-quote data
type WebServer struct {
	router  *mux.Router
	port    string
	quotes  *service.QuoteService
	started time.Time

	// Receipt fetchers default to the Postgres store; tests substitute.
	recentReceipts   func(limit int) ([]types.QuoteReceipt, error)
	receiptsByEngine func(engine string, limit int) ([]types.QuoteReceipt, error)
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, quotes *service.QuoteService) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router:           mux.NewRouter(),
		port:             port,
		quotes:           quotes,
		started:          time.Now(),
		recentReceipts:   state.GetRecentReceipts,
		receiptsByEngine: state.GetReceiptsByEngine,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/receipts", ws.handleGetReceipts).Methods("GET")

	quote := api.PathPrefix("/quote").Subrouter()
	quote.HandleFunc("/staking/{pool}/{staker}", ws.handleStakingClaimable).Methods("GET")
	quote.HandleFunc("/staking/{pool}/{staker}/unstake", ws.handleUnstakeAuthorization).Methods("GET")
	quote.HandleFunc("/vesting/{beneficiary}", ws.handleVestingReleasable).Methods("GET")
	quote.HandleFunc("/vesting/{beneficiary}/release", ws.handleVestingRelease).Methods("POST")
	quote.HandleFunc("/streams/{id}", ws.handleStreamedAmount).Methods("GET")
	quote.HandleFunc("/streams/{id}/cancelable", ws.handleStreamCancelable).Methods("GET")
	quote.HandleFunc("/swap", ws.handleSwap).Methods("POST")
	quote.HandleFunc("/auctions/{asset}/bid", ws.handleBid).Methods("POST")
	quote.HandleFunc("/auctions/{asset}/settleable", ws.handleSettleable).Methods("GET")
	quote.HandleFunc("/liquidations/{borrower}", ws.handleLiquidation).Methods("POST")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// Handler exposes the router for tests.
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// parseAsOf reads the optional as_of query parameter. Zero means "latest
// block time"; the quote service resolves it.
func parseAsOf(r *http.Request) (uint64, error) {
	asOfStr := r.URL.Query().Get("as_of")
	if asOfStr == "" {
		return 0, nil
	}
	return strconv.ParseUint(asOfStr, 10, 64)
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbHealthy := true
	if err := state.TestDBConnection(); err != nil {
		dbHealthy = false
	}

	overallStatus := "OK"
	statusCode := http.StatusOK
	if !dbHealthy {
		overallStatus = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"gc_cycles":        memStats.NumGC,
			"uptime_seconds":   int64(time.Since(ws.started).Seconds()),
		},
		"component": map[string]interface{}{
			"name":    "ledger-engine",
			"version": "1.0.0",
		},
		"database_healthy": dbHealthy,
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetReceipts returns recent quote receipts. The configured page limit
// caps both the default and any caller-supplied limit.
func (ws *WebServer) handleGetReceipts(w http.ResponseWriter, r *http.Request) {
	maxLimit := int(config.ReceiptPageLimit)
	if maxLimit <= 0 {
		maxLimit = 100
	}
	limit := 20
	if limit > maxLimit {
		limit = maxLimit
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
			if limit > maxLimit {
				limit = maxLimit
			}
		}
	}

	var err error
	var receipts interface{}
	if engineName := r.URL.Query().Get("engine"); engineName != "" {
		receipts, err = ws.receiptsByEngine(engineName, limit)
	} else {
		receipts, err = ws.recentReceipts(limit)
	}
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get receipts")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve receipts")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"receipts": receipts,
		"limit":    limit,
	})
}

// handleStakingClaimable returns the claimable reward for a staker
func (ws *WebServer) handleStakingClaimable(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	asOf, err := parseAsOf(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid as_of timestamp")
		return
	}

	quote, err := ws.quotes.StakingClaimable(vars["pool"], vars["staker"], asOf)
	if err != nil {
		ws.writeQuoteError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, quote)
}

// handleUnstakeAuthorization reports whether the position's lock period has elapsed
func (ws *WebServer) handleUnstakeAuthorization(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	asOf, err := parseAsOf(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid as_of timestamp")
		return
	}

	resolved, err := ws.quotes.AuthorizeUnstake(vars["pool"], vars["staker"], asOf)
	if err != nil && !errors.Is(err, engine.ErrPositionLocked) {
		ws.writeQuoteError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"authorized": err == nil,
		"as_of":      resolved,
	})
}

// handleVestingReleasable returns the releasable amount for a beneficiary
func (ws *WebServer) handleVestingReleasable(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	asOf, err := parseAsOf(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid as_of timestamp")
		return
	}

	quote, err := ws.quotes.VestingReleasable(vars["beneficiary"], asOf)
	if err != nil {
		ws.writeQuoteError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, quote)
}

// handleVestingRelease returns the claim increment a release transaction should carry
func (ws *WebServer) handleVestingRelease(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	asOf, err := parseAsOf(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid as_of timestamp")
		return
	}

	quote, err := ws.quotes.VestingRelease(vars["beneficiary"], asOf)
	if err != nil {
		ws.writeQuoteError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, quote)
}

// handleStreamedAmount returns the amount streamed to the payee as of now
func (ws *WebServer) handleStreamedAmount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	asOf, err := parseAsOf(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid as_of timestamp")
		return
	}

	quote, err := ws.quotes.StreamedAmount(vars["id"], asOf)
	if err != nil {
		ws.writeQuoteError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, quote)
}

// handleStreamCancelable reports whether the requester may cancel the stream
func (ws *WebServer) handleStreamCancelable(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requester := r.URL.Query().Get("requester")
	if requester == "" {
		ws.writeErrorResponse(w, http.StatusBadRequest, "requester query parameter is required")
		return
	}

	canCancel, err := ws.quotes.CanCancelStream(vars["id"], requester)
	if err != nil {
		ws.writeQuoteError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"can_cancel": canCancel,
		"requester":  requester,
	})
}

// swapRequest is the POST body for swap quotes.
type swapRequest struct {
	PoolID       string `json:"pool_id"`
	DenomIn      string `json:"denom_in"`
	DenomOut     string `json:"denom_out"`
	AmountIn     string `json:"amount_in"`
	MinAmountOut string `json:"min_amount_out"`
	AsOf         uint64 `json:"as_of,omitempty"`
}

// handleSwap returns a constant-product swap quote with atomic slippage check
func (ws *WebServer) handleSwap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	amountIn, err := utils.ParseAmount(req.AmountIn)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid amount_in: "+err.Error())
		return
	}
	minAmountOut, err := utils.ParseAmount(req.MinAmountOut)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid min_amount_out: "+err.Error())
		return
	}

	result, err := ws.quotes.SwapQuote(req.PoolID, req.DenomIn, req.DenomOut, amountIn, minAmountOut, req.AsOf)
	if err != nil {
		ws.writeQuoteError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, result)
}

// bidRequest is the POST body for bid validation.
type bidRequest struct {
	Bidder string `json:"bidder"`
	Amount string `json:"amount"`
	AsOf   uint64 `json:"as_of,omitempty"`
}

// handleBid validates a bid against the live auction snapshot
func (ws *WebServer) handleBid(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req bidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	amount, err := utils.ParseAmount(req.Amount)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid amount: "+err.Error())
		return
	}

	decision, err := ws.quotes.ValidateBid(vars["asset"], req.Bidder, amount, req.AsOf)
	if err != nil {
		ws.writeQuoteError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, decision)
}

// handleSettleable reports whether the auction can settle to its highest bidder
func (ws *WebServer) handleSettleable(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	asOf, err := parseAsOf(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid as_of timestamp")
		return
	}

	settleable, err := ws.quotes.AuctionSettleable(vars["asset"], asOf)
	if err != nil {
		ws.writeQuoteError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"settleable": settleable,
	})
}

// liquidationRequest is the POST body for liquidation quotes. BonusBps
// optionally overrides the snapshot's bonus rate for what-if pricing.
type liquidationRequest struct {
	RepayAmount string `json:"repay_amount"`
	BonusBps    string `json:"bonus_bps,omitempty"`
	AsOf        uint64 `json:"as_of,omitempty"`
}

// handleLiquidation returns the seizure outcome for a flagged borrower
func (ws *WebServer) handleLiquidation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req liquidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	repayAmount, err := utils.ParseAmount(req.RepayAmount)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid repay_amount: "+err.Error())
		return
	}

	var bonusOverride *uint64
	if req.BonusBps != "" {
		bps, err := utils.ParseBasisPoints(req.BonusBps)
		if err != nil {
			ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid bonus_bps: "+err.Error())
			return
		}
		if bps > types.MaxLiquidationBonusBps {
			ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid bonus_bps: exceeds maximum of "+strconv.FormatUint(types.MaxLiquidationBonusBps, 10))
			return
		}
		bonusOverride = &bps
	}

	result, err := ws.quotes.Liquidation(vars["borrower"], repayAmount, bonusOverride, req.AsOf)
	if err != nil {
		ws.writeQuoteError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, result)
}

// writeQuoteError maps engine and reader errors onto HTTP statuses: domain
// rejections are 422 with a stable code, missing snapshots are 404, anything
// else is a 500.
func (ws *WebServer) writeQuoteError(w http.ResponseWriter, err error) {
	if errors.Is(err, chainreader.ErrSnapshotNotFound) {
		ws.writeErrorResponse(w, http.StatusNotFound, err.Error())
		return
	}

	code := engine.RejectCode(err)
	if code != "internal" {
		ws.writeJSONResponse(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":       true,
			"reject_code": code,
			"message":     err.Error(),
			"timestamp":   time.Now().UTC(),
		})
		return
	}

	if errors.Is(err, accrual.ErrClockRegression) || errors.Is(err, fixedpoint.ErrNegativeInput) {
		ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	webLogger.Error().Err(err).Msg("Quote request failed")
	ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to derive quote")
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
