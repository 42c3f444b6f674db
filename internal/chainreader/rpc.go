/*

Low-level JSON-RPC access to the chain node. State queries are routed through
abci_query with hex-encoded protobuf payloads; the block endpoint supplies the
chain timestamp that callers pass to the engine as the as-of time.

*/

package chainreader

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gogo/protobuf/proto"
	"github.com/rs/zerolog"

	"github.com/agrifi-network/ledger-engine/internal/logger"
)

const (
	rpcTimeout = 20 * time.Second
)

var rpcLogger = logger.GetForComponent("chain_rpc")

// JSONRPCRequest defines the structure of a JSON-RPC request.
type JSONRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// ABCIQueryParams defines the parameters for the "abci_query" method.
type ABCIQueryParams struct {
	Path   string `json:"path"`
	Data   string `json:"data"` // Hex-encoded string
	Height string `json:"height,omitempty"`
	Prove  bool   `json:"prove,omitempty"`
}

// JSONRPCResponse defines the structure of a JSON-RPC response.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// ABCIQueryResult defines the structure of the "result" field for "abci_query".
type ABCIQueryResult struct {
	Response struct {
		Log    string `json:"log"`
		Key    string `json:"key"`   // Base64 encoded
		Value  string `json:"value"` // Base64 encoded
		Height string `json:"height"`
		Code   uint32 `json:"code"`
	} `json:"response"`
}

// JSONRPCError defines the structure of a JSON-RPC error.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// blockResult is the subset of the "block" RPC result the reader needs.
type blockResult struct {
	Block struct {
		Header struct {
			Height string    `json:"height"`
			Time   time.Time `json:"time"`
		} `json:"header"`
	} `json:"block"`
}

// executeRPCQuery marshals a protobuf state query, submits it through
// abci_query and returns the decoded response bytes.
func executeRPCQuery(
	rpcEndpoint string,
	abciPath string,
	grpcRequest proto.Message,
	logger zerolog.Logger,
	rpcID int,
) ([]byte, error) {
	protoBytes, err := proto.Marshal(grpcRequest)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal gRPC request")
		return nil, fmt.Errorf("failed to marshal gRPC request: %w", err)
	}
	hexEncodedData := hex.EncodeToString(protoBytes)

	result, err := executeJSONRPC(rpcEndpoint, "abci_query", ABCIQueryParams{
		Path: abciPath,
		Data: hexEncodedData,
	}, logger, rpcID)
	if err != nil {
		return nil, err
	}

	var abciResult ABCIQueryResult
	if err := json.Unmarshal(result, &abciResult); err != nil {
		logger.Error().Err(err).Msg("Failed to unmarshal ABCI query result")
		return nil, fmt.Errorf("failed to unmarshal ABCI query result: %w", err)
	}

	if abciResult.Response.Code != 0 {
		logger.Error().
			Uint32("code", abciResult.Response.Code).
			Str("log", abciResult.Response.Log).
			Msg("ABCI query error")
		return nil, fmt.Errorf("ABCI query error (code %d): %s", abciResult.Response.Code, abciResult.Response.Log)
	}

	if abciResult.Response.Value == "" {
		logger.Warn().Str("log", abciResult.Response.Log).Msg("Empty ABCI query result")
		return nil, fmt.Errorf("empty ABCI query result: %s", abciResult.Response.Log)
	}

	decodedValueBytes, err := base64.StdEncoding.DecodeString(abciResult.Response.Value)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to decode base64 result")
		return nil, fmt.Errorf("failed to decode base64 result: %w", err)
	}

	return decodedValueBytes, nil
}

// executeJSONRPC posts a single JSON-RPC request and returns the raw result.
func executeJSONRPC(rpcEndpoint, method string, params any, logger zerolog.Logger, rpcID int) (json.RawMessage, error) {
	jsonRPCReq := JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      rpcID,
		Method:  method,
		Params:  params,
	}

	jsonData, err := json.Marshal(jsonRPCReq)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal JSON-RPC request")
		return nil, fmt.Errorf("failed to marshal JSON-RPC request: %w", err)
	}

	logger.Debug().
		Str("endpoint", rpcEndpoint).
		Str("method", method).
		Msg("Executing RPC query")

	httpClient := http.Client{Timeout: rpcTimeout}
	req, err := http.NewRequest("POST", rpcEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create HTTP request")
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to send HTTP request")
		return nil, fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read response body")
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var jsonRPCResp JSONRPCResponse
	if err := json.Unmarshal(respBodyBytes, &jsonRPCResp); err != nil {
		logger.Error().Err(err).Str("body", string(respBodyBytes)).Msg("Failed to unmarshal JSON-RPC response")
		return nil, fmt.Errorf("failed to unmarshal JSON-RPC response: %w", err)
	}

	if jsonRPCResp.Error != nil {
		logger.Error().
			Int("code", jsonRPCResp.Error.Code).
			Str("message", jsonRPCResp.Error.Message).
			Msg("RPC error received")
		return nil, fmt.Errorf("RPC error: %s (code %d)", jsonRPCResp.Error.Message, jsonRPCResp.Error.Code)
	}

	return jsonRPCResp.Result, nil
}

// LatestBlockTime returns the timestamp of the latest committed block as unix
// seconds. This is the as-of time external callers thread through every
// engine call; the engine itself never samples a clock.
func LatestBlockTime(rpcEndpoint string) (uint64, error) {
	result, err := executeJSONRPC(rpcEndpoint, "block", map[string]string{}, rpcLogger, 1)
	if err != nil {
		return 0, err
	}

	var block blockResult
	if err := json.Unmarshal(result, &block); err != nil {
		rpcLogger.Error().Err(err).Msg("Failed to unmarshal block result")
		return 0, fmt.Errorf("failed to unmarshal block result: %w", err)
	}

	blockTime := block.Block.Header.Time
	if blockTime.IsZero() {
		return 0, fmt.Errorf("block result missing header time")
	}

	rpcLogger.Debug().
		Str("height", block.Block.Header.Height).
		Time("time", blockTime).
		Msg("Fetched latest block time")

	return uint64(blockTime.Unix()), nil
}
