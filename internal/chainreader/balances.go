package chainreader

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"google.golang.org/grpc"

	"github.com/agrifi-network/ledger-engine/internal/config"
	"github.com/agrifi-network/ledger-engine/internal/logger"
)

var balanceLogger = logger.GetForComponent("balance_reader")

// FetchBalance returns the on-chain balance of denom held by address, queried
// over the node's bank gRPC service.
func FetchBalance(ctx context.Context, conn *grpc.ClientConn, address, denom string) (sdk.Coin, error) {
	if conn == nil {
		return sdk.Coin{}, fmt.Errorf("grpc connection is nil")
	}

	client := banktypes.NewQueryClient(conn)
	resp, err := client.Balance(ctx, &banktypes.QueryBalanceRequest{
		Address: address,
		Denom:   denom,
	})
	if err != nil {
		balanceLogger.Error().Err(err).Str("address", address).Str("denom", denom).Msg("Failed to query balance")
		return sdk.Coin{}, fmt.Errorf("failed to query balance for %s: %w", address, err)
	}
	if resp.Balance == nil {
		return sdk.NewCoin(denom, sdkmath.ZeroInt()), nil
	}

	balanceLogger.Debug().
		Str("address", address).
		Str("balance", resp.Balance.String()).
		Msg("Fetched account balance")

	return *resp.Balance, nil
}

// FetchTotalSupply returns the total on-chain supply of denom. The query goes
// through abci_query so it can be pinned to a height later if needed.
func FetchTotalSupply(denom string) (sdk.Coin, error) {
	grpcRequest := &banktypes.QuerySupplyOfRequest{Denom: denom}

	result, err := executeRPCQuery(
		config.NodeRPC,
		"/cosmos.bank.v1beta1.Query/SupplyOf",
		grpcRequest,
		balanceLogger,
		2, // RPC ID
	)
	if err != nil {
		return sdk.Coin{}, err
	}

	var grpcResponse banktypes.QuerySupplyOfResponse
	if err := grpcResponse.Unmarshal(result); err != nil {
		balanceLogger.Error().Err(err).Msg("Failed to unmarshal supply response")
		return sdk.Coin{}, fmt.Errorf("failed to unmarshal supply response: %w", err)
	}

	balanceLogger.Debug().
		Str("denom", denom).
		Str("supply", grpcResponse.Amount.String()).
		Msg("Fetched total supply")

	return grpcResponse.Amount, nil
}
