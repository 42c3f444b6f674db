package config

import (
	"github.com/rs/zerolog/log"
)

// Endpoint configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// NodeRPC is the JSON-RPC endpoint of the chain node (abci_query, block).
	NodeRPC string
	// NodeGRPC is the gRPC endpoint of the chain node (bank queries).
	NodeGRPC string
	// SnapshotAPI is the contract-state indexer serving entity snapshots
	// (staking pools, vesting schedules, streams, auctions).
	SnapshotAPI string
)

// loadEndpointConfig loads endpoint configuration from environment variables.
// This function is called by LoadConfig() in General.go.
func loadEndpointConfig() error {
	log.Info().Msg("Loading endpoint configuration from environment variables...")

	var err error

	NodeRPC, err = getEnv("NODE_RPC")
	if err != nil {
		return err
	}

	NodeGRPC, err = getEnv("NODE_GRPC")
	if err != nil {
		return err
	}

	SnapshotAPI, err = getEnv("SNAPSHOT_API")
	if err != nil {
		return err
	}

	log.Debug().
		Str("NodeRPC", NodeRPC).
		Str("NodeGRPC", NodeGRPC).
		Str("SnapshotAPI", SnapshotAPI).
		Msg("Endpoint configuration loaded successfully.")

	return nil
}
