package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/agrifi-network/ledger-engine/internal/fixedpoint"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// ChainID is the chain ID of the target network.
	ChainID string

	// RateScaleExponent is the decimal exponent external collaborators use
	// for scaled per-second rates. It must match the engine's fixed-point
	// scale (6) or every derived quantity would be off by powers of ten.
	RateScaleExponent uint64

	// ReceiptPageLimit caps how many quote receipts the API returns per page.
	ReceiptPageLimit uint64

	// BaseDenom is the chain's staking and fee denom, used for the startup
	// supply probe.
	BaseDenom string

	// TreasuryAccount is the protocol treasury address whose balance is
	// checked at startup to verify gRPC connectivity.
	TreasuryAccount string
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// All environment variables are required and must be set.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	ChainID, err = getEnv("CHAIN_ID")
	if err != nil {
		return err
	}

	RateScaleExponent, err = getEnvAsUint64("RATE_SCALE_EXPONENT")
	if err != nil {
		return err
	}
	// Collaborators publishing rates on a different scale would silently skew
	// every derived quantity by powers of ten, so a mismatch is fatal.
	if RateScaleExponent != fixedpoint.ScaleDecimals {
		return fmt.Errorf("RATE_SCALE_EXPONENT is %d but the engine computes on a %d-decimal scale", RateScaleExponent, fixedpoint.ScaleDecimals)
	}

	ReceiptPageLimit, err = getEnvAsUint64("RECEIPT_PAGE_LIMIT")
	if err != nil {
		return err
	}

	BaseDenom, err = getEnv("BASE_DENOM")
	if err != nil {
		return err
	}

	TreasuryAccount, err = getEnv("TREASURY_ACCOUNT")
	if err != nil {
		return err
	}

	// Load endpoint configuration
	if err := loadEndpointConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("ChainID", ChainID).
		Uint64("RateScaleExponent", RateScaleExponent).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}
