package types

import (
	"math/big"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/agrifi-network/ledger-engine/internal/fixedpoint"
)

func TestPaymentStreamValidate(t *testing.T) {
	stream := PaymentStream{
		Payer:          "agri1payer",
		Payee:          "agri1payee",
		Rate:           sdkmath.NewInt(5),
		StartTime:      0,
		EndTime:        1000,
		TotalCommitted: sdkmath.NewInt(5000),
	}
	require.NoError(t, stream.Validate())

	underfunded := stream
	underfunded.TotalCommitted = sdkmath.NewInt(4999)
	require.Error(t, underfunded.Validate())

	inverted := stream
	inverted.EndTime = 0
	inverted.StartTime = 1000
	require.Error(t, inverted.Validate())
}

func TestPaymentStreamValidateRejectsOverflowingAccrual(t *testing.T) {
	// A corrupt snapshot with rate ~2^250 over a 2^40-second window would
	// push the full-duration product past 256 bits. That must surface as a
	// structured rejection, not a panic.
	hugeRate := sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 250))
	stream := PaymentStream{
		Payer:          "agri1payer",
		Payee:          "agri1payee",
		Rate:           hugeRate,
		StartTime:      0,
		EndTime:        1 << 40,
		TotalCommitted: hugeRate,
	}

	var err error
	require.NotPanics(t, func() {
		err = stream.Validate()
	})
	require.ErrorIs(t, err, fixedpoint.ErrOverflow)
}
