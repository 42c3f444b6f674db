package engine

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/agrifi-network/ledger-engine/internal/types"
)

func testStream() types.PaymentStream {
	return types.PaymentStream{
		Payer:          "agri1payer",
		Payee:          "agri1payee",
		Rate:           sdkmath.NewInt(5),
		StartTime:      100,
		EndTime:        1100,
		TotalCommitted: sdkmath.NewInt(5000),
	}
}

func TestStreamedAmount(t *testing.T) {
	testCases := []struct {
		name     string
		now      uint64
		expected int64
	}{
		{name: "before start", now: 50, expected: 0},
		{name: "at start", now: 100, expected: 0},
		{name: "one second in", now: 101, expected: 5},
		{name: "mid stream", now: 600, expected: 2500},
		{name: "at end", now: 1100, expected: 5000},
		{name: "past end freezes", now: 9999, expected: 5000},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			amount, err := StreamedAmount(testStream(), tc.now)
			require.NoError(t, err)
			require.Equal(t, sdkmath.NewInt(tc.expected), amount)
		})
	}
}

func TestStreamedAmountCapAtCommitted(t *testing.T) {
	// Committed exactly covers the duration; the cap binds at the end.
	s := testStream()
	s.TotalCommitted = sdkmath.NewInt(5000)
	amount, err := StreamedAmount(s, 2000)
	require.NoError(t, err)
	require.Equal(t, s.TotalCommitted, amount)
}

func TestStreamValidateUnderfunded(t *testing.T) {
	s := testStream()
	s.TotalCommitted = sdkmath.NewInt(4999) // rate*(end-start) = 5000
	_, err := StreamedAmount(s, 600)
	require.Error(t, err)
}

func TestCancellationFreezesAccrual(t *testing.T) {
	// The caller expresses cancellation by passing the frozen end time.
	s := testStream()
	s.EndTime = 600
	s.TotalCommitted = sdkmath.NewInt(2500)

	amount, err := StreamedAmount(s, 1100)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(2500), amount)
}

func TestCanCancel(t *testing.T) {
	s := testStream()
	require.True(t, CanCancel(s, s.Payer))
	require.True(t, CanCancel(s, s.Payee))
	require.False(t, CanCancel(s, "agri1stranger"))
	require.False(t, CanCancel(s, ""))
}
