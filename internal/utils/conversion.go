/*
This file contains common utility functions for converting external
representations - strings off the wire, basis points, scaled rates - into the
exact integer forms the engine requires.
*/

package utils

import (
	"errors"
	"fmt"
	"strconv"

	sdkmath "cosmossdk.io/math"

	"github.com/agrifi-network/ledger-engine/internal/fixedpoint"
)

// Error definitions for zero-tolerance error handling
var (
	ErrAmountEmpty      = errors.New("amount is empty")
	ErrAmountInvalid    = errors.New("amount is not a valid integer")
	ErrAmountNegative   = errors.New("amount is negative")
	ErrBasisPointsRange = errors.New("basis points outside valid range")
)

// ParseAmount converts a decimal string into a non-negative sdkmath.Int.
// Floating point never enters the engine; callers must pre-scale fractional
// quantities into integer base units.
func ParseAmount(s string) (sdkmath.Int, error) {
	if s == "" {
		return sdkmath.ZeroInt(), ErrAmountEmpty
	}
	amount, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %q", ErrAmountInvalid, s)
	}
	if amount.IsNegative() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %q", ErrAmountNegative, s)
	}
	return amount, nil
}

// ParseBasisPoints converts a string into a basis-point rate in [0, 10000].
func ParseBasisPoints(s string) (uint64, error) {
	if s == "" {
		return 0, ErrAmountEmpty
	}
	bps, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrAmountInvalid, s)
	}
	if bps > 10_000 {
		return 0, fmt.Errorf("%w: %d", ErrBasisPointsRange, bps)
	}
	return bps, nil
}

// RatioToScaled converts an integer numerator/denominator ratio into the
// engine's 1e6 fixed-point scale. This is the required normalization step for
// any collaborator that stores percentage rates as fractions.
func RatioToScaled(numerator, denominator sdkmath.Int) (sdkmath.Int, error) {
	return fixedpoint.MulDiv(numerator, fixedpoint.Scale, denominator)
}

// BasisPointsToScaled converts a basis-point rate to the 1e6 scale.
func BasisPointsToScaled(bps uint64) (sdkmath.Int, error) {
	if bps > 10_000 {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %d", ErrBasisPointsRange, bps)
	}
	return fixedpoint.MulDiv(sdkmath.NewIntFromUint64(bps), fixedpoint.Scale, fixedpoint.BasisPointDenom)
}
