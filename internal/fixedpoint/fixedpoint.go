/*

Exact, overflow-checked arithmetic over sdkmath.Int with explicit scaling.
Every multiply-then-divide in the engine routes through MulDiv, which is the
single place the rounding policy lives: truncation toward zero, never rounding
up. Repeated partial claims therefore never sum past the full entitlement.

*/

package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// ScaleDecimals is the number of decimals behind the global rate scale.
const ScaleDecimals = 6

var (
	// Scale is the global fixed-point denominator (1e6) for per-second rates.
	// The same convention must hold on both sides of every boundary.
	Scale = sdkmath.NewInt(1_000_000)

	// BasisPointDenom converts basis-point rates to ratios.
	BasisPointDenom = sdkmath.NewInt(10_000)
)

// Error definitions for zero-tolerance error handling
var (
	ErrOverflow       = errors.New("arithmetic overflow")
	ErrDivisionByZero = errors.New("division by zero")
	ErrNegativeInput  = errors.New("input is negative")
	ErrNegativeResult = errors.New("result is negative")
	ErrNilInput       = errors.New("input is nil")
)

// MulDiv computes a*b/denominator with an arbitrary-precision intermediate
// product, truncating toward zero. The result must fit sdkmath.MaxBitLen.
func MulDiv(a, b, denominator sdkmath.Int) (sdkmath.Int, error) {
	if a.IsNil() || b.IsNil() || denominator.IsNil() {
		return sdkmath.ZeroInt(), ErrNilInput
	}
	if a.IsNegative() || b.IsNegative() || denominator.IsNegative() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: mulDiv(%s, %s, %s)", ErrNegativeInput, a, b, denominator)
	}
	if denominator.IsZero() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: mulDiv(%s, %s, 0)", ErrDivisionByZero, a, b)
	}

	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	quotient := product.Quo(product, denominator.BigInt())
	if quotient.BitLen() > sdkmath.MaxBitLen {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: mulDiv(%s, %s, %s)", ErrOverflow, a, b, denominator)
	}

	return sdkmath.NewIntFromBigInt(quotient), nil
}

// Mul performs overflow-checked multiplication of non-negative integers.
func Mul(a, b sdkmath.Int) (sdkmath.Int, error) {
	if a.IsNil() || b.IsNil() {
		return sdkmath.ZeroInt(), ErrNilInput
	}
	if a.IsNegative() || b.IsNegative() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: mul(%s, %s)", ErrNegativeInput, a, b)
	}
	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if product.BitLen() > sdkmath.MaxBitLen {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: mul(%s, %s)", ErrOverflow, a, b)
	}
	return sdkmath.NewIntFromBigInt(product), nil
}

// Add performs overflow-checked addition of non-negative integers.
func Add(a, b sdkmath.Int) (sdkmath.Int, error) {
	if a.IsNil() || b.IsNil() {
		return sdkmath.ZeroInt(), ErrNilInput
	}
	if a.IsNegative() || b.IsNegative() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: add(%s, %s)", ErrNegativeInput, a, b)
	}
	sum := new(big.Int).Add(a.BigInt(), b.BigInt())
	if sum.BitLen() > sdkmath.MaxBitLen {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: add(%s, %s)", ErrOverflow, a, b)
	}
	return sdkmath.NewIntFromBigInt(sum), nil
}

// Sub computes a-b and rejects negative results. Monetary quantities in the
// engine are unsigned; a negative difference always indicates bad inputs.
func Sub(a, b sdkmath.Int) (sdkmath.Int, error) {
	if a.IsNil() || b.IsNil() {
		return sdkmath.ZeroInt(), ErrNilInput
	}
	if a.IsNegative() || b.IsNegative() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: sub(%s, %s)", ErrNegativeInput, a, b)
	}
	if a.LT(b) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: sub(%s, %s)", ErrNegativeResult, a, b)
	}
	return a.Sub(b), nil
}

// Min returns the smaller of two integers.
func Min(a, b sdkmath.Int) sdkmath.Int {
	if a.LT(b) {
		return a
	}
	return b
}
