// Package pricemath provides the pure math used when provisioning
// concentrated liquidity: canonical token ordering, full-range tick
// bounds, and fixed-point square-root price encoding.
package pricemath

import (
	"bytes"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/tokenforge/liquidity/pkg/types"
)

// Global tick bounds of the concentrated-liquidity protocol.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

// Q96 is the 2^96 fixed-point scale for sqrt prices.
var Q96 = new(big.Int).Lsh(big.NewInt(1), 96)

// Degenerate-price policy: a zero amount on one side would make the
// desired price ratio undefined, so the initial price is pinned to a
// bound biased toward cheap entry instead.
const (
	priceFloorWhenNoToken0 = 1e-5
	priceCeilWhenNoToken1  = 1e5
)

// OrderedPair holds two token addresses in canonical ascending order.
// Token0 < Token1 always; downstream calls consume this, never raw
// user-supplied ordering.
type OrderedPair struct {
	Token0 common.Address
	Token1 common.Address
}

// SortTokens returns the canonical ordering of two token addresses
// (ascending numeric byte order, which is case-insensitive hex order).
func SortTokens(a, b common.Address) OrderedPair {
	if bytes.Compare(a.Bytes(), b.Bytes()) <= 0 {
		return OrderedPair{Token0: a, Token1: b}
	}
	return OrderedPair{Token0: b, Token1: a}
}

// TickRange is a valid position boundary pair for a given spacing.
// Lower and Upper are exact multiples of Spacing.
type TickRange struct {
	Lower   int32
	Upper   int32
	Spacing int32
}

// FullRangeTicks computes the widest valid tick range for a fee tier:
// the global bounds rounded inward to the tier's spacing.
func FullRangeTicks(fee types.FeeTier) TickRange {
	spacing := TickSpacing(fee)
	return TickRange{
		Lower:   ceilDiv(MinTick, spacing) * spacing,
		Upper:   (MaxTick / spacing) * spacing,
		Spacing: spacing,
	}
}

// GlobalTickBounds returns the exact protocol bounds without spacing
// rounding. Used by the mint retry path, which rebuilds with the widest
// possible range.
func GlobalTickBounds() TickRange {
	return TickRange{Lower: MinTick, Upper: MaxTick, Spacing: 1}
}

// ceilDiv divides rounding toward positive infinity.
func ceilDiv(n, d int32) int32 {
	q := n / d
	if n%d != 0 && (n < 0) == (d < 0) {
		q++
	}
	return q
}

// SqrtPriceX96FromRatio encodes sqrt(price) in Q64.96 fixed point:
// floor(sqrt(price) * 2^96). The double-precision square root keeps the
// encoding monotonic in price for representable inputs. The result must
// fit the protocol's 160-bit sqrt-price field.
func SqrtPriceX96FromRatio(price float64) (*big.Int, error) {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, fmt.Errorf("pricemath: price must be positive and finite, got %v", price)
	}

	sqrt := new(big.Float).SetPrec(256).SetFloat64(math.Sqrt(price))
	scaled := new(big.Float).SetPrec(256).Mul(sqrt, new(big.Float).SetInt(Q96))

	out, _ := scaled.Int(nil)
	v, overflow := uint256.FromBig(out)
	if overflow || v.BitLen() > 160 {
		return nil, fmt.Errorf("pricemath: sqrt price %s exceeds 160 bits", out.String())
	}
	return out, nil
}

// PriceForAmounts derives the desired initial price (token1 per token0)
// from the deposit amounts, applying the degenerate-amount policy:
// no token0 side pins the price to a very small constant, no token1 side
// to a large one, and both zero defaults to 1.
func PriceForAmounts(amount0, amount1 *big.Int) float64 {
	zero0 := amount0 == nil || amount0.Sign() == 0
	zero1 := amount1 == nil || amount1.Sign() == 0

	switch {
	case zero0 && zero1:
		return 1
	case zero0:
		return priceFloorWhenNoToken0
	case zero1:
		return priceCeilWhenNoToken1
	}

	a0, _ := new(big.Float).SetInt(amount0).Float64()
	a1, _ := new(big.Float).SetInt(amount1).Float64()
	return a1 / a0
}
