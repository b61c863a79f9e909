package pricemath

import (
	"fmt"

	"github.com/tokenforge/liquidity/pkg/types"
)

// tickSpacings maps each supported fee tier to its required tick spacing.
// These are protocol constants; pools reject boundaries that are not exact
// multiples of the spacing.
var tickSpacings = map[types.FeeTier]int32{
	types.Fee100:   1,
	types.Fee500:   10,
	types.Fee3000:  60,
	types.Fee10000: 200,
}

// TickSpacing returns the tick spacing for a supported fee tier.
// The tier is always chosen from the fixed set upstream, so an unknown
// value is a programming error and panics.
func TickSpacing(fee types.FeeTier) int32 {
	spacing, ok := tickSpacings[fee]
	if !ok {
		panic(fmt.Sprintf("pricemath: unknown fee tier %d", fee))
	}
	return spacing
}
