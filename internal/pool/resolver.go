// Package pool resolves concentrated-liquidity pools and builds the
// create-and-initialize call for absent ones.
package pool

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tokenforge/liquidity/internal/dex"
	"github.com/tokenforge/liquidity/internal/pricemath"
	"github.com/tokenforge/liquidity/internal/rpc"
	"github.com/tokenforge/liquidity/pkg/types"
)

// Resolver looks up pools on the factory.
type Resolver struct {
	client  rpc.Client
	factory common.Address
	logger  *slog.Logger
}

// NewResolver creates a resolver against one factory.
func NewResolver(client rpc.Client, factory common.Address, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{client: client, factory: factory, logger: logger}
}

// Resolve returns the pool address for a sorted pair and fee tier, or
// false when no pool exists. A reverting or failing factory call is
// treated as pool-absent, not as an error: the subsequent mint multicall
// creates the pool anyway.
func (r *Resolver) Resolve(ctx context.Context, pair pricemath.OrderedPair, fee types.FeeTier) (common.Address, bool) {
	data := dex.EncodeGetPool(pair.Token0, pair.Token1, uint32(fee))
	result, err := r.client.CallContract(ctx, r.factory.Hex(), data)
	if err != nil {
		r.logger.Debug("getPool call failed, treating pool as absent",
			slog.String("token0", pair.Token0.Hex()),
			slog.String("token1", pair.Token1.Hex()),
			slog.Uint64("fee", uint64(fee)),
			slog.String("error", err.Error()),
		)
		return common.Address{}, false
	}

	addr := parseAddress(result)
	if addr == (common.Address{}) {
		return common.Address{}, false
	}
	return addr, true
}

// BuildCreateAndInit encodes the createAndInitializePoolIfNecessary call
// for a sorted pair at the given starting price.
func BuildCreateAndInit(pair pricemath.OrderedPair, fee types.FeeTier, sqrtPriceX96 *big.Int) []byte {
	return dex.EncodeCreateAndInitialize(pair.Token0, pair.Token1, uint32(fee), sqrtPriceX96)
}

// parseAddress decodes a 32-byte eth_call word into an address.
func parseAddress(result string) common.Address {
	b := common.FromHex(result)
	if len(b) < 32 {
		return common.Address{}
	}
	return common.BytesToAddress(b[12:32])
}
