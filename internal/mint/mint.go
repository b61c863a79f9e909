// Package mint batches pool creation and position minting into one
// atomic transaction and applies the widen-and-retry recovery policy.
package mint

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tokenforge/liquidity/internal/dex"
	"github.com/tokenforge/liquidity/internal/pool"
	"github.com/tokenforge/liquidity/internal/pricemath"
	"github.com/tokenforge/liquidity/internal/rpc"
	"github.com/tokenforge/liquidity/internal/wallet"
	"github.com/tokenforge/liquidity/pkg/types"
)

const (
	// mintGasCeiling is a generous fixed gas limit. Estimating a batch
	// that creates a not-yet-existing pool is unreliable, so the ceiling
	// is supplied instead of an estimate.
	mintGasCeiling = 8_000_000

	// deadlineWindow bounds how long the transaction stays valid.
	deadlineWindow = 20 * time.Minute
)

// RetryPolicy decides when a failed mint is retried and how the
// parameters are widened for the retry.
type RetryPolicy struct {
	MaxAttempts int
}

// DefaultRetryPolicy retries exactly once.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2}
}

// ShouldRetry reports whether the error is a recognized tick or
// liquidity bound revert.
func (RetryPolicy) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "tick") || strings.Contains(msg, "liquidity")
}

// Widen rebuilds the tick range for the retry: the exact global bounds,
// recomputed fresh rather than reusing the spacing-rounded range.
func (RetryPolicy) Widen(p Params) Params {
	p.Ticks = pricemath.GlobalTickBounds()
	return p
}

// Params describes one position mint.
type Params struct {
	Pair           pricemath.OrderedPair
	Fee            types.FeeTier
	Ticks          pricemath.TickRange
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	SqrtPriceX96   *big.Int // starting price, used only when CreatePool is set
	CreatePool     bool     // prepend createAndInitializePoolIfNecessary
	Recipient      common.Address
	Value          *big.Int // attached native value, nil for token/token pairs
}

// Result reports a confirmed mint.
type Result struct {
	TxHash     string
	PositionID *big.Int // nil when no transfer log was found
	GasUsed    uint64
	Retried    bool
}

// Orchestrator drives the mint state machine against one position manager.
type Orchestrator struct {
	wallet          wallet.Wallet
	positionManager common.Address
	policy          RetryPolicy
	logger          *slog.Logger
	now             func() time.Time
}

// NewOrchestrator creates a mint orchestrator.
func NewOrchestrator(w wallet.Wallet, positionManager common.Address, policy RetryPolicy, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		wallet:          w,
		positionManager: positionManager,
		policy:          policy,
		logger:          logger,
		now:             time.Now,
	}
}

// Mint submits the batched create+mint call and waits for confirmation,
// retrying once with widened parameters on a tick/liquidity revert.
func (o *Orchestrator) Mint(ctx context.Context, p Params) (*Result, error) {
	var lastErr error
	for attempt := 1; attempt <= o.policy.MaxAttempts; attempt++ {
		retried := attempt > 1
		receipt, err := o.submit(ctx, p, retried)
		if err == nil {
			id, found := dex.ParseMintedPositionID(receipt.Logs, o.positionManager)
			if !found {
				// The mint confirmed; a missing transfer log only costs
				// us the position id.
				o.logger.Warn("mint confirmed without a position transfer log",
					slog.String("txHash", receipt.TxHash),
				)
			}
			return &Result{
				TxHash:     receipt.TxHash,
				PositionID: id,
				GasUsed:    receipt.GasUsed,
				Retried:    retried,
			}, nil
		}

		lastErr = err
		if retried || !o.policy.ShouldRetry(err) {
			break
		}

		o.logger.Info("mint reverted on tick/liquidity bounds, retrying with global range",
			slog.String("error", err.Error()),
		)
		p = o.policy.Widen(p)
	}
	return nil, lastErr
}

func (o *Orchestrator) submit(ctx context.Context, p Params, retried bool) (*rpc.TransactionReceipt, error) {
	deadline := big.NewInt(o.now().Add(deadlineWindow).Unix())

	mintData := dex.EncodeMintPosition(dex.MintParams{
		Token0:         p.Pair.Token0,
		Token1:         p.Pair.Token1,
		Fee:            uint32(p.Fee),
		TickLower:      p.Ticks.Lower,
		TickUpper:      p.Ticks.Upper,
		Amount0Desired: p.Amount0Desired,
		Amount1Desired: p.Amount1Desired,
		// Minimums stay zero on every attempt; slippage tolerance is a
		// v2-path concern only.
		Amount0Min: big.NewInt(0),
		Amount1Min: big.NewInt(0),
		Recipient:  p.Recipient,
		Deadline:   deadline,
	})

	calls := make([][]byte, 0, 2)
	if p.CreatePool {
		calls = append(calls, pool.BuildCreateAndInit(p.Pair, p.Fee, p.SqrtPriceX96))
	}
	calls = append(calls, mintData)

	name := "mintPosition"
	if retried {
		name = "mintPositionRetry"
	}
	o.logger.Info("submitting position mint",
		slog.String("token0", p.Pair.Token0.Hex()),
		slog.Uint64("fee", uint64(p.Fee)),
		slog.Int("tickLower", int(p.Ticks.Lower)),
		slog.Int("tickUpper", int(p.Ticks.Upper)),
		slog.Bool("createPool", p.CreatePool),
		slog.Bool("retry", retried),
	)

	rcpt, err := o.wallet.SubmitAndWait(ctx, wallet.Call{
		To:    o.positionManager,
		Data:  dex.EncodeMulticall(calls),
		Value: p.Value,
		Gas:   mintGasCeiling,
		Name:  name,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return rcpt, nil
}
