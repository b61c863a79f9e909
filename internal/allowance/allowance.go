// Package allowance reads ERC-20 state and grants router/manager
// approvals only when the existing allowance is short.
package allowance

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tokenforge/liquidity/internal/dex"
	"github.com/tokenforge/liquidity/internal/rpc"
	"github.com/tokenforge/liquidity/internal/wallet"
	"github.com/tokenforge/liquidity/pkg/types"
)

// fallbackApproveGas is used when the node cannot estimate an approve.
const fallbackApproveGas = 120000

// Coordinator ensures spender allowances before liquidity calls.
type Coordinator struct {
	client rpc.Client
	wallet wallet.Wallet
	logger *slog.Logger
}

// NewCoordinator creates an allowance coordinator.
func NewCoordinator(client rpc.Client, w wallet.Wallet, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{client: client, wallet: w, logger: logger}
}

// Allowance reads the current allowance granted by the operator to spender.
func (c *Coordinator) Allowance(ctx context.Context, token, spender common.Address) (*big.Int, error) {
	data := dex.EncodeAllowance(c.wallet.Address(), spender)
	result, err := c.client.CallContract(ctx, token.Hex(), data)
	if err != nil {
		return nil, fmt.Errorf("read allowance: %w", err)
	}
	return parseUint256(result), nil
}

// Balance reads the operator's token balance.
func (c *Coordinator) Balance(ctx context.Context, token common.Address) (*big.Int, error) {
	data := dex.EncodeBalanceOf(c.wallet.Address())
	result, err := c.client.CallContract(ctx, token.Hex(), data)
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}
	return parseUint256(result), nil
}

// EnsureAllowance checks the current allowance and, if it falls short of
// required, submits exactly one approve for the exact required amount.
// A zero or nil requirement never submits anything.
func (c *Coordinator) EnsureAllowance(ctx context.Context, token, spender common.Address, required *big.Int) (types.ApprovalOutcome, error) {
	if required == nil || required.Sign() == 0 {
		return types.ApprovalAlreadySufficient, nil
	}

	current, err := c.Allowance(ctx, token, spender)
	if err != nil {
		return "", err
	}
	if current.Cmp(required) >= 0 {
		c.logger.Debug("allowance already sufficient",
			slog.String("token", token.Hex()),
			slog.String("spender", spender.Hex()),
			slog.String("current", current.String()),
			slog.String("required", required.String()),
		)
		return types.ApprovalAlreadySufficient, nil
	}

	call := wallet.Call{
		To:   token,
		Data: dex.EncodeApprove(spender, required),
		Name: "approve",
	}
	gas, err := c.wallet.EstimateGas(ctx, call)
	if err != nil {
		gas = fallbackApproveGas
	} else {
		gas = gas + gas/5
	}
	call.Gas = gas

	c.logger.Info("approving spender",
		slog.String("token", token.Hex()),
		slog.String("spender", spender.Hex()),
		slog.String("amount", required.String()),
	)
	if _, err := c.wallet.SubmitAndWait(ctx, call); err != nil {
		return "", fmt.Errorf("approve %s for %s: %w", token.Hex(), spender.Hex(), err)
	}
	return types.ApprovalSubmitted, nil
}

// parseUint256 decodes a hex-encoded eth_call result into a big.Int.
// Empty results decode to zero.
func parseUint256(result string) *big.Int {
	if result == "" || result == "0x" {
		return big.NewInt(0)
	}
	return new(big.Int).SetBytes(common.FromHex(result))
}
