// Package orchestrator runs the liquidity-provisioning flow: request
// validation, allowance checks, pool resolution, and the v2 or v3
// submission path, reporting progress through three phases.
package orchestrator

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tokenforge/liquidity/internal/allowance"
	"github.com/tokenforge/liquidity/internal/dex"
	"github.com/tokenforge/liquidity/internal/mint"
	"github.com/tokenforge/liquidity/internal/network"
	"github.com/tokenforge/liquidity/internal/pool"
	"github.com/tokenforge/liquidity/internal/pricemath"
	"github.com/tokenforge/liquidity/internal/rpc"
	"github.com/tokenforge/liquidity/internal/wallet"
	"github.com/tokenforge/liquidity/pkg/types"
)

const (
	// deadlineWindow bounds how long submitted transactions stay valid.
	deadlineWindow = 20 * time.Minute

	// fallbackAddLiquidityGas is used when the node cannot estimate the
	// v2 add-liquidity call.
	fallbackAddLiquidityGas = 500000
)

// Orchestrator drives liquidity provisioning end to end. All work for
// one attempt is strictly sequential; concurrent attempts are not
// coordinated here.
type Orchestrator struct {
	registry  *network.Registry
	client    rpc.Client
	wallet    wallet.Wallet
	allowance *allowance.Coordinator
	policy    mint.RetryPolicy
	logger    *slog.Logger
	now       func() time.Time
}

// New creates an orchestrator.
func New(registry *network.Registry, client rpc.Client, w wallet.Wallet, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry:  registry,
		client:    client,
		wallet:    w,
		allowance: allowance.NewCoordinator(client, w, logger),
		policy:    mint.DefaultRetryPolicy(),
		logger:    logger,
		now:       time.Now,
	}
}

// Attempt is the resolved outcome of one AddLiquidity invocation.
// Err, when set, is always a *ClassifiedError; partial progress
// (approvals granted, pools created) is never rolled back.
type Attempt struct {
	ID          string
	StartedAt   time.Time
	CompletedAt time.Time
	Result      *types.LiquidityResult
	Phases      types.PhaseStatus
	Approvals   []types.ApprovalOutcome
	GasUsed     uint64
	MintRetried bool
	Err         error
}

// AddLiquidity provisions liquidity per the request and reports phase
// transitions to sink as they happen.
func (o *Orchestrator) AddLiquidity(ctx context.Context, chainID int64, req types.LiquidityRequest, sink PhaseSink) *Attempt {
	attempt := &Attempt{
		ID:        newAttemptID(),
		StartedAt: o.now(),
	}
	tracker := newPhaseTracker(attempt.ID, sink, o.now)

	err := o.run(ctx, chainID, req, tracker, attempt)

	attempt.CompletedAt = o.now()
	attempt.Phases = tracker.snapshot()
	if err != nil {
		attempt.Err = classified(Classify(err), err)
		o.logger.Error("liquidity attempt failed",
			slog.String("attemptId", attempt.ID),
			slog.String("kind", string(Classify(attempt.Err))),
			slog.String("error", err.Error()),
		)
	}
	return attempt
}

func (o *Orchestrator) run(ctx context.Context, chainID int64, req types.LiquidityRequest, tracker *phaseTracker, attempt *Attempt) error {
	if err := req.Validate(); err != nil {
		return classified(types.ErrInvalidPairConfiguration, err)
	}

	cfg, err := o.registry.Resolve(chainID)
	if err != nil {
		return classified(types.ErrUnsupportedNetwork, err)
	}

	tokenAmount, err := parseAmount(req.TokenAmount, "tokenAmount")
	if err != nil {
		return classified(types.ErrInvalidPairConfiguration, err)
	}
	pairingAmount, err := parseAmount(req.PairingAmount, "pairingAmount")
	if err != nil {
		return classified(types.ErrInvalidPairConfiguration, err)
	}

	token := common.HexToAddress(req.TokenAddress)
	pairingAddr := cfg.WrappedNative
	if req.PairingMode == types.PairToken {
		pairingAddr = common.HexToAddress(req.PairingToken.Address)
	}
	if token == pairingAddr {
		return classified(types.ErrInvalidPairConfiguration,
			fmt.Errorf("token and pairing token are the same address %s", token.Hex()))
	}

	o.logger.Info("starting liquidity attempt",
		slog.Int64("chainId", chainID),
		slog.String("dex", string(req.Dex)),
		slog.String("token", token.Hex()),
		slog.String("pairingMode", string(req.PairingMode)),
	)

	if err := o.preflight(ctx, req.PairingMode, token, pairingAddr, tokenAmount, pairingAmount); err != nil {
		return err
	}

	switch req.Dex {
	case types.DexV2:
		return o.addV2(ctx, cfg, req, token, pairingAddr, tokenAmount, pairingAmount, tracker, attempt)
	default:
		return o.addV3(ctx, cfg, req, token, pairingAddr, tokenAmount, pairingAmount, tracker, attempt)
	}
}

// addV2 submits a single constant-product add-liquidity call.
func (o *Orchestrator) addV2(ctx context.Context, cfg *network.Config, req types.LiquidityRequest,
	token, pairingAddr common.Address, tokenAmount, pairingAmount *big.Int, tracker *phaseTracker, attempt *Attempt) error {

	tracker.set(types.PhaseApprovals, types.PhasePending)
	outcomes, err := o.ensureApprovals(ctx, cfg.Router, req.PairingMode, token, pairingAddr, tokenAmount, pairingAmount)
	if err != nil {
		return err
	}
	attempt.Approvals = outcomes
	if anySubmitted(outcomes) {
		tracker.set(types.PhaseApprovals, types.PhaseComplete)
	} else {
		tracker.set(types.PhaseApprovals, types.PhaseSkipped)
	}

	// The router creates the pair itself when needed.
	tracker.set(types.PhasePoolCreation, types.PhaseSkipped)
	tracker.set(types.PhasePositionMinting, types.PhasePending)

	deadline := big.NewInt(o.now().Add(deadlineWindow).Unix())
	minToken := applySlippage(tokenAmount, req.Slippage)
	minPairing := applySlippage(pairingAmount, req.Slippage)

	call := wallet.Call{To: cfg.Router, Name: "addLiquidity"}
	if req.PairingMode == types.PairNative {
		call.Name = "addLiquidityETH"
		call.Data = dex.EncodeAddLiquidityETH(dex.AddLiquidityETHParams{
			Token:          token,
			AmountDesired:  tokenAmount,
			AmountTokenMin: minToken,
			AmountETHMin:   minPairing,
			Recipient:      o.wallet.Address(),
			Deadline:       deadline,
		})
		call.Value = pairingAmount
	} else {
		call.Data = dex.EncodeAddLiquidity(dex.AddLiquidityParams{
			TokenA:         token,
			TokenB:         pairingAddr,
			AmountADesired: tokenAmount,
			AmountBDesired: pairingAmount,
			AmountAMin:     minToken,
			AmountBMin:     minPairing,
			Recipient:      o.wallet.Address(),
			Deadline:       deadline,
		})
	}

	// Estimation failure is recovered with the fixed fallback, never
	// surfaced.
	if est, err := o.wallet.EstimateGas(ctx, call); err != nil {
		o.logger.Warn("gas estimation failed, using fallback",
			slog.String("name", call.Name),
			slog.Uint64("fallback", uint64(fallbackAddLiquidityGas)),
			slog.String("error", err.Error()),
		)
		call.Gas = fallbackAddLiquidityGas
	} else {
		call.Gas = est + est/5
	}

	receipt, err := o.wallet.SubmitAndWait(ctx, call)
	if err != nil {
		return err
	}
	tracker.set(types.PhasePositionMinting, types.PhaseComplete)
	attempt.Result = &types.LiquidityResult{TxHash: receipt.TxHash}
	attempt.GasUsed = receipt.GasUsed
	return nil
}

// addV3 mints a full-range concentrated-liquidity position, creating
// and initializing the pool in the same transaction when absent.
func (o *Orchestrator) addV3(ctx context.Context, cfg *network.Config, req types.LiquidityRequest,
	token, pairingAddr common.Address, tokenAmount, pairingAmount *big.Int, tracker *phaseTracker, attempt *Attempt) error {

	if !cfg.SupportsV3() {
		return classified(types.ErrUnsupportedNetwork,
			fmt.Errorf("chain %d (%s) has no concentrated-liquidity deployment", cfg.ChainID, cfg.Name))
	}

	tracker.set(types.PhaseApprovals, types.PhasePending)
	outcomes, err := o.ensureApprovals(ctx, cfg.PositionManager, req.PairingMode, token, pairingAddr, tokenAmount, pairingAmount)
	if err != nil {
		return err
	}
	attempt.Approvals = outcomes
	if anySubmitted(outcomes) {
		tracker.set(types.PhaseApprovals, types.PhaseComplete)
	} else {
		tracker.set(types.PhaseApprovals, types.PhaseSkipped)
	}

	// Desired amounts follow the canonical token order, not the
	// user-facing request order.
	pair := pricemath.SortTokens(token, pairingAddr)
	amount0, amount1 := tokenAmount, pairingAmount
	if pair.Token0 != token {
		amount0, amount1 = pairingAmount, tokenAmount
	}

	params := mint.Params{
		Pair:           pair,
		Fee:            req.FeeTier,
		Ticks:          pricemath.FullRangeTicks(req.FeeTier),
		Amount0Desired: amount0,
		Amount1Desired: amount1,
		Recipient:      o.wallet.Address(),
	}
	if req.PairingMode == types.PairNative {
		params.Value = pairingAmount
	}

	resolver := pool.NewResolver(o.client, cfg.Factory, o.logger)
	if poolAddr, exists := resolver.Resolve(ctx, pair, req.FeeTier); exists {
		o.logger.Debug("pool already exists", slog.String("pool", poolAddr.Hex()))
		tracker.set(types.PhasePoolCreation, types.PhaseSkipped)
	} else {
		price := pricemath.PriceForAmounts(amount0, amount1)
		sqrtPrice, err := pricemath.SqrtPriceX96FromRatio(price)
		if err != nil {
			return classified(types.ErrInvalidPairConfiguration, err)
		}
		params.CreatePool = true
		params.SqrtPriceX96 = sqrtPrice
		tracker.set(types.PhasePoolCreation, types.PhasePending)
	}

	tracker.set(types.PhasePositionMinting, types.PhasePending)
	minter := mint.NewOrchestrator(o.wallet, cfg.PositionManager, o.policy, o.logger)
	res, err := minter.Mint(ctx, params)
	if err != nil {
		return err
	}

	if params.CreatePool {
		tracker.set(types.PhasePoolCreation, types.PhaseComplete)
	}
	tracker.set(types.PhasePositionMinting, types.PhaseComplete)

	result := &types.LiquidityResult{TxHash: res.TxHash}
	if res.PositionID != nil {
		result.PositionID = res.PositionID.String()
	}
	attempt.Result = result
	attempt.GasUsed = res.GasUsed
	attempt.MintRetried = res.Retried
	return nil
}

// preflight rejects requests the chain would bounce anyway: the token
// must carry contract code and the operator must hold both sides.
func (o *Orchestrator) preflight(ctx context.Context, mode types.PairingMode,
	token, pairingAddr common.Address, tokenAmount, pairingAmount *big.Int) error {

	code, err := o.client.GetCode(ctx, token.Hex())
	if err != nil {
		return fmt.Errorf("read token code: %w", err)
	}
	if len(common.FromHex(code)) == 0 {
		return classified(types.ErrInvalidPairConfiguration,
			fmt.Errorf("token %s has no contract code", token.Hex()))
	}

	balance, err := o.allowance.Balance(ctx, token)
	if err != nil {
		return fmt.Errorf("read token balance: %w", err)
	}
	if balance.Cmp(tokenAmount) < 0 {
		return classified(types.ErrInsufficientFunds,
			fmt.Errorf("token balance %s below requested %s", balance, tokenAmount))
	}

	if mode == types.PairNative {
		native, err := o.client.GetBalance(ctx, o.wallet.Address().Hex())
		if err != nil {
			return fmt.Errorf("read native balance: %w", err)
		}
		if native.Cmp(pairingAmount) < 0 {
			return classified(types.ErrInsufficientFunds,
				fmt.Errorf("native balance %s below requested %s", native, pairingAmount))
		}
		return nil
	}

	pairingBalance, err := o.allowance.Balance(ctx, pairingAddr)
	if err != nil {
		return fmt.Errorf("read pairing balance: %w", err)
	}
	if pairingBalance.Cmp(pairingAmount) < 0 {
		return classified(types.ErrInsufficientFunds,
			fmt.Errorf("pairing balance %s below requested %s", pairingBalance, pairingAmount))
	}
	return nil
}

// ensureApprovals grants the spender what each ERC-20 side needs.
// The native side travels as transaction value and needs no approval.
// Returns the outcome of every allowance check performed.
func (o *Orchestrator) ensureApprovals(ctx context.Context, spender common.Address, mode types.PairingMode,
	token, pairingAddr common.Address, tokenAmount, pairingAmount *big.Int) ([]types.ApprovalOutcome, error) {

	outcome, err := o.allowance.EnsureAllowance(ctx, token, spender, tokenAmount)
	if err != nil {
		return nil, err
	}
	outcomes := []types.ApprovalOutcome{outcome}

	if mode == types.PairToken {
		outcome, err := o.allowance.EnsureAllowance(ctx, pairingAddr, spender, pairingAmount)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// anySubmitted reports whether any allowance check sent a transaction.
func anySubmitted(outcomes []types.ApprovalOutcome) bool {
	for _, o := range outcomes {
		if o == types.ApprovalSubmitted {
			return true
		}
	}
	return false
}

// applySlippage computes amount × (1000 − tolerance×10) / 1000 with the
// tolerance in tenths of a percent, matching the v2 router convention.
func applySlippage(amount *big.Int, tolerance float64) *big.Int {
	milli := int64(math.Round(1000 - tolerance*10))
	if milli < 0 {
		milli = 0
	}
	out := new(big.Int).Mul(amount, big.NewInt(milli))
	return out.Div(out, big.NewInt(1000))
}

// parseAmount decodes a positive base-10 amount in smallest units.
func parseAmount(s, field string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%s %q is not a base-10 integer", field, s)
	}
	if v.Sign() <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %s", field, s)
	}
	return v, nil
}

func newAttemptID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
