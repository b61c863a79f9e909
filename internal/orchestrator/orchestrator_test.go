package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/tokenforge/liquidity/internal/dex"
	"github.com/tokenforge/liquidity/internal/network"
	"github.com/tokenforge/liquidity/internal/rpc"
	"github.com/tokenforge/liquidity/internal/wallet"
	"github.com/tokenforge/liquidity/pkg/types"
)

var (
	testRouter  = common.HexToAddress("0xAAAA000000000000000000000000000000000001")
	testPM      = common.HexToAddress("0xAAAA000000000000000000000000000000000002")
	testFactory = common.HexToAddress("0xAAAA000000000000000000000000000000000003")
	// Wrapped native sorts below the test token.
	testWNative = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testToken   = common.HexToAddress("0xEEEEeEeeeEeEeeEEEeEeEeeEEeEEeeeEeEeeEEeE")
	operator    = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func testRegistry() *network.Registry {
	r := network.NewRegistry()
	r.Register(&network.Config{
		ChainID:         31337,
		Name:            "testnet",
		Router:          testRouter,
		PositionManager: testPM,
		Factory:         testFactory,
		WrappedNative:   testWNative,
		NativeSymbol:    "ETH",
	})
	r.Register(&network.Config{
		ChainID:       99,
		Name:          "v2only",
		Router:        testRouter,
		WrappedNative: testWNative,
		NativeSymbol:  "ETH",
	})
	return r
}

// fakeChain serves allowance, balance, code and pool reads. Balances
// and code default to generous values; tests override to starve them.
type fakeChain struct {
	allowance     *big.Int
	poolExists    bool
	tokenBalance  *big.Int // nil means plenty
	nativeBalance *big.Int // nil means plenty
	tokenCode     string   // "" means real bytecode
}

func (f *fakeChain) Call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeChain) CallContract(ctx context.Context, to string, data []byte) (string, error) {
	switch {
	case bytes.Equal(data[:4], dex.SelectorAllowance):
		return hexutil.Encode(common.BigToHash(f.allowance).Bytes()), nil
	case bytes.Equal(data[:4], dex.SelectorBalanceOf):
		balance := f.tokenBalance
		if balance == nil {
			balance = big.NewInt(1_000_000_000_000)
		}
		return hexutil.Encode(common.BigToHash(balance).Bytes()), nil
	case bytes.Equal(data[:4], dex.SelectorGetPool):
		if f.poolExists {
			pool := common.HexToAddress("0x5555555555555555555555555555555555555555")
			return hexutil.Encode(common.BytesToHash(pool.Bytes()).Bytes()), nil
		}
		return hexutil.Encode(common.Hash{}.Bytes()), nil
	}
	return "0x", nil
}

func (f *fakeChain) SendRawTransaction(ctx context.Context, txRLP []byte) error { return nil }

func (f *fakeChain) EstimateGas(ctx context.Context, from, to string, data []byte, value *big.Int) (uint64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeChain) GetNonce(ctx context.Context, address string) (uint64, error) { return 0, nil }

func (f *fakeChain) GetGasPrice(ctx context.Context) (uint64, error) { return 0, nil }

func (f *fakeChain) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	if f.nativeBalance != nil {
		return f.nativeBalance, nil
	}
	return big.NewInt(1_000_000_000_000), nil
}

func (f *fakeChain) GetCode(ctx context.Context, address string) (string, error) {
	if f.tokenCode != "" {
		return f.tokenCode, nil
	}
	return "0x6080604052", nil
}

func (f *fakeChain) GetTransactionReceipt(ctx context.Context, txHash string) (*rpc.TransactionReceipt, error) {
	return nil, nil
}

// scriptedWallet returns canned outcomes in submission order.
type scriptedWallet struct {
	outcomes    []walletOutcome
	submitted   []wallet.Call
	estimate    uint64
	estimateErr error
}

type walletOutcome struct {
	receipt *rpc.TransactionReceipt
	err     error
}

func (w *scriptedWallet) Address() common.Address { return operator }

func (w *scriptedWallet) EstimateGas(ctx context.Context, call wallet.Call) (uint64, error) {
	return w.estimate, w.estimateErr
}

func (w *scriptedWallet) SubmitAndWait(ctx context.Context, call wallet.Call) (*rpc.TransactionReceipt, error) {
	i := len(w.submitted)
	w.submitted = append(w.submitted, call)
	if i >= len(w.outcomes) {
		return nil, errors.New("unexpected submission")
	}
	return w.outcomes[i].receipt, w.outcomes[i].err
}

func okReceipt(hash string) walletOutcome {
	return walletOutcome{receipt: &rpc.TransactionReceipt{Status: 1, TxHash: hash, GasUsed: 100000}}
}

func mintReceipt(hash string, tokenID int64) walletOutcome {
	return walletOutcome{receipt: &rpc.TransactionReceipt{
		Status:  1,
		TxHash:  hash,
		GasUsed: 400000,
		Logs: []rpc.Log{
			{
				Address: testPM.Hex(),
				Topics: []string{
					dex.TransferEventTopic.Hex(),
					common.Hash{}.Hex(),
					common.HexToHash(operator.Hex()).Hex(),
					common.BigToHash(big.NewInt(tokenID)).Hex(),
				},
			},
		},
	}}
}

// decodeMulticall splits the encoded bytes[] back into elements.
func decodeMulticall(t *testing.T, data []byte) [][]byte {
	t.Helper()
	if !bytes.Equal(data[:4], dex.SelectorMulticall) {
		t.Fatal("not a multicall")
	}
	n := int(new(big.Int).SetBytes(data[36:68]).Int64())
	out := make([][]byte, 0, n)
	for i := range n {
		off := int(new(big.Int).SetBytes(data[68+32*i : 100+32*i]).Int64())
		start := 68 + off
		length := int(new(big.Int).SetBytes(data[start : start+32]).Int64())
		out = append(out, data[start+32:start+32+length])
	}
	return out
}

func word(data []byte, i int) *big.Int {
	return new(big.Int).SetBytes(data[4+32*i : 4+32*(i+1)])
}

func newTestOrchestrator(chain *fakeChain, w wallet.Wallet) *Orchestrator {
	return New(testRegistry(), chain, w, nil)
}

func v3NativeRequest() types.LiquidityRequest {
	return types.LiquidityRequest{
		TokenAddress:  testToken.Hex(),
		PairingMode:   types.PairNative,
		TokenAmount:   "1000",
		PairingAmount: "1",
		Slippage:      0.5,
		Dex:           types.DexV3,
		FeeTier:       types.Fee3000,
	}
}

func TestAddLiquidityV3NativeCreatesPool(t *testing.T) {
	chain := &fakeChain{allowance: big.NewInt(0), poolExists: false}
	w := &scriptedWallet{
		outcomes: []walletOutcome{okReceipt("0xapprove"), mintReceipt("0xmint", 42)},
		estimate: 50000,
	}
	o := newTestOrchestrator(chain, w)

	var updates []types.PhaseUpdate
	attempt := o.AddLiquidity(context.Background(), 31337, v3NativeRequest(), func(u types.PhaseUpdate) {
		updates = append(updates, u)
	})
	if attempt.Err != nil {
		t.Fatalf("AddLiquidity() error: %v", attempt.Err)
	}
	if attempt.Result.TxHash != "0xmint" {
		t.Errorf("TxHash = %s, want 0xmint", attempt.Result.TxHash)
	}
	if attempt.Result.PositionID != "42" {
		t.Errorf("PositionID = %s, want 42", attempt.Result.PositionID)
	}

	// Approve for the token side, then the batched create+mint.
	if len(w.submitted) != 2 {
		t.Fatalf("submitted %d calls, want 2", len(w.submitted))
	}
	if w.submitted[0].To != testToken {
		t.Errorf("approve sent to %s, want token", w.submitted[0].To.Hex())
	}
	mintCall := w.submitted[1]
	if mintCall.To != testPM {
		t.Errorf("mint sent to %s, want position manager", mintCall.To.Hex())
	}
	// Native-side amount travels as value.
	if mintCall.Value == nil || mintCall.Value.Int64() != 1 {
		t.Errorf("attached value = %v, want 1", mintCall.Value)
	}

	calls := decodeMulticall(t, mintCall.Data)
	if len(calls) != 2 {
		t.Fatalf("multicall batches %d calls, want 2 (create+init then mint)", len(calls))
	}
	if !bytes.Equal(calls[0][:4], dex.SelectorCreateAndInitialize) {
		t.Error("first batched call is not createAndInitializePoolIfNecessary")
	}
	if !bytes.Equal(calls[1][:4], dex.SelectorMintPosition) {
		t.Error("second batched call is not mint")
	}

	// Wrapped native sorts first: token0 = WNATIVE with amount0 = the
	// pairing amount, token1 = T with amount1 = the token amount.
	mintData := calls[1]
	if got := common.BytesToAddress(mintData[4+12 : 4+32]); got != testWNative {
		t.Errorf("token0 = %s, want wrapped native", got.Hex())
	}
	if got := common.BytesToAddress(mintData[4+32+12 : 4+64]); got != testToken {
		t.Errorf("token1 = %s, want token", got.Hex())
	}
	if got := word(mintData, 5); got.Int64() != 1 {
		t.Errorf("amount0Desired = %s, want 1", got)
	}
	if got := word(mintData, 6); got.Int64() != 1000 {
		t.Errorf("amount1Desired = %s, want 1000", got)
	}
	// Minimums pinned to zero on the concentrated path regardless of
	// the request's slippage.
	if word(mintData, 7).Sign() != 0 || word(mintData, 8).Sign() != 0 {
		t.Error("mint minimums should be zero")
	}

	if attempt.Phases.Approvals != types.PhaseComplete {
		t.Errorf("approvals phase = %s, want complete", attempt.Phases.Approvals)
	}
	if attempt.Phases.PoolCreation != types.PhaseComplete {
		t.Errorf("poolCreation phase = %s, want complete", attempt.Phases.PoolCreation)
	}
	if attempt.Phases.PositionMinting != types.PhaseComplete {
		t.Errorf("positionMinting phase = %s, want complete", attempt.Phases.PositionMinting)
	}
	if len(updates) == 0 {
		t.Error("no phase updates streamed")
	}
	for _, u := range updates {
		if u.AttemptID != attempt.ID {
			t.Errorf("update attempt id = %s, want %s", u.AttemptID, attempt.ID)
		}
	}
}

func TestAddLiquidityV3ExistingPoolSkipsCreation(t *testing.T) {
	chain := &fakeChain{allowance: big.NewInt(1_000_000), poolExists: true}
	w := &scriptedWallet{outcomes: []walletOutcome{mintReceipt("0xmint", 7)}}
	o := newTestOrchestrator(chain, w)

	attempt := o.AddLiquidity(context.Background(), 31337, v3NativeRequest(), nil)
	if attempt.Err != nil {
		t.Fatalf("AddLiquidity() error: %v", attempt.Err)
	}

	// Allowance was already sufficient, so no approve went out.
	if len(w.submitted) != 1 {
		t.Fatalf("submitted %d calls, want 1", len(w.submitted))
	}
	calls := decodeMulticall(t, w.submitted[0].Data)
	if len(calls) != 1 {
		t.Errorf("multicall batches %d calls, want 1 (no create+init)", len(calls))
	}
	if attempt.Phases.Approvals != types.PhaseSkipped {
		t.Errorf("approvals phase = %s, want skipped", attempt.Phases.Approvals)
	}
	if attempt.Phases.PoolCreation != types.PhaseSkipped {
		t.Errorf("poolCreation phase = %s, want skipped", attempt.Phases.PoolCreation)
	}
}

func TestAddLiquidityV3TickRevertClassified(t *testing.T) {
	chain := &fakeChain{allowance: big.NewInt(1_000_000), poolExists: true}
	w := &scriptedWallet{outcomes: []walletOutcome{
		{err: errors.New("execution reverted: tick out of range")},
		{err: errors.New("execution reverted: tick out of range")},
	}}
	o := newTestOrchestrator(chain, w)

	attempt := o.AddLiquidity(context.Background(), 31337, v3NativeRequest(), nil)
	if attempt.Err == nil {
		t.Fatal("AddLiquidity() should fail after retry exhaustion")
	}
	if got := Classify(attempt.Err); got != types.ErrTickOrLiquidityRevert {
		t.Errorf("error kind = %s, want %s", got, types.ErrTickOrLiquidityRevert)
	}
	// One original attempt and exactly one retry.
	if len(w.submitted) != 2 {
		t.Errorf("submitted %d calls, want 2", len(w.submitted))
	}
}

func TestAddLiquidityV2Slippage(t *testing.T) {
	chain := &fakeChain{allowance: big.NewInt(1_000_000_000)}
	w := &scriptedWallet{outcomes: []walletOutcome{okReceipt("0xadd")}, estimate: 200000}
	o := newTestOrchestrator(chain, w)

	req := types.LiquidityRequest{
		TokenAddress: testToken.Hex(),
		PairingMode:  types.PairToken,
		PairingToken: &types.PairingToken{
			Symbol: "USDC", Address: "0x2000000000000000000000000000000000000002", Decimals: 6,
		},
		TokenAmount:   "100000",
		PairingAmount: "200000",
		Slippage:      0.5,
		Dex:           types.DexV2,
	}
	attempt := o.AddLiquidity(context.Background(), 31337, req, nil)
	if attempt.Err != nil {
		t.Fatalf("AddLiquidity() error: %v", attempt.Err)
	}

	call := w.submitted[0]
	if call.To != testRouter {
		t.Errorf("call sent to %s, want router", call.To.Hex())
	}
	if !bytes.Equal(call.Data[:4], dex.SelectorAddLiquidity) {
		t.Error("call is not addLiquidity")
	}
	// slippage 0.5 → min = amount × 995/1000.
	if got := word(call.Data, 4); got.Int64() != 99500 {
		t.Errorf("amountAMin = %s, want 99500", got)
	}
	if got := word(call.Data, 5); got.Int64() != 199000 {
		t.Errorf("amountBMin = %s, want 199000", got)
	}
	// Estimate 200000 plus 20% buffer.
	if call.Gas != 240000 {
		t.Errorf("gas = %d, want 240000", call.Gas)
	}
	if attempt.Phases.PoolCreation != types.PhaseSkipped {
		t.Errorf("poolCreation phase = %s, want skipped on v2", attempt.Phases.PoolCreation)
	}
}

func TestAddLiquidityV2NativeAttachesValue(t *testing.T) {
	chain := &fakeChain{allowance: big.NewInt(1_000_000_000)}
	w := &scriptedWallet{outcomes: []walletOutcome{okReceipt("0xadd")}, estimate: 200000}
	o := newTestOrchestrator(chain, w)

	req := types.LiquidityRequest{
		TokenAddress:  testToken.Hex(),
		PairingMode:   types.PairNative,
		TokenAmount:   "100000",
		PairingAmount: "7",
		Slippage:      1,
		Dex:           types.DexV2,
	}
	attempt := o.AddLiquidity(context.Background(), 31337, req, nil)
	if attempt.Err != nil {
		t.Fatalf("AddLiquidity() error: %v", attempt.Err)
	}

	call := w.submitted[0]
	if !bytes.Equal(call.Data[:4], dex.SelectorAddLiquidityETH) {
		t.Error("call is not addLiquidityETH")
	}
	if call.Value == nil || call.Value.Int64() != 7 {
		t.Errorf("attached value = %v, want 7", call.Value)
	}
}

func TestAddLiquidityV2GasEstimationFallback(t *testing.T) {
	chain := &fakeChain{allowance: big.NewInt(1_000_000_000)}
	w := &scriptedWallet{
		outcomes:    []walletOutcome{okReceipt("0xadd")},
		estimateErr: errors.New("execution reverted"),
	}
	o := newTestOrchestrator(chain, w)

	req := types.LiquidityRequest{
		TokenAddress:  testToken.Hex(),
		PairingMode:   types.PairNative,
		TokenAmount:   "100",
		PairingAmount: "100",
		Dex:           types.DexV2,
	}
	attempt := o.AddLiquidity(context.Background(), 31337, req, nil)
	if attempt.Err != nil {
		t.Fatalf("AddLiquidity() should proceed with the fallback, got: %v", attempt.Err)
	}
	if w.submitted[0].Gas != fallbackAddLiquidityGas {
		t.Errorf("gas = %d, want fallback %d", w.submitted[0].Gas, fallbackAddLiquidityGas)
	}
}

func TestAddLiquidityV2RevertClassifiedAsOther(t *testing.T) {
	chain := &fakeChain{allowance: big.NewInt(1_000_000_000)}
	w := &scriptedWallet{
		outcomes: []walletOutcome{{
			err: fmt.Errorf("addLiquidityETH tx failed (status=0, gasUsed=42000, txHash=0xdead): %w", wallet.ErrReverted),
		}},
		estimate: 200000,
	}
	o := newTestOrchestrator(chain, w)

	req := types.LiquidityRequest{
		TokenAddress:  testToken.Hex(),
		PairingMode:   types.PairNative,
		TokenAmount:   "100",
		PairingAmount: "100",
		Dex:           types.DexV2,
	}
	attempt := o.AddLiquidity(context.Background(), 31337, req, nil)
	if attempt.Err == nil {
		t.Fatal("AddLiquidity() should fail on the reverted submission")
	}
	if got := Classify(attempt.Err); got != types.ErrContractRevertOther {
		t.Errorf("error kind = %s, want %s", got, types.ErrContractRevertOther)
	}
}

func TestAddLiquidityPreflight(t *testing.T) {
	tests := []struct {
		name  string
		chain *fakeChain
		want  types.ErrorKind
	}{
		{
			"token balance short",
			&fakeChain{allowance: big.NewInt(0), tokenBalance: big.NewInt(99)},
			types.ErrInsufficientFunds,
		},
		{
			"native balance short",
			&fakeChain{allowance: big.NewInt(0), nativeBalance: big.NewInt(99)},
			types.ErrInsufficientFunds,
		},
		{
			"token address has no code",
			&fakeChain{allowance: big.NewInt(0), tokenCode: "0x"},
			types.ErrInvalidPairConfiguration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &scriptedWallet{estimate: 200000}
			o := newTestOrchestrator(tt.chain, w)

			req := types.LiquidityRequest{
				TokenAddress:  testToken.Hex(),
				PairingMode:   types.PairNative,
				TokenAmount:   "100",
				PairingAmount: "100",
				Dex:           types.DexV2,
			}
			attempt := o.AddLiquidity(context.Background(), 31337, req, nil)
			if attempt.Err == nil {
				t.Fatal("AddLiquidity() should fail in preflight")
			}
			if got := Classify(attempt.Err); got != tt.want {
				t.Errorf("error kind = %s, want %s", got, tt.want)
			}
			if len(w.submitted) != 0 {
				t.Errorf("submitted %d calls, want 0", len(w.submitted))
			}
		})
	}
}

func TestAddLiquidityPreflightPairingTokenBalance(t *testing.T) {
	// tokenBalance serves both balanceOf reads, so 150 covers the
	// token side (100) but not the pairing side (200).
	chain := &fakeChain{allowance: big.NewInt(0), tokenBalance: big.NewInt(150)}
	w := &scriptedWallet{estimate: 200000}
	o := newTestOrchestrator(chain, w)

	req := types.LiquidityRequest{
		TokenAddress: testToken.Hex(),
		PairingMode:  types.PairToken,
		PairingToken: &types.PairingToken{
			Symbol: "USDC", Address: "0x2000000000000000000000000000000000000002", Decimals: 6,
		},
		TokenAmount:   "100",
		PairingAmount: "200",
		Dex:           types.DexV2,
	}
	attempt := o.AddLiquidity(context.Background(), 31337, req, nil)
	if attempt.Err == nil {
		t.Fatal("AddLiquidity() should fail in preflight")
	}
	if got := Classify(attempt.Err); got != types.ErrInsufficientFunds {
		t.Errorf("error kind = %s, want %s", got, types.ErrInsufficientFunds)
	}
	if len(w.submitted) != 0 {
		t.Errorf("submitted %d calls, want 0", len(w.submitted))
	}
}

func TestAddLiquidityTerminalValidation(t *testing.T) {
	tests := []struct {
		name    string
		chainID int64
		mutate  func(*types.LiquidityRequest)
		want    types.ErrorKind
	}{
		{
			name:    "unknown chain",
			chainID: 424242,
			mutate:  func(r *types.LiquidityRequest) {},
			want:    types.ErrUnsupportedNetwork,
		},
		{
			name:    "v3 on a v2-only chain",
			chainID: 99,
			mutate:  func(r *types.LiquidityRequest) {},
			want:    types.ErrUnsupportedNetwork,
		},
		{
			name:    "token mode without pairing token",
			chainID: 31337,
			mutate: func(r *types.LiquidityRequest) {
				r.PairingMode = types.PairToken
				r.PairingToken = nil
			},
			want: types.ErrInvalidPairConfiguration,
		},
		{
			name:    "invalid fee tier",
			chainID: 31337,
			mutate:  func(r *types.LiquidityRequest) { r.FeeTier = 1234 },
			want:    types.ErrInvalidPairConfiguration,
		},
		{
			name:    "non-numeric amount",
			chainID: 31337,
			mutate:  func(r *types.LiquidityRequest) { r.TokenAmount = "lots" },
			want:    types.ErrInvalidPairConfiguration,
		},
		{
			name:    "zero amount",
			chainID: 31337,
			mutate:  func(r *types.LiquidityRequest) { r.PairingAmount = "0" },
			want:    types.ErrInvalidPairConfiguration,
		},
		{
			name:    "token equals wrapped native",
			chainID: 31337,
			mutate:  func(r *types.LiquidityRequest) { r.TokenAddress = testWNative.Hex() },
			want:    types.ErrInvalidPairConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &scriptedWallet{}
			o := newTestOrchestrator(&fakeChain{allowance: big.NewInt(0)}, w)

			req := v3NativeRequest()
			tt.mutate(&req)
			attempt := o.AddLiquidity(context.Background(), tt.chainID, req, nil)
			if attempt.Err == nil {
				t.Fatal("AddLiquidity() should fail")
			}
			if got := Classify(attempt.Err); got != tt.want {
				t.Errorf("error kind = %s, want %s", got, tt.want)
			}
			// Terminal before any transaction goes out.
			if len(w.submitted) != 0 {
				t.Errorf("submitted %d calls, want 0", len(w.submitted))
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want types.ErrorKind
	}{
		{"user rejected", errors.New("MetaMask Tx Signature: User rejected transaction"), types.ErrUserRejected},
		{"user denied", errors.New("user denied transaction signature"), types.ErrUserRejected},
		{"insufficient funds", errors.New("insufficient funds for gas * price + value"), types.ErrInsufficientFunds},
		{"tick revert", errors.New("execution reverted: Tick"), types.ErrTickOrLiquidityRevert},
		{"liquidity revert", errors.New("not enough liquidity minted"), types.ErrTickOrLiquidityRevert},
		{"other revert", errors.New("execution reverted: STF"), types.ErrContractRevertOther},
		{"unsupported network sentinel", network.ErrUnsupported, types.ErrUnsupportedNetwork},
		// Wrapping layers embed call labels; only the root cause counts.
		{"reverted addLiquidityETH",
			fmt.Errorf("addLiquidityETH tx failed (status=0, gasUsed=42000, txHash=0xdead): %w", wallet.ErrReverted),
			types.ErrContractRevertOther},
		{"receipt timeout on addLiquidity",
			fmt.Errorf("addLiquidity tx (txHash: 0xdead): %w", wallet.ErrReceiptTimeout),
			types.ErrContractRevertOther},
		{"tick revert through wrappers",
			fmt.Errorf("mintPosition: %w", errors.New("execution reverted: tick out of range")),
			types.ErrTickOrLiquidityRevert},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestApplySlippage(t *testing.T) {
	tests := []struct {
		amount    int64
		tolerance float64
		want      int64
	}{
		{1000, 0.5, 995},
		{1000, 0, 1000},
		{1000, 1, 990},
		{200000, 0.5, 199000},
	}
	for _, tt := range tests {
		got := applySlippage(big.NewInt(tt.amount), tt.tolerance)
		if got.Int64() != tt.want {
			t.Errorf("applySlippage(%d, %v) = %s, want %d", tt.amount, tt.tolerance, got, tt.want)
		}
	}
}
