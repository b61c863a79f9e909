package mint

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tokenforge/liquidity/internal/dex"
	"github.com/tokenforge/liquidity/internal/pool"
	"github.com/tokenforge/liquidity/internal/pricemath"
	"github.com/tokenforge/liquidity/internal/rpc"
	"github.com/tokenforge/liquidity/internal/wallet"
	"github.com/tokenforge/liquidity/pkg/types"
)

var (
	positionManager = common.HexToAddress("0xC36442b4a4522E871399CD717aBDD847Ab11FE88")
	recipient       = common.HexToAddress("0x3333333333333333333333333333333333333333")
	testPair        = pricemath.SortTokens(
		common.HexToAddress("0x1111111111111111111111111111111111111111"),
		common.HexToAddress("0x2222222222222222222222222222222222222222"),
	)
)

// scripted is one canned SubmitAndWait outcome.
type scripted struct {
	receipt *rpc.TransactionReceipt
	err     error
}

type fakeWallet struct {
	script    []scripted
	submitted []wallet.Call
}

func (f *fakeWallet) Address() common.Address { return recipient }

func (f *fakeWallet) EstimateGas(ctx context.Context, call wallet.Call) (uint64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeWallet) SubmitAndWait(ctx context.Context, call wallet.Call) (*rpc.TransactionReceipt, error) {
	i := len(f.submitted)
	f.submitted = append(f.submitted, call)
	if i >= len(f.script) {
		return nil, errors.New("unexpected submission")
	}
	return f.script[i].receipt, f.script[i].err
}

func mintTransferReceipt(tokenID int64) *rpc.TransactionReceipt {
	return &rpc.TransactionReceipt{
		Status:  1,
		GasUsed: 450000,
		TxHash:  "0xabc",
		Logs: []rpc.Log{
			{
				Address: positionManager.Hex(),
				Topics: []string{
					dex.TransferEventTopic.Hex(),
					common.Hash{}.Hex(),
					common.HexToHash(recipient.Hex()).Hex(),
					common.BigToHash(big.NewInt(tokenID)).Hex(),
				},
			},
		},
	}
}

func testParams(createPool bool) Params {
	return Params{
		Pair:           testPair,
		Fee:            types.Fee3000,
		Ticks:          pricemath.FullRangeTicks(types.Fee3000),
		Amount0Desired: big.NewInt(1000),
		Amount1Desired: big.NewInt(2000),
		SqrtPriceX96:   new(big.Int).Lsh(big.NewInt(1), 96),
		CreatePool:     createPool,
		Recipient:      recipient,
	}
}

func newOrchestrator(w wallet.Wallet) *Orchestrator {
	o := NewOrchestrator(w, positionManager, DefaultRetryPolicy(), nil)
	o.now = func() time.Time { return time.Unix(1700000000, 0) }
	return o
}

// multicallLength reads the bytes[] length word from an encoded multicall.
func multicallLength(t *testing.T, data []byte) int64 {
	t.Helper()
	if len(data) < 68 {
		t.Fatalf("multicall data too short: %d bytes", len(data))
	}
	return new(big.Int).SetBytes(data[36:68]).Int64()
}

// firstElementTicks decodes tickLower/tickUpper of a single-element
// multicall wrapping a mint.
func firstElementTicks(t *testing.T, data []byte) (int64, int64) {
	t.Helper()
	content := 132 // selector + offset + length + one element offset + element length
	decode := func(word []byte) int64 {
		v := new(big.Int).SetBytes(word)
		if word[0] == 0xff {
			v.Sub(v, new(big.Int).Lsh(big.NewInt(1), 256))
		}
		return v.Int64()
	}
	lower := decode(data[content+4+3*32 : content+4+4*32])
	upper := decode(data[content+4+4*32 : content+4+5*32])
	return lower, upper
}

func TestMintFirstAttemptSucceeds(t *testing.T) {
	w := &fakeWallet{script: []scripted{{receipt: mintTransferReceipt(42)}}}
	o := newOrchestrator(w)

	res, err := o.Mint(context.Background(), testParams(false))
	if err != nil {
		t.Fatalf("Mint() error: %v", err)
	}
	if res.Retried {
		t.Error("Retried = true on a clean first attempt")
	}
	if res.PositionID == nil || res.PositionID.Int64() != 42 {
		t.Errorf("PositionID = %v, want 42", res.PositionID)
	}
	if len(w.submitted) != 1 {
		t.Fatalf("submitted %d calls, want 1", len(w.submitted))
	}

	call := w.submitted[0]
	if call.To != positionManager {
		t.Errorf("call sent to %s, want position manager", call.To.Hex())
	}
	if call.Gas != mintGasCeiling {
		t.Errorf("gas = %d, want fixed ceiling %d", call.Gas, mintGasCeiling)
	}
	if got := multicallLength(t, call.Data); got != 1 {
		t.Errorf("multicall batches %d calls, want 1 (pool exists)", got)
	}
	lower, upper := firstElementTicks(t, call.Data)
	if lower != -887220 || upper != 887220 {
		t.Errorf("ticks = %d/%d, want -887220/887220", lower, upper)
	}
}

func TestMintBatchesPoolCreation(t *testing.T) {
	w := &fakeWallet{script: []scripted{{receipt: mintTransferReceipt(7)}}}
	o := newOrchestrator(w)

	p := testParams(true)
	if _, err := o.Mint(context.Background(), p); err != nil {
		t.Fatalf("Mint() error: %v", err)
	}
	data := w.submitted[0].Data
	if got := multicallLength(t, data); got != 2 {
		t.Errorf("multicall batches %d calls, want 2 (create+init then mint)", got)
	}
	// First batched element is the resolver-built create+init call.
	off := new(big.Int).SetBytes(data[68:100]).Int64()
	start := 68 + off
	length := new(big.Int).SetBytes(data[start : start+32]).Int64()
	want := pool.BuildCreateAndInit(p.Pair, p.Fee, p.SqrtPriceX96)
	if !bytes.Equal(data[start+32:start+32+length], want) {
		t.Error("first batched call is not createAndInitializePoolIfNecessary")
	}
}

func TestMintAttachesNativeValue(t *testing.T) {
	w := &fakeWallet{script: []scripted{{receipt: mintTransferReceipt(7)}}}
	o := newOrchestrator(w)

	p := testParams(false)
	p.Value = big.NewInt(5_000_000)
	if _, err := o.Mint(context.Background(), p); err != nil {
		t.Fatalf("Mint() error: %v", err)
	}
	if w.submitted[0].Value == nil || w.submitted[0].Value.Int64() != 5_000_000 {
		t.Errorf("attached value = %v, want 5000000", w.submitted[0].Value)
	}
}

func TestMintRetriesOnTickRevert(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"tick bound revert", errors.New("execution reverted: Tick out of range")},
		{"liquidity revert", errors.New("mintPosition tx failed: insufficient LIQUIDITY minted")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fakeWallet{script: []scripted{
				{err: tt.err},
				{receipt: mintTransferReceipt(9)},
			}}
			o := newOrchestrator(w)

			res, err := o.Mint(context.Background(), testParams(false))
			if err != nil {
				t.Fatalf("Mint() error: %v", err)
			}
			if !res.Retried {
				t.Error("Retried = false, want true")
			}
			if len(w.submitted) != 2 {
				t.Fatalf("submitted %d calls, want 2", len(w.submitted))
			}
			// The retry uses the exact global bounds, not the
			// spacing-rounded range.
			lower, upper := firstElementTicks(t, w.submitted[1].Data)
			if lower != -887272 || upper != 887272 {
				t.Errorf("retry ticks = %d/%d, want -887272/887272", lower, upper)
			}
		})
	}
}

func TestMintDoesNotRetryUnrecognizedErrors(t *testing.T) {
	w := &fakeWallet{script: []scripted{
		{err: errors.New("insufficient funds for gas * price + value")},
	}}
	o := newOrchestrator(w)

	if _, err := o.Mint(context.Background(), testParams(false)); err == nil {
		t.Fatal("Mint() should fail")
	}
	if len(w.submitted) != 1 {
		t.Errorf("submitted %d calls, want 1 (no retry)", len(w.submitted))
	}
}

func TestMintRetriesExactlyOnce(t *testing.T) {
	w := &fakeWallet{script: []scripted{
		{err: errors.New("revert: tick")},
		{err: errors.New("revert: tick")},
	}}
	o := newOrchestrator(w)

	if _, err := o.Mint(context.Background(), testParams(false)); err == nil {
		t.Fatal("Mint() should fail after the retry fails")
	}
	if len(w.submitted) != 2 {
		t.Errorf("submitted %d calls, want 2", len(w.submitted))
	}
}

func TestMintToleratesMissingTransferLog(t *testing.T) {
	w := &fakeWallet{script: []scripted{
		{receipt: &rpc.TransactionReceipt{Status: 1, TxHash: "0xdef"}},
	}}
	o := newOrchestrator(w)

	res, err := o.Mint(context.Background(), testParams(false))
	if err != nil {
		t.Fatalf("Mint() error: %v", err)
	}
	if res.PositionID != nil {
		t.Errorf("PositionID = %v, want nil", res.PositionID)
	}
	if res.TxHash != "0xdef" {
		t.Errorf("TxHash = %s, want 0xdef", res.TxHash)
	}
}

func TestRetryPolicyClassifier(t *testing.T) {
	p := DefaultRetryPolicy()

	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("Tick out of bounds"), true},
		{errors.New("LOK: liquidity locked"), true},
		{errors.New("insufficient funds"), false},
		{errors.New("user rejected"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := p.ShouldRetry(tt.err); got != tt.want {
			t.Errorf("ShouldRetry(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestRetryPolicyWiden(t *testing.T) {
	p := DefaultRetryPolicy()
	widened := p.Widen(testParams(false))
	if widened.Ticks.Lower != -887272 || widened.Ticks.Upper != 887272 {
		t.Errorf("Widen() ticks = %d/%d, want -887272/887272",
			widened.Ticks.Lower, widened.Ticks.Upper)
	}
}
