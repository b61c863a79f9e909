package pool

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tokenforge/liquidity/internal/pricemath"
	"github.com/tokenforge/liquidity/internal/rpc"
	"github.com/tokenforge/liquidity/pkg/types"
)

type fakeReader struct {
	result string
	err    error
}

func (f *fakeReader) Call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeReader) CallContract(ctx context.Context, to string, data []byte) (string, error) {
	return f.result, f.err
}

func (f *fakeReader) SendRawTransaction(ctx context.Context, txRLP []byte) error { return nil }

func (f *fakeReader) EstimateGas(ctx context.Context, from, to string, data []byte, value *big.Int) (uint64, error) {
	return 0, nil
}

func (f *fakeReader) GetNonce(ctx context.Context, address string) (uint64, error) { return 0, nil }

func (f *fakeReader) GetGasPrice(ctx context.Context) (uint64, error) { return 0, nil }

func (f *fakeReader) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeReader) GetCode(ctx context.Context, address string) (string, error) { return "0x", nil }

func (f *fakeReader) GetTransactionReceipt(ctx context.Context, txHash string) (*rpc.TransactionReceipt, error) {
	return nil, nil
}

var (
	factory = common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
	pair    = pricemath.SortTokens(
		common.HexToAddress("0x1111111111111111111111111111111111111111"),
		common.HexToAddress("0x2222222222222222222222222222222222222222"),
	)
)

func TestResolveExistingPool(t *testing.T) {
	poolAddr := common.HexToAddress("0x5555555555555555555555555555555555555555")
	reader := &fakeReader{
		result: "0x" + common.Bytes2Hex(common.BytesToHash(poolAddr.Bytes()).Bytes()),
	}
	r := NewResolver(reader, factory, nil)

	got, ok := r.Resolve(context.Background(), pair, types.Fee3000)
	if !ok {
		t.Fatal("Resolve() reported pool absent")
	}
	if got != poolAddr {
		t.Errorf("Resolve() = %s, want %s", got.Hex(), poolAddr.Hex())
	}
}

func TestResolveZeroAddressMeansAbsent(t *testing.T) {
	reader := &fakeReader{
		result: "0x0000000000000000000000000000000000000000000000000000000000000000",
	}
	r := NewResolver(reader, factory, nil)

	if _, ok := r.Resolve(context.Background(), pair, types.Fee3000); ok {
		t.Error("Resolve() should report absent for a zero pool address")
	}
}

func TestResolveRevertMeansAbsent(t *testing.T) {
	reader := &fakeReader{err: errors.New("execution reverted")}
	r := NewResolver(reader, factory, nil)

	if _, ok := r.Resolve(context.Background(), pair, types.Fee3000); ok {
		t.Error("Resolve() should report absent when the factory call reverts")
	}
}

func TestResolveShortResultMeansAbsent(t *testing.T) {
	reader := &fakeReader{result: "0x"}
	r := NewResolver(reader, factory, nil)

	if _, ok := r.Resolve(context.Background(), pair, types.Fee3000); ok {
		t.Error("Resolve() should report absent for an empty result")
	}
}
