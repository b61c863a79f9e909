// Package dex encodes the contract calls made while provisioning
// liquidity: ERC-20 reads/approvals, the constant-product router's
// add-liquidity variants, and the concentrated-liquidity factory and
// position-manager operations.
package dex

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Function selectors (first 4 bytes of keccak256(signature))
var (
	// ERC20 selectors
	SelectorApprove   = selector("approve(address,uint256)")
	SelectorAllowance = selector("allowance(address,address)")
	SelectorBalanceOf = selector("balanceOf(address)")

	// Constant-product router selectors
	SelectorAddLiquidity    = selector("addLiquidity(address,address,uint256,uint256,uint256,uint256,address,uint256)")
	SelectorAddLiquidityETH = selector("addLiquidityETH(address,uint256,uint256,uint256,address,uint256)")

	// Pool factory selectors
	SelectorGetPool = selector("getPool(address,address,uint24)")

	// Position manager selectors
	SelectorCreateAndInitialize = selector("createAndInitializePoolIfNecessary(address,address,uint24,uint160)")
	SelectorMintPosition        = selector("mint((address,address,uint24,int24,int24,uint256,uint256,uint256,uint256,address,uint256))")
	SelectorMulticall           = selector("multicall(bytes[])")
)

// selector computes the 4-byte function selector from signature.
func selector(sig string) []byte {
	return crypto.Keccak256([]byte(sig))[:4]
}

// EncodeApprove encodes ERC20.approve(address,uint256).
func EncodeApprove(spender common.Address, amount *big.Int) []byte {
	data := make([]byte, 4+32+32)
	copy(data[:4], SelectorApprove)
	copy(data[4+12:36], spender.Bytes())
	amount.FillBytes(data[36:68])
	return data
}

// EncodeAllowance encodes ERC20.allowance(address,address).
func EncodeAllowance(owner, spender common.Address) []byte {
	data := make([]byte, 4+32+32)
	copy(data[:4], SelectorAllowance)
	copy(data[4+12:36], owner.Bytes())
	copy(data[36+12:68], spender.Bytes())
	return data
}

// EncodeBalanceOf encodes ERC20.balanceOf(address).
func EncodeBalanceOf(account common.Address) []byte {
	data := make([]byte, 4+32)
	copy(data[:4], SelectorBalanceOf)
	copy(data[4+12:36], account.Bytes())
	return data
}

// EncodeGetPool encodes Factory.getPool(address,address,uint24).
func EncodeGetPool(token0, token1 common.Address, fee uint32) []byte {
	data := make([]byte, 4+32+32+32)
	copy(data[:4], SelectorGetPool)
	copy(data[4+12:36], token0.Bytes())
	copy(data[36+12:68], token1.Bytes())
	big.NewInt(int64(fee)).FillBytes(data[68:100])
	return data
}

// EncodeCreateAndInitialize encodes
// PositionManager.createAndInitializePoolIfNecessary(address,address,uint24,uint160).
// The call creates the pool when absent and initializes it at the given
// price; it is a no-op on an already-initialized pool.
func EncodeCreateAndInitialize(token0, token1 common.Address, fee uint32, sqrtPriceX96 *big.Int) []byte {
	data := make([]byte, 4+4*32)
	copy(data[:4], SelectorCreateAndInitialize)
	copy(data[4+12:36], token0.Bytes())
	copy(data[36+12:68], token1.Bytes())
	big.NewInt(int64(fee)).FillBytes(data[68:100])
	sqrtPriceX96.FillBytes(data[100:132])
	return data
}

// MintParams holds parameters for PositionManager.mint.
type MintParams struct {
	Token0         common.Address
	Token1         common.Address
	Fee            uint32
	TickLower      int32
	TickUpper      int32
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Recipient      common.Address
	Deadline       *big.Int
}

// EncodeMintPosition encodes PositionManager.mint(...).
// The params struct has all static types, so fields are encoded directly
// with no offset pointer.
func EncodeMintPosition(params MintParams) []byte {
	data := make([]byte, 4+11*32)
	copy(data[:4], SelectorMintPosition)

	offset := 4
	copy(data[offset+12:offset+32], params.Token0.Bytes())
	offset += 32
	copy(data[offset+12:offset+32], params.Token1.Bytes())
	offset += 32
	big.NewInt(int64(params.Fee)).FillBytes(data[offset : offset+32])
	offset += 32
	encodeInt24(data[offset:offset+32], params.TickLower)
	offset += 32
	encodeInt24(data[offset:offset+32], params.TickUpper)
	offset += 32
	params.Amount0Desired.FillBytes(data[offset : offset+32])
	offset += 32
	params.Amount1Desired.FillBytes(data[offset : offset+32])
	offset += 32
	params.Amount0Min.FillBytes(data[offset : offset+32])
	offset += 32
	params.Amount1Min.FillBytes(data[offset : offset+32])
	offset += 32
	copy(data[offset+12:offset+32], params.Recipient.Bytes())
	offset += 32
	params.Deadline.FillBytes(data[offset : offset+32])

	return data
}

// encodeInt24 writes a tick as an int256 word (two's complement for
// negative values).
func encodeInt24(dst []byte, tick int32) {
	v := big.NewInt(int64(tick))
	if tick < 0 {
		v.Add(v, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	v.FillBytes(dst)
}

// EncodeMulticall encodes PositionManager.multicall(bytes[]), batching the
// given calls into one atomic transaction.
func EncodeMulticall(calls [][]byte) []byte {
	// Head: offset to the array. Array: length word, then one offset word
	// per element, then each element as length + right-padded content.
	total := 4 + 32 + 32 + 32*len(calls)
	for _, call := range calls {
		total += 32 + pad32(len(call))
	}
	data := make([]byte, total)
	copy(data[:4], SelectorMulticall)
	big.NewInt(32).FillBytes(data[4:36])
	big.NewInt(int64(len(calls))).FillBytes(data[36:68])

	// Element offsets are relative to the start of the array data (after
	// the length word).
	elemOffset := 32 * len(calls)
	pos := 68
	for _, call := range calls {
		big.NewInt(int64(elemOffset)).FillBytes(data[pos : pos+32])
		pos += 32
		elemOffset += 32 + pad32(len(call))
	}
	for _, call := range calls {
		big.NewInt(int64(len(call))).FillBytes(data[pos : pos+32])
		pos += 32
		copy(data[pos:], call)
		pos += pad32(len(call))
	}
	return data
}

func pad32(n int) int {
	return (n + 31) / 32 * 32
}

// AddLiquidityParams holds parameters for Router.addLiquidity.
type AddLiquidityParams struct {
	TokenA         common.Address
	TokenB         common.Address
	AmountADesired *big.Int
	AmountBDesired *big.Int
	AmountAMin     *big.Int
	AmountBMin     *big.Int
	Recipient      common.Address
	Deadline       *big.Int
}

// EncodeAddLiquidity encodes Router.addLiquidity(...) for a token/token pair.
func EncodeAddLiquidity(p AddLiquidityParams) []byte {
	data := make([]byte, 4+8*32)
	copy(data[:4], SelectorAddLiquidity)

	offset := 4
	copy(data[offset+12:offset+32], p.TokenA.Bytes())
	offset += 32
	copy(data[offset+12:offset+32], p.TokenB.Bytes())
	offset += 32
	p.AmountADesired.FillBytes(data[offset : offset+32])
	offset += 32
	p.AmountBDesired.FillBytes(data[offset : offset+32])
	offset += 32
	p.AmountAMin.FillBytes(data[offset : offset+32])
	offset += 32
	p.AmountBMin.FillBytes(data[offset : offset+32])
	offset += 32
	copy(data[offset+12:offset+32], p.Recipient.Bytes())
	offset += 32
	p.Deadline.FillBytes(data[offset : offset+32])

	return data
}

// AddLiquidityETHParams holds parameters for Router.addLiquidityETH.
// The native-side amount travels as the transaction value.
type AddLiquidityETHParams struct {
	Token          common.Address
	AmountDesired  *big.Int
	AmountTokenMin *big.Int
	AmountETHMin   *big.Int
	Recipient      common.Address
	Deadline       *big.Int
}

// EncodeAddLiquidityETH encodes Router.addLiquidityETH(...).
func EncodeAddLiquidityETH(p AddLiquidityETHParams) []byte {
	data := make([]byte, 4+6*32)
	copy(data[:4], SelectorAddLiquidityETH)

	offset := 4
	copy(data[offset+12:offset+32], p.Token.Bytes())
	offset += 32
	p.AmountDesired.FillBytes(data[offset : offset+32])
	offset += 32
	p.AmountTokenMin.FillBytes(data[offset : offset+32])
	offset += 32
	p.AmountETHMin.FillBytes(data[offset : offset+32])
	offset += 32
	copy(data[offset+12:offset+32], p.Recipient.Bytes())
	offset += 32
	p.Deadline.FillBytes(data[offset : offset+32])

	return data
}
