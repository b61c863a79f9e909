// Package wallet signs and submits transactions for the operator account
// and waits for their receipts.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/tokenforge/liquidity/internal/account"
	"github.com/tokenforge/liquidity/internal/rpc"
)

// ErrReverted is wrapped into the error returned when a mined
// transaction has receipt status 0.
var ErrReverted = errors.New("transaction reverted")

// ErrReceiptTimeout is wrapped into the error returned when no receipt
// appears within the configured timeout.
var ErrReceiptTimeout = errors.New("timed out waiting for receipt")

// Call describes one contract call to submit.
type Call struct {
	To    common.Address
	Data  []byte
	Value *big.Int // nil means zero
	Gas   uint64   // required for SubmitAndWait
	Name  string   // short label for logs and errors
}

// Wallet signs, submits and confirms transactions sequentially.
type Wallet interface {
	// Address returns the operator address.
	Address() common.Address

	// EstimateGas simulates the call and returns the node's gas estimate.
	EstimateGas(ctx context.Context, call Call) (uint64, error)

	// SubmitAndWait signs the call, submits it, and blocks until the
	// receipt is available. A mined-but-reverted transaction is an error
	// wrapping ErrReverted.
	SubmitAndWait(ctx context.Context, call Call) (*rpc.TransactionReceipt, error)
}

// Config holds settings for the key-backed wallet.
type Config struct {
	ChainID        *big.Int
	UseLegacyTxs   bool          // legacy gas pricing instead of EIP-1559
	ReceiptTimeout time.Duration // how long to poll before giving up
	Logger         *slog.Logger
}

// KeyWallet implements Wallet with a local private key.
type KeyWallet struct {
	acct           *account.Account
	client         rpc.Client
	chainID        *big.Int
	useLegacy      bool
	receiptTimeout time.Duration
	logger         *slog.Logger
}

// NewKeyWallet creates a wallet around the operator account. The local
// nonce is synced from the chain on first submission.
func NewKeyWallet(acct *account.Account, client rpc.Client, cfg Config) *KeyWallet {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.ReceiptTimeout
	if timeout == 0 {
		timeout = 90 * time.Second
	}
	return &KeyWallet{
		acct:           acct,
		client:         client,
		chainID:        cfg.ChainID,
		useLegacy:      cfg.UseLegacyTxs,
		receiptTimeout: timeout,
		logger:         logger,
	}
}

// Address returns the operator address.
func (w *KeyWallet) Address() common.Address {
	return w.acct.Address
}

// EstimateGas simulates the call via the node.
func (w *KeyWallet) EstimateGas(ctx context.Context, call Call) (uint64, error) {
	return w.client.EstimateGas(ctx, w.acct.Address.Hex(), call.To.Hex(), call.Data, call.Value)
}

// SubmitAndWait signs, submits and confirms one call.
func (w *KeyWallet) SubmitAndWait(ctx context.Context, call Call) (*rpc.TransactionReceipt, error) {
	if call.Gas == 0 {
		return nil, fmt.Errorf("%s: gas limit not set", call.Name)
	}
	value := call.Value
	if value == nil {
		value = big.NewInt(0)
	}

	if err := w.acct.Resync(ctx, w.client); err != nil {
		return nil, fmt.Errorf("resync nonce: %w", err)
	}

	gasPrice, err := w.client.GetGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get gas price: %w", err)
	}

	n := w.acct.ReserveNonce()
	defer n.Rollback()

	to := call.To
	var tx *ethtypes.Transaction
	if w.useLegacy {
		tx = ethtypes.NewTx(&ethtypes.LegacyTx{
			Nonce:    n.Value(),
			GasPrice: new(big.Int).SetUint64(gasPrice),
			Gas:      call.Gas,
			To:       &to,
			Value:    value,
			Data:     call.Data,
		})
	} else {
		tx = ethtypes.NewTx(&ethtypes.DynamicFeeTx{
			ChainID:   w.chainID,
			Nonce:     n.Value(),
			GasTipCap: big.NewInt(0),
			GasFeeCap: new(big.Int).SetUint64(gasPrice),
			Gas:       call.Gas,
			To:        &to,
			Value:     value,
			Data:      call.Data,
		})
	}

	signer := ethtypes.LatestSignerForChainID(w.chainID)
	signedTx, err := ethtypes.SignTx(tx, signer, w.acct.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}

	rlp, err := signedTx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal tx: %w", err)
	}

	if err := w.client.SendRawTransaction(ctx, rlp); err != nil {
		return nil, fmt.Errorf("send raw tx: %w", err)
	}
	n.Commit()

	txHash := signedTx.Hash().Hex()
	w.logger.Debug("tx submitted",
		slog.String("name", call.Name),
		slog.String("txHash", txHash),
		slog.Uint64("gas", call.Gas),
	)

	return w.waitForReceipt(ctx, call.Name, txHash)
}

// waitForReceipt polls until the transaction is mined or the timeout hits.
func (w *KeyWallet) waitForReceipt(ctx context.Context, name, txHash string) (*rpc.TransactionReceipt, error) {
	timeout := time.After(w.receiptTimeout)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			return nil, fmt.Errorf("%s tx (txHash: %s): %w", name, txHash, ErrReceiptTimeout)
		case <-ticker.C:
			receipt, err := w.client.GetTransactionReceipt(ctx, txHash)
			if err != nil {
				continue
			}
			if receipt != nil {
				if receipt.TxHash == "" {
					receipt.TxHash = txHash
				}
				if receipt.Status == 0 {
					return receipt, fmt.Errorf("%s tx failed (status=0, gasUsed=%d, txHash=%s): %w",
						name, receipt.GasUsed, txHash, ErrReverted)
				}
				w.logger.Debug("tx confirmed",
					slog.String("name", name),
					slog.String("txHash", txHash),
					slog.Uint64("gasUsed", receipt.GasUsed),
				)
				return receipt, nil
			}
		}
	}
}
