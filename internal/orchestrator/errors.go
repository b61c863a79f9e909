package orchestrator

import (
	"errors"
	"strings"

	"github.com/tokenforge/liquidity/internal/network"
	"github.com/tokenforge/liquidity/pkg/types"
)

// ClassifiedError pairs a terminal failure with its taxonomy kind so
// callers render it without string matching of their own.
type ClassifiedError struct {
	Kind types.ErrorKind
	Err  error
}

func (e *ClassifiedError) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// classified wraps err under kind unless it is already classified.
func classified(kind types.ErrorKind, err error) error {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return err
	}
	return &ClassifiedError{Kind: kind, Err: err}
}

// Classify maps an error onto the failure taxonomy. Matching is by
// substring over the root cause's text, which is all wallet providers
// and nodes reliably give us. The wrapping layers embed call labels
// like "addLiquidityETH"; matching only the innermost message keeps
// those labels from reading as on-chain tick or liquidity reverts.
func Classify(err error) types.ErrorKind {
	if err == nil {
		return ""
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, network.ErrUnsupported) {
		return types.ErrUnsupportedNetwork
	}

	msg := strings.ToLower(rootCause(err).Error())
	switch {
	case strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied") ||
		strings.Contains(msg, "rejected by user"):
		return types.ErrUserRejected
	case strings.Contains(msg, "insufficient funds") || strings.Contains(msg, "insufficient balance"):
		return types.ErrInsufficientFunds
	case strings.Contains(msg, "tick") || strings.Contains(msg, "liquidity"):
		return types.ErrTickOrLiquidityRevert
	default:
		return types.ErrContractRevertOther
	}
}

// rootCause follows the Unwrap chain to the innermost error.
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
