// Package types contains public API types for the liquidity service.
// These types form the external interface and must remain backwards-compatible.
package types

import (
	"fmt"
	"math"
	"time"
)

// DexVariant selects which exchange protocol receives the liquidity.
type DexVariant string

const (
	DexV2 DexVariant = "v2" // constant-product router
	DexV3 DexVariant = "v3" // concentrated-liquidity position manager
)

// PairingMode selects what the token is paired against.
type PairingMode string

const (
	PairNative PairingMode = "native" // wrapped-native / attached value
	PairToken  PairingMode = "token"  // arbitrary ERC-20
)

// PhaseState is the state of a single orchestration phase.
type PhaseState string

const (
	PhaseIdle     PhaseState = "idle"
	PhasePending  PhaseState = "pending"
	PhaseComplete PhaseState = "complete"
	PhaseSkipped  PhaseState = "skipped"
)

// Phase identifies one of the three orchestration phases.
type Phase string

const (
	PhaseApprovals       Phase = "approvals"
	PhasePoolCreation    Phase = "poolCreation"
	PhasePositionMinting Phase = "positionMinting"
)

// ErrorKind classifies terminal orchestration failures.
type ErrorKind string

const (
	ErrUserRejected             ErrorKind = "user-rejected"
	ErrInsufficientFunds        ErrorKind = "insufficient-funds"
	ErrGasEstimationFailed      ErrorKind = "gas-estimation-failed"
	ErrTickOrLiquidityRevert    ErrorKind = "tick-or-liquidity-revert"
	ErrUnsupportedNetwork       ErrorKind = "unsupported-network"
	ErrInvalidPairConfiguration ErrorKind = "invalid-pair-configuration"
	ErrContractRevertOther      ErrorKind = "contract-revert"
)

// ApprovalOutcome reports what EnsureAllowance did.
type ApprovalOutcome string

const (
	ApprovalAlreadySufficient ApprovalOutcome = "already-sufficient"
	ApprovalSubmitted         ApprovalOutcome = "approved"
)

// FeeTier is a concentrated-liquidity fee tier in hundredths of a bip.
type FeeTier uint32

// Supported fee tiers.
const (
	Fee100   FeeTier = 100
	Fee500   FeeTier = 500
	Fee3000  FeeTier = 3000
	Fee10000 FeeTier = 10000
)

// Valid reports whether f is one of the four supported tiers.
func (f FeeTier) Valid() bool {
	switch f {
	case Fee100, Fee500, Fee3000, Fee10000:
		return true
	}
	return false
}

// PairingToken describes the ERC-20 used on the pairing side in token mode.
type PairingToken struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
}

// LiquidityRequest is the API request to provision liquidity for a token.
// Amounts are decimal strings in the smallest unit of each token.
type LiquidityRequest struct {
	TokenAddress  string        `json:"tokenAddress"`
	PairingMode   PairingMode   `json:"pairingMode"`
	PairingToken  *PairingToken `json:"pairingToken,omitempty"` // required in token mode
	TokenAmount   string        `json:"tokenAmount"`
	PairingAmount string        `json:"pairingAmount"`
	Slippage      float64       `json:"slippage"` // fraction in [0, 1]
	Dex           DexVariant    `json:"dex"`
	FeeTier       FeeTier       `json:"feeTier,omitempty"` // v3 only
}

// Validate rejects invalid request states before any chain call is made.
func (r *LiquidityRequest) Validate() error {
	if r.TokenAddress == "" {
		return fmt.Errorf("tokenAddress is required")
	}
	switch r.PairingMode {
	case PairNative:
	case PairToken:
		if r.PairingToken == nil || r.PairingToken.Address == "" {
			return fmt.Errorf("pairingToken is required when pairingMode is %q", PairToken)
		}
	default:
		return fmt.Errorf("invalid pairingMode: %q", r.PairingMode)
	}
	if r.TokenAmount == "" || r.PairingAmount == "" {
		return fmt.Errorf("tokenAmount and pairingAmount are required")
	}
	if math.IsNaN(r.Slippage) || math.IsInf(r.Slippage, 0) || r.Slippage < 0 || r.Slippage > 1 {
		return fmt.Errorf("slippage must be in [0, 1], got %v", r.Slippage)
	}
	switch r.Dex {
	case DexV2:
	case DexV3:
		if !r.FeeTier.Valid() {
			return fmt.Errorf("invalid feeTier: %d (valid: 100, 500, 3000, 10000)", r.FeeTier)
		}
	default:
		return fmt.Errorf("invalid dex variant: %q", r.Dex)
	}
	return nil
}

// PhaseStatus is the three-phase progress snapshot for one attempt.
// Created fresh per attempt and discarded once the attempt resolves.
type PhaseStatus struct {
	Approvals       PhaseState `json:"approvals"`
	PoolCreation    PhaseState `json:"poolCreation"`
	PositionMinting PhaseState `json:"positionMinting"`
}

// NewPhaseStatus returns a status with every phase idle.
func NewPhaseStatus() PhaseStatus {
	return PhaseStatus{
		Approvals:       PhaseIdle,
		PoolCreation:    PhaseIdle,
		PositionMinting: PhaseIdle,
	}
}

// PhaseUpdate is a single phase transition, streamed to observers.
type PhaseUpdate struct {
	AttemptID string      `json:"attemptId"`
	Phase     Phase       `json:"phase"`
	State     PhaseState  `json:"state"`
	Status    PhaseStatus `json:"status"` // full snapshot after the transition
	Timestamp int64       `json:"timestamp"` // Unix milliseconds
}

// LiquidityResult is produced once per successful attempt; immutable.
type LiquidityResult struct {
	TxHash     string `json:"txHash"`
	PositionID string `json:"positionId,omitempty"` // v3 mints only, when the mint event was found
}

// AttemptRecord is a persisted provisioning attempt.
type AttemptRecord struct {
	ID            string      `json:"id"`
	StartedAt     time.Time   `json:"startedAt"`
	CompletedAt   time.Time   `json:"completedAt"`
	ChainID       int64       `json:"chainId"`
	Dex           DexVariant  `json:"dex"`
	TokenAddress  string      `json:"tokenAddress"`
	PairingMode   PairingMode `json:"pairingMode"`
	TokenAmount   string      `json:"tokenAmount"`
	PairingAmount string      `json:"pairingAmount"`
	FeeTier       FeeTier     `json:"feeTier,omitempty"`
	TxHash        string      `json:"txHash,omitempty"`
	PositionID    string      `json:"positionId,omitempty"`
	Phases        PhaseStatus `json:"phases"`
	ErrorKind     ErrorKind   `json:"errorKind,omitempty"`
	ErrorMessage  string      `json:"errorMessage,omitempty"`
}
