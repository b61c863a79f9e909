// Package service ties the orchestrator, persistence, and metrics
// together behind the API surface the transports expose.
package service

import (
	"context"
	"log/slog"

	"github.com/tokenforge/liquidity/internal/metrics"
	"github.com/tokenforge/liquidity/internal/orchestrator"
	"github.com/tokenforge/liquidity/internal/storage"
	"github.com/tokenforge/liquidity/pkg/types"
)

// Provisioner is what the service needs from the orchestrator.
type Provisioner interface {
	AddLiquidity(ctx context.Context, chainID int64, req types.LiquidityRequest, sink orchestrator.PhaseSink) *orchestrator.Attempt
}

// Service runs provisioning attempts against one chain, persists every
// resolved attempt, and keeps the Prometheus metrics current.
type Service struct {
	orch    Provisioner
	store   storage.Storage
	metrics *metrics.PrometheusMetrics
	chainID int64
	logger  *slog.Logger
}

// New creates a service. metrics may be nil when instrumentation is not
// wanted (tests, the MCP binary).
func New(orch Provisioner, store storage.Storage, m *metrics.PrometheusMetrics, chainID int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		orch:    orch,
		store:   store,
		metrics: m,
		chainID: chainID,
		logger:  logger,
	}
}

// Provision runs one liquidity attempt end to end. Phase transitions
// are forwarded to sink as they happen; sink may be nil. The resolved
// record is persisted and returned even when the attempt failed — the
// error outcome lives in the record's ErrorKind.
func (s *Service) Provision(ctx context.Context, req types.LiquidityRequest, sink func(types.PhaseUpdate)) (*types.AttemptRecord, error) {
	if s.metrics != nil {
		s.metrics.RecordAttemptStarted()
	}

	wrapped := func(u types.PhaseUpdate) {
		if s.metrics != nil {
			s.metrics.RecordPhaseTransition(u.Phase, u.State)
		}
		if sink != nil {
			sink(u)
		}
	}

	attempt := s.orch.AddLiquidity(ctx, s.chainID, req, wrapped)
	record := recordFromAttempt(attempt, s.chainID, req)

	if s.metrics != nil {
		s.metrics.RecordAttemptFinished(req.Dex, record.ErrorKind, attempt.CompletedAt.Sub(attempt.StartedAt).Seconds())
		for _, outcome := range attempt.Approvals {
			s.metrics.RecordApproval(outcome)
		}
		if attempt.GasUsed > 0 {
			s.metrics.RecordGasUsed(req.Dex, attempt.GasUsed)
		}
		if attempt.MintRetried {
			s.metrics.RecordMintRetry()
		}
	}

	if err := s.store.SaveAttempt(ctx, record); err != nil {
		// The attempt itself already resolved on chain; losing the
		// record is logged but not surfaced as an attempt failure.
		s.logger.Error("failed to persist attempt",
			slog.String("attemptId", record.ID),
			slog.String("error", err.Error()),
		)
	}

	return record, nil
}

// GetAttempt returns one persisted attempt, or nil if absent.
func (s *Service) GetAttempt(ctx context.Context, id string) (*types.AttemptRecord, error) {
	return s.store.GetAttempt(ctx, id)
}

// ListAttempts returns persisted attempts, newest first.
func (s *Service) ListAttempts(ctx context.Context, limit, offset int) ([]*types.AttemptRecord, error) {
	return s.store.ListAttempts(ctx, limit, offset)
}

func recordFromAttempt(attempt *orchestrator.Attempt, chainID int64, req types.LiquidityRequest) *types.AttemptRecord {
	record := &types.AttemptRecord{
		ID:            attempt.ID,
		StartedAt:     attempt.StartedAt,
		CompletedAt:   attempt.CompletedAt,
		ChainID:       chainID,
		Dex:           req.Dex,
		TokenAddress:  req.TokenAddress,
		PairingMode:   req.PairingMode,
		TokenAmount:   req.TokenAmount,
		PairingAmount: req.PairingAmount,
		FeeTier:       req.FeeTier,
		Phases:        attempt.Phases,
	}
	if attempt.Result != nil {
		record.TxHash = attempt.Result.TxHash
		record.PositionID = attempt.Result.PositionID
	}
	if attempt.Err != nil {
		record.ErrorKind = orchestrator.Classify(attempt.Err)
		record.ErrorMessage = attempt.Err.Error()
	}
	return record
}
