package storage

import (
	"context"

	"github.com/tokenforge/liquidity/pkg/types"
)

// Storage defines the persistence interface for provisioning attempts.
type Storage interface {
	// SaveAttempt persists a resolved attempt.
	SaveAttempt(ctx context.Context, record *types.AttemptRecord) error

	// GetAttempt returns one attempt by id, or nil if absent.
	GetAttempt(ctx context.Context, id string) (*types.AttemptRecord, error)

	// ListAttempts returns the most recent attempts, newest first.
	ListAttempts(ctx context.Context, limit, offset int) ([]*types.AttemptRecord, error)

	// Lifecycle
	Close() error
}
