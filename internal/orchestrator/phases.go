package orchestrator

import (
	"time"

	"github.com/tokenforge/liquidity/pkg/types"
)

// PhaseSink receives phase transitions as they happen. A nil sink is
// valid and drops updates. Sinks run on the orchestration goroutine and
// must not block.
type PhaseSink func(types.PhaseUpdate)

// phaseTracker holds the per-attempt three-phase snapshot and pushes
// each transition to the sink.
type phaseTracker struct {
	attemptID string
	status    types.PhaseStatus
	sink      PhaseSink
	now       func() time.Time
}

func newPhaseTracker(attemptID string, sink PhaseSink, now func() time.Time) *phaseTracker {
	if now == nil {
		now = time.Now
	}
	return &phaseTracker{
		attemptID: attemptID,
		status:    types.NewPhaseStatus(),
		sink:      sink,
		now:       now,
	}
}

func (t *phaseTracker) set(phase types.Phase, state types.PhaseState) {
	switch phase {
	case types.PhaseApprovals:
		t.status.Approvals = state
	case types.PhasePoolCreation:
		t.status.PoolCreation = state
	case types.PhasePositionMinting:
		t.status.PositionMinting = state
	}
	if t.sink != nil {
		t.sink(types.PhaseUpdate{
			AttemptID: t.attemptID,
			Phase:     phase,
			State:     state,
			Status:    t.status,
			Timestamp: t.now().UnixMilli(),
		})
	}
}

func (t *phaseTracker) snapshot() types.PhaseStatus {
	return t.status
}
