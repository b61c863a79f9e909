package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tokenforge/liquidity/pkg/types"
)

func TestRecordAttemptFinished(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	m.RecordAttemptStarted()
	m.RecordAttemptFinished(types.DexV3, "", 12.5)

	if got := testutil.ToFloat64(m.AttemptsTotal.WithLabelValues("v3", "success")); got != 1 {
		t.Errorf("success counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.AttemptsInFlight); got != 0 {
		t.Errorf("in-flight gauge = %v, want 0", got)
	}

	m.RecordAttemptStarted()
	m.RecordAttemptFinished(types.DexV3, types.ErrTickOrLiquidityRevert, 30)

	if got := testutil.ToFloat64(m.AttemptsTotal.WithLabelValues("v3", "failure")); got != 1 {
		t.Errorf("failure counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ErrorsTotal.WithLabelValues(string(types.ErrTickOrLiquidityRevert))); got != 1 {
		t.Errorf("error kind counter = %v, want 1", got)
	}
}

func TestRecordApprovalAndPhases(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	m.RecordApproval(types.ApprovalAlreadySufficient)
	m.RecordApproval(types.ApprovalSubmitted)
	m.RecordApproval(types.ApprovalSubmitted)
	m.RecordPhaseTransition(types.PhaseApprovals, types.PhaseComplete)
	m.RecordMintRetry()

	if got := testutil.ToFloat64(m.ApprovalsTotal.WithLabelValues("approved")); got != 2 {
		t.Errorf("approved counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ApprovalsTotal.WithLabelValues("already-sufficient")); got != 1 {
		t.Errorf("already-sufficient counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PhaseTransitions.WithLabelValues("approvals", "complete")); got != 1 {
		t.Errorf("phase transition counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.MintRetriesTotal); got != 1 {
		t.Errorf("retry counter = %v, want 1", got)
	}
}
