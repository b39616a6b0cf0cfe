package infra

import (
	"testing"
	"time"
)

func TestMetrics_RecordCycle(t *testing.T) {
	m := &Metrics{}

	m.RecordCycle(1*time.Second, true)
	m.RecordCycle(2*time.Second, true)
	m.RecordCycle(3*time.Second, false)

	snap := m.Snapshot()

	if snap.CyclesOK != 2 {
		t.Errorf("Expected 2 successful cycles, got %d", snap.CyclesOK)
	}
	if snap.CyclesFailed != 1 {
		t.Errorf("Expected 1 failed cycle, got %d", snap.CyclesFailed)
	}

	// Average: (1s + 2s + 3s) / 3 = 2s
	if snap.AvgCycleNs != int64(2*time.Second) {
		t.Errorf("Expected avg 2s, got %d", snap.AvgCycleNs)
	}
	if snap.LastCycleNs != int64(3*time.Second) {
		t.Errorf("Expected last cycle 3s, got %d", snap.LastCycleNs)
	}
	if snap.LastCycleAt.IsZero() {
		t.Error("Expected last cycle timestamp")
	}
}

func TestMetrics_AssetOutcomes(t *testing.T) {
	m := &Metrics{}

	m.RecordOrderSubmitted()
	m.RecordOrderSubmitted()
	m.RecordOrderRejected()
	m.RecordOrderFailed()
	m.RecordSkipped()
	m.RecordDeferred()
	m.RecordLedgerFailure()

	snap := m.Snapshot()
	if snap.OrdersSubmitted != 2 {
		t.Errorf("Expected 2 submitted, got %d", snap.OrdersSubmitted)
	}
	if snap.OrdersRejected != 1 || snap.OrdersFailed != 1 {
		t.Errorf("Unexpected failure counters: %+v", snap)
	}
	if snap.AssetsSkipped != 1 || snap.AssetsDeferred != 1 || snap.LedgerFailures != 1 {
		t.Errorf("Unexpected asset counters: %+v", snap)
	}
}

func TestMetrics_Recovering(t *testing.T) {
	m := &Metrics{}

	snap := m.Snapshot()
	if snap.Recovering {
		t.Error("Expected running state initially")
	}

	m.SetRecovering(true)
	snap = m.Snapshot()
	if !snap.Recovering {
		t.Error("Expected recovering")
	}

	m.SetRecovering(false)
	snap = m.Snapshot()
	if snap.Recovering {
		t.Error("Expected running")
	}
}
