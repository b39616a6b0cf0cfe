package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Cycle counters
	cyclesOK     atomic.Uint64
	cyclesFailed atomic.Uint64

	// Per-asset outcomes
	ordersSubmitted atomic.Uint64
	ordersRejected  atomic.Uint64
	ordersFailed    atomic.Uint64
	assetsSkipped   atomic.Uint64
	assetsDeferred  atomic.Uint64
	ledgerFailures  atomic.Uint64

	// Latency tracking
	cycleSumNs    atomic.Int64
	cycleCount    atomic.Uint64
	lastCycleNs   atomic.Int64
	lastCycleUnix atomic.Int64

	// Gauges
	recovering atomic.Int32 // 1 = waiting on recovery delay
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordCycle records a finished cycle with its duration.
func (m *Metrics) RecordCycle(d time.Duration, ok bool) {
	if ok {
		m.cyclesOK.Add(1)
	} else {
		m.cyclesFailed.Add(1)
	}
	m.cycleSumNs.Add(int64(d))
	m.cycleCount.Add(1)
	m.lastCycleNs.Store(int64(d))
	m.lastCycleUnix.Store(time.Now().Unix())
}

// RecordOrderSubmitted records an accepted order.
func (m *Metrics) RecordOrderSubmitted() {
	m.ordersSubmitted.Add(1)
}

// RecordOrderRejected records an order the venue refused.
func (m *Metrics) RecordOrderRejected() {
	m.ordersRejected.Add(1)
}

// RecordOrderFailed records an asset that failed for any other reason.
func (m *Metrics) RecordOrderFailed() {
	m.ordersFailed.Add(1)
}

// RecordSkipped records an asset skipped because an order already rests.
func (m *Metrics) RecordSkipped() {
	m.assetsSkipped.Add(1)
}

// RecordDeferred records an asset deferred for missing market data.
func (m *Metrics) RecordDeferred() {
	m.assetsDeferred.Add(1)
}

// RecordLedgerFailure records a trade intent that could not be persisted.
func (m *Metrics) RecordLedgerFailure() {
	m.ledgerFailures.Add(1)
}

// SetRecovering sets the supervisor state (true = recovering).
func (m *Metrics) SetRecovering(recovering bool) {
	if recovering {
		m.recovering.Store(1)
	} else {
		m.recovering.Store(0)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	CyclesOK        uint64    `json:"cycles_ok"`
	CyclesFailed    uint64    `json:"cycles_failed"`
	OrdersSubmitted uint64    `json:"orders_submitted"`
	OrdersRejected  uint64    `json:"orders_rejected"`
	OrdersFailed    uint64    `json:"orders_failed"`
	AssetsSkipped   uint64    `json:"assets_skipped"`
	AssetsDeferred  uint64    `json:"assets_deferred"`
	LedgerFailures  uint64    `json:"ledger_failures"`
	AvgCycleNs      int64     `json:"avg_cycle_ns"`
	LastCycleNs     int64     `json:"last_cycle_ns"`
	LastCycleAt     time.Time `json:"last_cycle_at"`
	Recovering      bool      `json:"recovering"`
	Timestamp       time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avg int64
	count := m.cycleCount.Load()
	if count > 0 {
		avg = m.cycleSumNs.Load() / int64(count)
	}

	var lastAt time.Time
	if unix := m.lastCycleUnix.Load(); unix > 0 {
		lastAt = time.Unix(unix, 0)
	}

	return MetricsSnapshot{
		CyclesOK:        m.cyclesOK.Load(),
		CyclesFailed:    m.cyclesFailed.Load(),
		OrdersSubmitted: m.ordersSubmitted.Load(),
		OrdersRejected:  m.ordersRejected.Load(),
		OrdersFailed:    m.ordersFailed.Load(),
		AssetsSkipped:   m.assetsSkipped.Load(),
		AssetsDeferred:  m.assetsDeferred.Load(),
		LedgerFailures:  m.ledgerFailures.Load(),
		AvgCycleNs:      avg,
		LastCycleNs:     m.lastCycleNs.Load(),
		LastCycleAt:     lastAt,
		Recovering:      m.recovering.Load() == 1,
		Timestamp:       time.Now(),
	}
}
