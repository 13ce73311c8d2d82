package session

import (
	"sync/atomic"
	"time"
)

// Metrics counts drain passes across all sessions of a registry.
// Counters are atomic so a viewer goroutine may snapshot them while the
// event loop updates them.
type Metrics struct {
	recomputeTicks     atomic.Uint64
	recomputeTotalNs   atomic.Int64
	positionsProcessed atomic.Uint64

	redrawTicks   atomic.Uint64
	redrawTotalNs atomic.Int64
	pairsPainted  atomic.Uint64

	paletteSwitches atomic.Uint64
	suspensions     atomic.Uint64
	crossings       atomic.Int64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordRecompute records one recompute tick.
func (m *Metrics) RecordRecompute(duration time.Duration, processed int) {
	m.recomputeTicks.Add(1)
	m.recomputeTotalNs.Add(duration.Nanoseconds())
	m.positionsProcessed.Add(uint64(processed))
}

// RecordRedraw records one redraw tick that painted pairs.
func (m *Metrics) RecordRedraw(duration time.Duration, painted int) {
	m.redrawTicks.Add(1)
	m.redrawTotalNs.Add(duration.Nanoseconds())
	m.pairsPainted.Add(uint64(painted))
}

// RecordPaletteSwitch records a light/dark palette change.
func (m *Metrics) RecordPaletteSwitch() {
	m.paletteSwitches.Add(1)
}

// RecordSuspension records a timer cancelling itself for an inactive
// document.
func (m *Metrics) RecordSuspension() {
	m.suspensions.Add(1)
}

// SetCrossings stores the latest count of overlapping, non-nested ranges.
func (m *Metrics) SetCrossings(n int) {
	m.crossings.Store(int64(n))
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	recomputes := m.recomputeTicks.Load()
	redraws := m.redrawTicks.Load()

	var avgRecompute, avgRedraw time.Duration
	if recomputes > 0 {
		avgRecompute = time.Duration(m.recomputeTotalNs.Load() / int64(recomputes))
	}
	if redraws > 0 {
		avgRedraw = time.Duration(m.redrawTotalNs.Load() / int64(redraws))
	}

	return MetricsSnapshot{
		RecomputeTicks:     recomputes,
		AvgRecompute:       avgRecompute,
		PositionsProcessed: m.positionsProcessed.Load(),
		RedrawTicks:        redraws,
		AvgRedraw:          avgRedraw,
		PairsPainted:       m.pairsPainted.Load(),
		PaletteSwitches:    m.paletteSwitches.Load(),
		Suspensions:        m.suspensions.Load(),
		Crossings:          int(m.crossings.Load()),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.recomputeTicks.Store(0)
	m.recomputeTotalNs.Store(0)
	m.positionsProcessed.Store(0)
	m.redrawTicks.Store(0)
	m.redrawTotalNs.Store(0)
	m.pairsPainted.Store(0)
	m.paletteSwitches.Store(0)
	m.suspensions.Store(0)
	m.crossings.Store(0)
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	RecomputeTicks     uint64
	AvgRecompute       time.Duration
	PositionsProcessed uint64
	RedrawTicks        uint64
	AvgRedraw          time.Duration
	PairsPainted       uint64
	PaletteSwitches    uint64
	Suspensions        uint64
	Crossings          int
}
