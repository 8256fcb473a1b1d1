package strategy

import (
	"context"
	"sync"

	"github.com/conclave-ai/conclave/internal/core"
)

// minCalibrationSamples is the per-strategy sample count below which
// Calibrate is a no-op, per the design note in §4.4.
const minCalibrationSamples = 5

const thresholdStep = 0.05

// strategyStat tracks outcomes for one routing strategy.
type strategyStat struct {
	successes int
	failures  int
}

func (s strategyStat) total() int { return s.successes + s.failures }

func (s strategyStat) successRate() float64 {
	if s.total() == 0 {
		return 0
	}
	return float64(s.successes) / float64(s.total())
}

// StrategyMetrics accumulates per-strategy success/failure counts used to
// calibrate the picker's thresholds over time.
type StrategyMetrics struct {
	mu    sync.Mutex
	stats map[core.RoutingStrategy]strategyStat
}

// NewStrategyMetrics returns an empty metrics accumulator.
func NewStrategyMetrics() *StrategyMetrics {
	return &StrategyMetrics{stats: make(map[core.RoutingStrategy]strategyStat)}
}

// Record registers one task outcome for strategy.
func (m *StrategyMetrics) Record(strategy core.RoutingStrategy, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats[strategy]
	if success {
		s.successes++
	} else {
		s.failures++
	}
	m.stats[strategy] = s
}

// SampleCount returns the number of outcomes recorded for strategy.
func (m *StrategyMetrics) SampleCount(strategy core.RoutingStrategy) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats[strategy].total()
}

// SuccessRate returns the observed success rate for strategy, or 0 if no
// samples have been recorded.
func (m *StrategyMetrics) SuccessRate(strategy core.RoutingStrategy) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats[strategy].successRate()
}

// Snapshot returns a copy of the accumulated per-strategy stats, keyed by
// strategy, as (successes, failures) pairs — the shape persisted by a
// MetricsStore.
func (m *StrategyMetrics) Snapshot() map[core.RoutingStrategy][2]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[core.RoutingStrategy][2]int, len(m.stats))
	for strategy, s := range m.stats {
		out[strategy] = [2]int{s.successes, s.failures}
	}
	return out
}

// Restore replaces the accumulator's state from a previously-saved
// snapshot, as returned by Snapshot.
func (m *StrategyMetrics) Restore(snapshot map[core.RoutingStrategy][2]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = make(map[core.RoutingStrategy]strategyStat, len(snapshot))
	for strategy, counts := range snapshot {
		m.stats[strategy] = strategyStat{successes: counts[0], failures: counts[1]}
	}
}

// MetricsStore persists StrategyMetrics snapshots so calibration survives
// process restarts, mirroring the storage layer's pattern of persisting
// everything that drives a routing decision.
type MetricsStore interface {
	LoadStrategyMetrics(ctx context.Context) (map[core.RoutingStrategy][2]int, error)
	SaveStrategyMetrics(ctx context.Context, snapshot map[core.RoutingStrategy][2]int) error
}

// Calibrator nudges a Picker's thresholds based on accumulated
// StrategyMetrics. It only adjusts a threshold once its governing strategy
// has at least minCalibrationSamples recorded outcomes; otherwise
// Calibrate is a no-op for that threshold.
type Calibrator struct {
	picker  *Picker
	metrics *StrategyMetrics
	store   MetricsStore
}

// NewCalibrator builds a Calibrator over picker and metrics. store may be
// nil, in which case calibration still adjusts in-memory thresholds but
// never persists or restores them.
func NewCalibrator(picker *Picker, metrics *StrategyMetrics, store MetricsStore) *Calibrator {
	return &Calibrator{picker: picker, metrics: metrics, store: store}
}

// Load restores metrics from the store, if one is configured.
func (c *Calibrator) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	snapshot, err := c.store.LoadStrategyMetrics(ctx)
	if err != nil {
		return core.ErrPersistenceFailure("strategy-metrics", err)
	}
	c.metrics.Restore(snapshot)
	return nil
}

// Persist saves the current metrics to the store, if one is configured.
func (c *Calibrator) Persist(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.SaveStrategyMetrics(ctx, c.metrics.Snapshot()); err != nil {
		return core.ErrPersistenceFailure("strategy-metrics", err)
	}
	return nil
}

// Calibrate adjusts the picker's thresholds: a consensus strategy with a
// low observed success rate raises the force-consensus confidence bar (so
// consensus fires less readily), and a high success rate lowers it; the
// same shape applies to solo vs. the prevent-consensus threshold. Each
// adjustment requires its strategy to have at least minCalibrationSamples
// recorded outcomes, per strategy, independently.
func (c *Calibrator) Calibrate() {
	thresholds := c.picker.Thresholds()

	if c.metrics.SampleCount(core.RoutingConsensus) >= minCalibrationSamples {
		thresholds.ForceConsensusConfidence = adjust(
			thresholds.ForceConsensusConfidence,
			c.metrics.SuccessRate(core.RoutingConsensus),
		)
	}
	if c.metrics.SampleCount(core.RoutingSolo) >= minCalibrationSamples {
		thresholds.PreventConsensusConfidence = adjust(
			thresholds.PreventConsensusConfidence,
			c.metrics.SuccessRate(core.RoutingSolo),
		)
	}

	c.picker.SetThresholds(thresholds)
}

// adjust nudges threshold down when the strategy it gates is succeeding
// (making it easier to trigger) and up when it's failing, clamped to
// [0.1, 0.9] so calibration can never fully disable or force-enable a
// rule.
func adjust(threshold, successRate float64) float64 {
	switch {
	case successRate >= 0.7:
		threshold -= thresholdStep
	case successRate < 0.4:
		threshold += thresholdStep
	}
	if threshold < 0.1 {
		threshold = 0.1
	}
	if threshold > 0.9 {
		threshold = 0.9
	}
	return threshold
}
