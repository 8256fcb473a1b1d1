package strategy

import (
	"context"
	"testing"

	"github.com/conclave-ai/conclave/internal/core"
)

func TestStrategyMetrics_SuccessRate(t *testing.T) {
	m := NewStrategyMetrics()
	m.Record(core.RoutingConsensus, true)
	m.Record(core.RoutingConsensus, true)
	m.Record(core.RoutingConsensus, false)

	if got := m.SampleCount(core.RoutingConsensus); got != 3 {
		t.Fatalf("expected 3 samples, got %d", got)
	}
	want := 2.0 / 3.0
	if got := m.SuccessRate(core.RoutingConsensus); got != want {
		t.Fatalf("expected success rate %v, got %v", want, got)
	}
}

func TestStrategyMetrics_SnapshotRoundtrip(t *testing.T) {
	m := NewStrategyMetrics()
	m.Record(core.RoutingSolo, true)
	m.Record(core.RoutingConsensus, false)

	snap := m.Snapshot()
	restored := NewStrategyMetrics()
	restored.Restore(snap)

	if restored.SampleCount(core.RoutingSolo) != 1 {
		t.Fatalf("expected restored solo sample count 1, got %d", restored.SampleCount(core.RoutingSolo))
	}
	if restored.SuccessRate(core.RoutingConsensus) != 0 {
		t.Fatalf("expected restored consensus success rate 0, got %v", restored.SuccessRate(core.RoutingConsensus))
	}
}

func TestCalibrate_NoOpBelowMinimumSamples(t *testing.T) {
	picker := NewPicker(nil)
	before := picker.Thresholds()
	metrics := NewStrategyMetrics()
	for i := 0; i < minCalibrationSamples-1; i++ {
		metrics.Record(core.RoutingConsensus, false)
	}
	cal := NewCalibrator(picker, metrics, nil)

	cal.Calibrate()
	after := picker.Thresholds()
	if before != after {
		t.Fatalf("expected thresholds unchanged below minimum samples, got %+v", after)
	}
}

func TestCalibrate_RaisesThresholdOnLowSuccessRate(t *testing.T) {
	picker := NewPicker(nil)
	before := picker.Thresholds().ForceConsensusConfidence
	metrics := NewStrategyMetrics()
	for i := 0; i < minCalibrationSamples; i++ {
		metrics.Record(core.RoutingConsensus, false)
	}
	cal := NewCalibrator(picker, metrics, nil)

	cal.Calibrate()
	after := picker.Thresholds().ForceConsensusConfidence
	if after <= before {
		t.Fatalf("expected force-consensus threshold to rise on a poor consensus success rate: before=%v after=%v", before, after)
	}
}

func TestCalibrate_LowersThresholdOnHighSuccessRate(t *testing.T) {
	picker := NewPicker(nil)
	before := picker.Thresholds().PreventConsensusConfidence
	metrics := NewStrategyMetrics()
	for i := 0; i < minCalibrationSamples; i++ {
		metrics.Record(core.RoutingSolo, true)
	}
	cal := NewCalibrator(picker, metrics, nil)

	cal.Calibrate()
	after := picker.Thresholds().PreventConsensusConfidence
	if after >= before {
		t.Fatalf("expected prevent-consensus threshold to fall on a strong solo success rate: before=%v after=%v", before, after)
	}
}

type fakeMetricsStore struct {
	saved   map[core.RoutingStrategy][2]int
	loadErr error
	saveErr error
}

func (f *fakeMetricsStore) LoadStrategyMetrics(ctx context.Context) (map[core.RoutingStrategy][2]int, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.saved, nil
}

func (f *fakeMetricsStore) SaveStrategyMetrics(ctx context.Context, snapshot map[core.RoutingStrategy][2]int) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = snapshot
	return nil
}

func TestCalibrator_PersistAndLoadRoundtrip(t *testing.T) {
	picker := NewPicker(nil)
	metrics := NewStrategyMetrics()
	metrics.Record(core.RoutingConsensus, true)
	store := &fakeMetricsStore{}
	cal := NewCalibrator(picker, metrics, store)

	if err := cal.Persist(context.Background()); err != nil {
		t.Fatalf("unexpected error persisting: %v", err)
	}

	restoredMetrics := NewStrategyMetrics()
	restoredCal := NewCalibrator(picker, restoredMetrics, store)
	if err := restoredCal.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error loading: %v", err)
	}
	if restoredMetrics.SampleCount(core.RoutingConsensus) != 1 {
		t.Fatalf("expected loaded metrics to carry over the recorded sample")
	}
}

func TestCalibrator_NilStoreIsNoOp(t *testing.T) {
	picker := NewPicker(nil)
	metrics := NewStrategyMetrics()
	cal := NewCalibrator(picker, metrics, nil)

	if err := cal.Load(context.Background()); err != nil {
		t.Fatalf("expected nil store Load to be a no-op, got %v", err)
	}
	if err := cal.Persist(context.Background()); err != nil {
		t.Fatalf("expected nil store Persist to be a no-op, got %v", err)
	}
}
