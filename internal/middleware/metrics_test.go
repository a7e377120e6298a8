package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/wolfitem/newshub/internal/domain/model"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetricsCollector()

	m.RecordRun(100*time.Millisecond, nil)
	m.RecordRun(300*time.Millisecond, nil)
	m.RecordRun(0, errors.New("失败"))
	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordSummary(model.StatusOK)
	m.RecordSummary(model.StatusFallback)
	m.RecordSummary(model.StatusFallback)
	m.RecordSummary(model.StatusEmpty)

	snap := m.Snapshot()

	if snap.Runs != 3 || snap.RunFailures != 1 {
		t.Errorf("runs/failures = %d/%d, want 3/1", snap.Runs, snap.RunFailures)
	}
	if snap.AvgRunMs != 200 {
		t.Errorf("avgRunMs = %d, want 200 over successful runs only", snap.AvgRunMs)
	}
	if snap.CacheHits != 3 || snap.CacheMisses != 1 {
		t.Errorf("cache hits/misses = %d/%d", snap.CacheHits, snap.CacheMisses)
	}
	if snap.CacheHitRate != 0.75 {
		t.Errorf("cacheHitRate = %v, want 0.75", snap.CacheHitRate)
	}
	if snap.SummaryOK != 1 || snap.SummaryFallback != 2 || snap.SummaryEmpty != 1 {
		t.Errorf("summary counters = %d/%d/%d", snap.SummaryOK, snap.SummaryFallback, snap.SummaryEmpty)
	}
}

func TestMetricsRunSamplesBounded(t *testing.T) {
	m := NewMetricsCollector()

	for i := 0; i < maxRunSamples*3; i++ {
		m.RecordRun(10*time.Millisecond, nil)
	}
	if got := len(m.runDurations); got != maxRunSamples {
		t.Fatalf("retained %d duration samples, want %d", got, maxRunSamples)
	}

	// 继续记录足以填满整个窗口的新样本，均值应只反映近期窗口
	for i := 0; i < maxRunSamples; i++ {
		m.RecordRun(30*time.Millisecond, nil)
	}
	if got := len(m.runDurations); got != maxRunSamples {
		t.Errorf("retained %d duration samples after refill, want %d", got, maxRunSamples)
	}
	if snap := m.Snapshot(); snap.AvgRunMs != 30 {
		t.Errorf("avgRunMs = %d, want 30 over the recent window only", snap.AvgRunMs)
	}
}

func TestMetricsEmptySnapshot(t *testing.T) {
	snap := NewMetricsCollector().Snapshot()
	if snap.CacheHitRate != 0 {
		t.Errorf("cacheHitRate = %v, want 0 without traffic", snap.CacheHitRate)
	}
	if snap.AvgRunMs != 0 {
		t.Errorf("avgRunMs = %d, want 0 without runs", snap.AvgRunMs)
	}
}
