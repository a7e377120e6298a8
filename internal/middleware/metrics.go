package middleware

import (
	"sync"
	"time"

	"github.com/wolfitem/newshub/internal/domain/model"
)

// 耗时样本保留的最大数量，超出后丢弃最旧样本
const maxRunSamples = 256

// MetricsCollector 收集流水线运行指标
type MetricsCollector struct {
	mu sync.RWMutex

	startTime time.Time

	// 流水线运行统计
	runs         int64
	runFailures  int64
	runDurations []time.Duration

	// 缓存统计
	cacheHits   int64
	cacheMisses int64

	// 摘要结果统计
	summaryOK       int64
	summaryFallback int64
	summaryEmpty    int64
}

// MetricsSnapshot 是对外暴露的指标快照
type MetricsSnapshot struct {
	UptimeSeconds   int64   `json:"uptimeSeconds"`
	Runs            int64   `json:"runs"`
	RunFailures     int64   `json:"runFailures"`
	AvgRunMs        int64   `json:"avgRunMs"`
	CacheHits       int64   `json:"cacheHits"`
	CacheMisses     int64   `json:"cacheMisses"`
	CacheHitRate    float64 `json:"cacheHitRate"`
	SummaryOK       int64   `json:"summaryOk"`
	SummaryFallback int64   `json:"summaryFallback"`
	SummaryEmpty    int64   `json:"summaryEmpty"`
}

// NewMetricsCollector 创建新的指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		startTime:    time.Now(),
		runDurations: make([]time.Duration, 0, maxRunSamples),
	}
}

// RecordRun 记录一次流水线运行
func (m *MetricsCollector) RecordRun(duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs++
	if err != nil {
		m.runFailures++
		return
	}
	// 只保留最近的耗时样本，均值反映近期窗口而非全程
	m.runDurations = append(m.runDurations, duration)
	if len(m.runDurations) > maxRunSamples {
		m.runDurations = m.runDurations[1:]
	}
}

// RecordCacheHit 记录一次缓存命中
func (m *MetricsCollector) RecordCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits++
}

// RecordCacheMiss 记录一次缓存未命中
func (m *MetricsCollector) RecordCacheMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheMisses++
}

// RecordSummary 按状态记录一次摘要结果
func (m *MetricsCollector) RecordSummary(status model.SummaryStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch status {
	case model.StatusOK:
		m.summaryOK++
	case model.StatusFallback:
		m.summaryFallback++
	case model.StatusEmpty:
		m.summaryEmpty++
	}
}

// Snapshot 返回当前指标快照
func (m *MetricsCollector) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		UptimeSeconds:   int64(time.Since(m.startTime).Seconds()),
		Runs:            m.runs,
		RunFailures:     m.runFailures,
		CacheHits:       m.cacheHits,
		CacheMisses:     m.cacheMisses,
		SummaryOK:       m.summaryOK,
		SummaryFallback: m.summaryFallback,
		SummaryEmpty:    m.summaryEmpty,
	}

	if total := m.cacheHits + m.cacheMisses; total > 0 {
		snap.CacheHitRate = float64(m.cacheHits) / float64(total)
	}
	if len(m.runDurations) > 0 {
		var sum time.Duration
		for _, d := range m.runDurations {
			sum += d
		}
		snap.AvgRunMs = (sum / time.Duration(len(m.runDurations))).Milliseconds()
	}
	return snap
}
