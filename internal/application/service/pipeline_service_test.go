package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wolfitem/newshub/internal/domain/model"
	domainservice "github.com/wolfitem/newshub/internal/domain/service"
	"github.com/wolfitem/newshub/internal/middleware"
)

// fakeFetcher 记录调用次数，支持阻塞和失败注入
type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	markup  string
	err     error
	started chan struct{} // 首次调用进入时关闭，可为nil
	release chan struct{} // 非nil时调用阻塞至其关闭
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (*model.FetchResult, error) {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	err := f.err
	f.mu.Unlock()

	if first && f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if err != nil {
		return nil, err
	}
	return &model.FetchResult{Markup: f.markup, Source: model.SourceLive}, nil
}

func (f *fakeFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func feedMarkup(items int) string {
	var b strings.Builder
	b.WriteString("<rss><channel><title>Test Feed</title><link>https://t.example.com/</link><description>d</description>")
	for i := 0; i < items; i++ {
		fmt.Fprintf(&b, "<item><title>Item %d</title><description>Body of item %d.</description></item>", i, i)
	}
	b.WriteString("</channel></rss>")
	return b.String()
}

func newTestPipeline(cfg model.PipelineConfig, f FeedFetcher) FeedPipeline {
	engine := domainservice.NewSummaryEngine(nil, nil, "")
	return NewFeedPipeline(cfg, f, domainservice.NewFeedParser(), engine, middleware.NewMetricsCollector())
}

func TestGetPayloadAssemblesMetadata(t *testing.T) {
	f := &fakeFetcher{markup: feedMarkup(3)}
	cfg := model.PipelineConfig{MaxArticles: 5, CacheTTL: time.Minute}
	p := newTestPipeline(cfg, f)

	payload, err := p.GetPayload(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if payload.Meta.Title != "Test Feed" {
		t.Errorf("meta title = %q", payload.Meta.Title)
	}
	if payload.Meta.Source != model.SourceLive {
		t.Errorf("meta source = %q", payload.Meta.Source)
	}
	if payload.Meta.ArticleCount != 3 || len(payload.Items) != 3 {
		t.Errorf("articleCount = %d, items = %d", payload.Meta.ArticleCount, len(payload.Items))
	}
	if payload.Meta.CacheTTLMs != time.Minute.Milliseconds() {
		t.Errorf("cacheTtlMs = %d", payload.Meta.CacheTTLMs)
	}
	if payload.Meta.LLMEnabled {
		t.Error("llmEnabled should be false without an API key")
	}
	if payload.Meta.Model != "" {
		t.Errorf("model = %q, want empty when LLM disabled", payload.Meta.Model)
	}
	if payload.Meta.FetchedAt.IsZero() {
		t.Error("fetchedAt not set")
	}

	for i, item := range payload.Items {
		if item.Summary.Status != model.StatusFallback {
			t.Errorf("item %d summary status = %q", i, item.Summary.Status)
		}
	}
}

func TestGetPayloadTruncatesToMaxArticles(t *testing.T) {
	f := &fakeFetcher{markup: feedMarkup(10)}
	p := newTestPipeline(model.PipelineConfig{MaxArticles: 4, CacheTTL: time.Minute}, f)

	payload, err := p.GetPayload(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload.Items) != 4 {
		t.Fatalf("items = %d, want 4", len(payload.Items))
	}
	// 截断保持文档顺序
	if payload.Items[0].Title != "Item 0" || payload.Items[3].Title != "Item 3" {
		t.Errorf("order broken: first=%q last=%q", payload.Items[0].Title, payload.Items[3].Title)
	}
}

func TestGetPayloadServesCacheWithinTTL(t *testing.T) {
	f := &fakeFetcher{markup: feedMarkup(2)}
	p := newTestPipeline(model.PipelineConfig{CacheTTL: time.Minute}, f)

	first, err := p.GetPayload(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.GetPayload(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.count() != 1 {
		t.Errorf("fetch calls = %d, want 1", f.count())
	}
	if first != second {
		t.Error("cached payload should be returned as-is")
	}

	snap := p.Metrics()
	if snap.CacheHits != 1 || snap.CacheMisses != 1 {
		t.Errorf("cache hits/misses = %d/%d, want 1/1", snap.CacheHits, snap.CacheMisses)
	}
}

func TestGetPayloadForceRefreshBypassesCache(t *testing.T) {
	f := &fakeFetcher{markup: feedMarkup(1)}
	p := newTestPipeline(model.PipelineConfig{CacheTTL: time.Minute}, f)

	if _, err := p.GetPayload(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.GetPayload(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.count() != 2 {
		t.Errorf("fetch calls = %d, want 2", f.count())
	}
}

func TestGetPayloadMergesConcurrentCallers(t *testing.T) {
	f := &fakeFetcher{
		markup:  feedMarkup(2),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	p := newTestPipeline(model.PipelineConfig{CacheTTL: time.Minute}, f)

	type result struct {
		payload *model.FeedPayload
		err     error
	}
	results := make(chan result, 2)
	call := func() {
		payload, err := p.GetPayload(context.Background(), true)
		results <- result{payload, err}
	}

	go call()
	<-f.started
	go call()
	// 给第二个调用方时间进入合并点
	time.Sleep(100 * time.Millisecond)
	close(f.release)

	a := <-results
	b := <-results
	if a.err != nil || b.err != nil {
		t.Fatalf("unexpected errors: %v / %v", a.err, b.err)
	}
	if f.count() != 1 {
		t.Errorf("fetch calls = %d, want concurrent callers merged into 1", f.count())
	}
	if a.payload != b.payload {
		t.Error("merged callers should receive the same payload")
	}
}

func TestGetPayloadFailureKeepsCache(t *testing.T) {
	f := &fakeFetcher{markup: feedMarkup(2)}
	p := newTestPipeline(model.PipelineConfig{CacheTTL: time.Minute}, f)

	cached, err := p.GetPayload(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.mu.Lock()
	f.err = errors.New("连接被拒绝")
	f.mu.Unlock()

	if _, err := p.GetPayload(context.Background(), true); err == nil {
		t.Fatal("expected error from forced refresh")
	}

	got, err := p.GetPayload(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != cached {
		t.Error("failed run should leave previous cache intact")
	}

	snap := p.Metrics()
	if snap.Runs != 2 || snap.RunFailures != 1 {
		t.Errorf("runs/failures = %d/%d, want 2/1", snap.Runs, snap.RunFailures)
	}
}

func TestGetPayloadRecordsSummaryMetrics(t *testing.T) {
	markup := "<rss><channel><title>t</title>" +
		"<item><title>with body</title><description>Some body.</description></item>" +
		"<item><title>without body</title></item>" +
		"</channel></rss>"
	f := &fakeFetcher{markup: markup}
	p := newTestPipeline(model.PipelineConfig{CacheTTL: time.Minute}, f)

	if _, err := p.GetPayload(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := p.Metrics()
	if snap.SummaryFallback != 1 || snap.SummaryEmpty != 1 {
		t.Errorf("summary fallback/empty = %d/%d, want 1/1", snap.SummaryFallback, snap.SummaryEmpty)
	}
}
