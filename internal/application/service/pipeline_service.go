package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wolfitem/newshub/internal/domain/model"
	"github.com/wolfitem/newshub/internal/domain/service"
	"github.com/wolfitem/newshub/internal/infrastructure/logger"
	"github.com/wolfitem/newshub/internal/middleware"
	"golang.org/x/sync/singleflight"
)

// 默认单次运行保留的文章数量上限
const defaultMaxArticles = 12

// 默认缓存有效期
const defaultCacheTTL = 10 * time.Minute

// FeedFetcher 定义流水线对抓取器的依赖
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) (*model.FetchResult, error)
}

// FeedPipeline 定义流水线协调器的应用服务接口
type FeedPipeline interface {
	// GetPayload 返回完整的订阅源载荷。forceRefresh为false时优先使用
	// 有效期内的缓存；进行中的运行会合并所有并发调用方。
	GetPayload(ctx context.Context, forceRefresh bool) (*model.FeedPayload, error)

	// Metrics 返回当前运行指标快照
	Metrics() middleware.MetricsSnapshot
}

// feedPipeline 实现FeedPipeline接口。缓存是进程内单例：
// 同一时刻最多持有一份载荷，只在运行成功时整体替换。
type feedPipeline struct {
	config  model.PipelineConfig
	fetcher FeedFetcher
	parser  service.FeedParser
	engine  service.SummaryEngine
	metrics *middleware.MetricsCollector

	// 并发请求合并：进行中的运行结束后句柄自动清除
	group singleflight.Group

	mu        sync.RWMutex
	cached    *model.FeedPayload
	fetchedAt time.Time
}

// NewFeedPipeline 创建一个新的流水线协调器实例
func NewFeedPipeline(
	config model.PipelineConfig,
	fetcher FeedFetcher,
	parser service.FeedParser,
	engine service.SummaryEngine,
	metrics *middleware.MetricsCollector,
) FeedPipeline {
	if config.MaxArticles <= 0 {
		config.MaxArticles = defaultMaxArticles
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = defaultCacheTTL
	}
	if metrics == nil {
		metrics = middleware.NewMetricsCollector()
	}
	return &feedPipeline{
		config:  config,
		fetcher: fetcher,
		parser:  parser,
		engine:  engine,
		metrics: metrics,
	}
}

// GetPayload 返回订阅源载荷
func (s *feedPipeline) GetPayload(ctx context.Context, forceRefresh bool) (*model.FeedPayload, error) {
	if !forceRefresh {
		if payload := s.cachedPayload(); payload != nil {
			s.metrics.RecordCacheHit()
			logger.Debug("命中载荷缓存")
			return payload, nil
		}
		s.metrics.RecordCacheMiss()
	}

	// 无论调用方的forceRefresh取值，进行中的运行都会合并所有并发请求，
	// 失败时所有被合并的调用方收到同一个错误
	v, err, shared := s.group.Do("feed", func() (interface{}, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("请求已合并到进行中的流水线运行")
	}
	return v.(*model.FeedPayload), nil
}

// Metrics 返回当前运行指标快照
func (s *feedPipeline) Metrics() middleware.MetricsSnapshot {
	return s.metrics.Snapshot()
}

// refresh 执行一次完整运行并在成功时整体替换缓存；失败时缓存保持原状
func (s *feedPipeline) refresh(ctx context.Context) (*model.FeedPayload, error) {
	logger.Info("开始流水线运行", "url", s.config.Fetch.FeedURL)
	defer logger.TimeTrack("PipelineRefresh")()
	logger.LogMemStatsOnce()

	start := time.Now()
	payload, err := s.run(ctx)
	s.metrics.RecordRun(time.Since(start), err)
	if err != nil {
		logger.Error("流水线运行失败，保留既有缓存", "error", err)
		return nil, err
	}

	s.mu.Lock()
	s.cached = payload
	s.fetchedAt = payload.Meta.FetchedAt
	s.mu.Unlock()

	logger.Info("流水线运行完成",
		"articles", len(payload.Items),
		"source", payload.Meta.Source,
		"llm_enabled", payload.Meta.LLMEnabled)
	return payload, nil
}

// run 执行抓取→解析→逐篇摘要→组装载荷
func (s *feedPipeline) run(ctx context.Context) (*model.FeedPayload, error) {
	result, err := s.fetcher.Fetch(ctx, s.config.Fetch.FeedURL)
	if err != nil {
		// 抓取失败且无样本是流水线唯一向外传播的错误
		return nil, fmt.Errorf("获取订阅源失败: %w", err)
	}

	meta, articles := s.parser.Parse(result.Markup)

	// 保持文档顺序截断到配置上限
	if len(articles) > s.config.MaxArticles {
		articles = articles[:s.config.MaxArticles]
	}

	// 逐篇顺序摘要，输出顺序与解析顺序一致
	items := make([]model.FeedItem, 0, len(articles))
	for _, article := range articles {
		summary := s.engine.Summarize(ctx, article)
		s.metrics.RecordSummary(summary.Status)
		items = append(items, model.FeedItem{Article: article, Summary: summary})
	}

	payloadMeta := model.PayloadMeta{
		ChannelMetadata: meta,
		FetchedAt:       time.Now().UTC(),
		Source:          result.Source,
		ArticleCount:    len(items),
		CacheTTLMs:      s.config.CacheTTL.Milliseconds(),
		LLMEnabled:      s.config.LLMEnabled(),
	}
	if payloadMeta.LLMEnabled {
		payloadMeta.Model = s.config.OpenAI.Model
	}

	return &model.FeedPayload{Meta: payloadMeta, Items: items}, nil
}

// cachedPayload 返回有效期内的缓存载荷，过期或为空时返回nil
func (s *feedPipeline) cachedPayload() *model.FeedPayload {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cached == nil {
		return nil
	}
	if time.Since(s.fetchedAt) >= s.config.CacheTTL {
		return nil
	}
	return s.cached
}
