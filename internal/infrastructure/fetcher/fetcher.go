package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/wolfitem/newshub/internal/domain/model"
	"github.com/wolfitem/newshub/internal/infrastructure/logger"
)

// 默认抓取超时时间，单位秒
const defaultTimeout = 10

// FetchError 表示在线抓取失败且没有可用的离线样本，是流水线唯一的致命错误
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("抓取订阅源失败: %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher 负责获取订阅源的原始标记文本，单次尝试不做重试
type Fetcher struct {
	client       *http.Client
	snapshotFile string
}

// New 创建一个新的抓取器实例
func New(cfg model.FetchConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		snapshotFile: cfg.SnapshotFile,
	}
}

// Fetch 抓取订阅源内容。超时、传输错误、非2xx状态码都会尝试离线样本替代；
// 样本也不可用时以FetchError返回原始失败原因。
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (*model.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return f.fallback(feedURL, fmt.Errorf("创建请求失败: %w", err))
	}
	req.Header.Set("User-Agent", "newshub/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return f.fallback(feedURL, fmt.Errorf("发送请求失败: %w", err))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("关闭响应体失败", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return f.fallback(feedURL, fmt.Errorf("HTTP状态码异常: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return f.fallback(feedURL, fmt.Errorf("读取响应失败: %w", err))
	}

	logger.Info("订阅源抓取成功", "url", feedURL, "bytes", len(body))
	return &model.FetchResult{Markup: string(body), Source: model.SourceLive}, nil
}

// fallback 在线抓取失败后加载离线样本。样本的存在性每次现查不做缓存，
// 样本缺失或不可读时把原始失败原因作为FetchError抛出。
func (f *Fetcher) fallback(feedURL string, cause error) (*model.FetchResult, error) {
	if f.snapshotFile != "" {
		if data, err := os.ReadFile(f.snapshotFile); err == nil {
			logger.Warn("在线抓取失败，使用离线样本",
				"url", feedURL,
				"snapshot", f.snapshotFile,
				"error", cause)
			return &model.FetchResult{Markup: string(data), Source: model.SourceSample}, nil
		}
	}
	logger.Error("订阅源抓取失败且无可用离线样本", "url", feedURL, "error", cause)
	return nil, &FetchError{URL: feedURL, Err: cause}
}
