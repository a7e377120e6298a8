package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gilliek/go-opml/opml"
	"github.com/spf13/viper"
	appservice "github.com/wolfitem/newshub/internal/application/service"
	"github.com/wolfitem/newshub/internal/domain/model"
	"github.com/wolfitem/newshub/internal/domain/service"
	"github.com/wolfitem/newshub/internal/infrastructure/ai"
	"github.com/wolfitem/newshub/internal/infrastructure/fetcher"
	"github.com/wolfitem/newshub/internal/infrastructure/logger"
	"github.com/wolfitem/newshub/internal/infrastructure/translate"
	"github.com/wolfitem/newshub/internal/middleware"
)

// buildPipelineConfig 从viper配置组装流水线参数
func buildPipelineConfig() (model.PipelineConfig, error) {
	feedURL, err := resolveFeedURL()
	if err != nil {
		return model.PipelineConfig{}, err
	}
	if err := service.ValidateFeedURL(feedURL); err != nil {
		return model.PipelineConfig{}, fmt.Errorf("订阅源URL校验失败: %w", err)
	}

	cfg := model.PipelineConfig{
		Fetch: model.FetchConfig{
			FeedURL:      feedURL,
			Timeout:      viper.GetInt("rss.fetch_timeout"),
			SnapshotFile: viper.GetString("rss.snapshot_file"),
		},
		MaxArticles: viper.GetInt("rss.max_articles"),
		CacheTTL:    time.Duration(viper.GetInt("cache.ttl_minutes")) * time.Minute,
		OpenAI: model.OpenAIConfig{
			APIKey:      resolveAPIKey(),
			Model:       viper.GetString("openai.model"),
			Temperature: float32(viper.GetFloat64("openai.temperature")),
			APIUrl:      viper.GetString("openai.api_url"),
			Timeout:     viper.GetInt("openai.timeout"),
		},
		Translate: model.TranslateConfig{
			APIUrl:  viper.GetString("translate.api_url"),
			Timeout: viper.GetInt("translate.timeout"),
		},
	}
	return cfg, nil
}

// resolveFeedURL 确定订阅源地址：优先rss.url，其次从OPML订阅文件取第一个源
func resolveFeedURL() (string, error) {
	if feedURL := viper.GetString("rss.url"); feedURL != "" {
		return feedURL, nil
	}

	opmlFile := viper.GetString("rss.opml_file")
	if opmlFile == "" {
		return "", errors.New("未配置订阅源，请设置rss.url或rss.opml_file")
	}

	sources, err := opmlSources(opmlFile)
	if err != nil {
		return "", err
	}
	if len(sources) == 0 {
		return "", fmt.Errorf("OPML文件中没有找到任何订阅源: %s", opmlFile)
	}
	logger.Info("从OPML文件解析订阅源", "file", opmlFile, "url", sources[0])
	return sources[0], nil
}

// opmlSources 解析OPML文件并返回所有xmlUrl，保持文档顺序
func opmlSources(opmlFile string) ([]string, error) {
	doc, err := opml.NewOPMLFromFile(opmlFile)
	if err != nil {
		return nil, fmt.Errorf("解析OPML文件失败: %w", err)
	}

	var urls []string
	var walk func(outlines []opml.Outline)
	walk = func(outlines []opml.Outline) {
		for _, outline := range outlines {
			if outline.XMLURL != "" {
				urls = append(urls, outline.XMLURL)
			}
			walk(outline.Outlines)
		}
	}
	walk(doc.Outlines())
	return urls, nil
}

// resolveAPIKey 获取LLM凭证：环境变量优先于配置文件，未配置是合法状态
func resolveAPIKey() string {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		return apiKey
	}
	return viper.GetString("openai.api_key")
}

// buildPipeline 按配置组装完整的流水线协调器
func buildPipeline(cfg model.PipelineConfig, skipLLM bool) appservice.FeedPipeline {
	var llm service.LLMClient
	if cfg.LLMEnabled() && !skipLLM {
		llm = ai.NewOpenAIClient(cfg.OpenAI)
	} else {
		logger.Info("未启用LLM，摘要将走降级路径")
		// 协调器据此在载荷元信息中标记LLM未启用
		cfg.OpenAI.APIKey = ""
	}

	return appservice.NewFeedPipeline(
		cfg,
		fetcher.New(cfg.Fetch),
		service.NewFeedParser(),
		service.NewSummaryEngine(llm, translate.New(cfg.Translate), cfg.OpenAI.Model),
		middleware.NewMetricsCollector(),
	)
}
