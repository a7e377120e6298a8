package model

import "time"

// SummaryStatus 表示单篇文章摘要的最终状态
type SummaryStatus string

const (
	// StatusOK LLM摘要成功
	StatusOK SummaryStatus = "ok"
	// StatusFallback 降级结果（LLM未启用或调用失败）
	StatusFallback SummaryStatus = "fallback"
	// StatusEmpty 文章没有可供摘要的正文
	StatusEmpty SummaryStatus = "empty"
)

// 抓取来源标记
const (
	// SourceLive 内容来自在线抓取
	SourceLive = "live"
	// SourceSample 内容来自离线样本文件
	SourceSample = "sample"
)

// ChannelMetadata 表示订阅源的频道信息，字段缺失时为空字符串
type ChannelMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// Article 表示从订阅源解析出的一篇文章
type Article struct {
	Title       string   `json:"title"`
	Link        string   `json:"link"`                // 前端以链接作为展示标识，不保证唯一
	Description string   `json:"description"`
	Content     string   `json:"content"`             // 正文内容，缺失时回退到Description
	PubDate     string   `json:"pubDate"`             // 原始发布时间字符串
	IsoDate     string   `json:"isoDate,omitempty"`   // 规范化的ISO-8601时间，无法解析时为空
	Author      string   `json:"author,omitempty"`
	Categories  []string `json:"categories,omitempty"` // 保留顺序与重复项，过滤空值
	PlainText   string   `json:"plainText"`           // 去除标签并折叠空白后的纯文本
}

// Summary 表示一篇文章的双语摘要结果
type Summary struct {
	English string        `json:"english"`
	Chinese string        `json:"chinese"`
	UsedLLM bool          `json:"usedLLM"`
	Model   string        `json:"model,omitempty"` // 使用的模型标识，未走LLM时为空
	Status  SummaryStatus `json:"status"`
	Error   string        `json:"error,omitempty"` // 仅在LLM调用失败降级时携带原因
}

// FeedItem 是文章与其摘要的组合，保持解析顺序
type FeedItem struct {
	Article
	Summary Summary `json:"summary"`
}

// PayloadMeta 描述一次完整流水线运行的元信息
type PayloadMeta struct {
	ChannelMetadata
	FetchedAt    time.Time `json:"fetchedAt"`
	Source       string    `json:"source"` // live 或 sample
	ArticleCount int       `json:"articleCount"`
	CacheTTLMs   int64     `json:"cacheTtlMs"` // 供消费方做刷新调度的提示值
	LLMEnabled   bool      `json:"llmEnabled"`
	Model        string    `json:"model,omitempty"`
}

// FeedPayload 是被缓存并对外提供的完整产物
type FeedPayload struct {
	Meta  PayloadMeta `json:"metadata"`
	Items []FeedItem  `json:"items"`
}

// FetchResult 是抓取器的返回值：原始标记文本及其来源
type FetchResult struct {
	Markup string
	Source string
}

// OpenAIConfig 包含LLM后端的配置信息
type OpenAIConfig struct {
	APIKey      string  // API密钥，为空表示不启用LLM
	Model       string  // 模型名称
	Temperature float32 // 采样温度
	APIUrl      string  // API接口地址，为空时使用官方默认
	Timeout     int     // 请求超时时间，单位秒
}

// TranslateConfig 包含公共翻译接口的配置信息
type TranslateConfig struct {
	APIUrl  string // 翻译接口地址，为空时使用默认端点
	Timeout int    // 请求超时时间，单位秒
}

// FetchConfig 包含订阅源抓取的配置信息
type FetchConfig struct {
	FeedURL      string // 订阅源URL
	Timeout      int    // 抓取超时时间，单位秒
	SnapshotFile string // 离线样本文件路径，抓取失败时使用
}

// PipelineConfig 包含流水线协调器的全部参数
type PipelineConfig struct {
	Fetch       FetchConfig
	MaxArticles int           // 单次运行保留的文章数量上限
	CacheTTL    time.Duration // 缓存有效期
	OpenAI      OpenAIConfig
	Translate   TranslateConfig
}

// LLMEnabled 判断是否配置了LLM凭证
func (c PipelineConfig) LLMEnabled() bool {
	return c.OpenAI.APIKey != ""
}
