package service

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wolfitem/newshub/internal/domain/model"
	"github.com/wolfitem/newshub/internal/infrastructure/logger"
)

// LLMSummary 是LLM返回的双语摘要内容
type LLMSummary struct {
	English string
	Chinese string
}

// LLMClient 定义LLM后端接口
type LLMClient interface {
	// GenerateBilingualSummary 对文章生成双语摘要。
	// 响应缺字段、JSON无法解析、HTTP非2xx均应返回错误。
	GenerateBilingualSummary(ctx context.Context, article model.Article) (LLMSummary, error)
}

// Translator 定义公共翻译接口
type Translator interface {
	// Translate 把text从from语言翻译到to语言
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// SummaryEngine 定义摘要引擎的领域服务接口。
// 引擎对外永不失败：所有错误都折叠进Summary的Status字段。
type SummaryEngine interface {
	Summarize(ctx context.Context, article model.Article) model.Summary
}

// 启发式摘要的长度预算（按字符计）
const extractiveLimit = 220

// 句末标点，中英文两套都算句子边界
const sentenceDelims = ".!?。！？"

// 降级结果中文侧的固定前缀
const fallbackPrefix = "[未启用LLM，自动降级] "

// 空文章的占位文案
const (
	emptyTextEN = "No content available for this article."
	emptyTextZH = "该文章没有可用的正文内容。"
)

// summaryEngine 实现SummaryEngine接口
type summaryEngine struct {
	llm        LLMClient  // 为nil表示未配置LLM凭证
	translator Translator // 为nil表示不启用翻译降级
	modelName  string
}

// NewSummaryEngine 创建一个新的摘要引擎实例
func NewSummaryEngine(llm LLMClient, translator Translator, modelName string) SummaryEngine {
	return &summaryEngine{
		llm:        llm,
		translator: translator,
		modelName:  modelName,
	}
}

// Summarize 按层级策略生成双语摘要：LLM → 启发式提取+翻译 → 固定前缀占位
func (e *summaryEngine) Summarize(ctx context.Context, article model.Article) model.Summary {
	text := strings.TrimSpace(article.PlainText)

	// 没有正文时直接返回empty状态，不发起任何网络请求
	if text == "" {
		return model.Summary{
			English: emptyTextEN,
			Chinese: emptyTextZH,
			Status:  model.StatusEmpty,
		}
	}

	// 未配置凭证是合法状态，直接走降级路径
	if e.llm == nil {
		return e.fallback(ctx, text, "")
	}

	result, err := e.llm.GenerateBilingualSummary(ctx, article)
	if err != nil {
		logger.Warn("LLM摘要失败，进入降级流程", "title", article.Title, "error", err)
		return e.fallback(ctx, text, err.Error())
	}

	return model.Summary{
		English: result.English,
		Chinese: result.Chinese,
		UsedLLM: true,
		Model:   e.modelName,
		Status:  model.StatusOK,
	}
}

// fallback 生成降级摘要：启发式提取英文，翻译接口补中文，
// 翻译不可用或结果不含中文字符时使用固定前缀占位
func (e *summaryEngine) fallback(ctx context.Context, text, reason string) model.Summary {
	english := ExtractiveSummary(text, extractiveLimit)

	chinese := ""
	if e.translator != nil {
		translated, err := e.translator.Translate(ctx, english, "en", "zh-CN")
		if err != nil {
			logger.Debug("翻译接口调用失败", "error", err)
		} else if translated = strings.TrimSpace(translated); containsHan(translated) {
			chinese = translated
		}
	}
	if chinese == "" {
		chinese = fallbackPrefix + english
	}

	return model.Summary{
		English: english,
		Chinese: chinese,
		Status:  model.StatusFallback,
		Error:   reason,
	}
}

// ExtractiveSummary 生成启发式提取摘要：整句累加直到达到长度预算，
// 从不在句中截断；完全找不到句子边界时硬截断并追加省略号
func ExtractiveSummary(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	if !strings.ContainsAny(text, sentenceDelims) {
		return string(runes[:limit]) + "..."
	}

	var b strings.Builder
	total := 0
	for _, sentence := range splitSentences(text) {
		b.WriteString(sentence)
		total += utf8.RuneCountInString(sentence)
		if total >= limit {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

// splitSentences 按句末标点切分文本，标点归属前一句，句尾残段保留
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if strings.ContainsRune(sentenceDelims, r) {
			end := i + utf8.RuneLen(r)
			out = append(out, text[start:end])
			start = end
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// containsHan 判断文本是否包含至少一个汉字
func containsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
