package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/wolfitem/newshub/internal/domain/model"
	"github.com/wolfitem/newshub/internal/domain/service"
	"github.com/wolfitem/newshub/internal/infrastructure/logger"
)

// 默认LLM请求超时时间，单位秒
const defaultAPITimeout = 30

// 提交给LLM的正文长度上限，避免超长文章撑爆上下文
const maxPromptRunes = 4000

const systemPrompt = "You are an assistant that summarises English AI news into concise, " +
	"professionally written English and Simplified Chinese. " +
	"Always respond with a single JSON object."

// OpenAIClient 实现service.LLMClient接口，走OpenAI兼容的chat completions协议
type OpenAIClient struct {
	client *openai.Client
	config model.OpenAIConfig
}

// NewOpenAIClient 创建新的OpenAI客户端
func NewOpenAIClient(config model.OpenAIConfig) *OpenAIClient {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.APIUrl != "" {
		clientConfig.BaseURL = config.APIUrl
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultAPITimeout
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: time.Duration(timeout) * time.Second,
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// GenerateBilingualSummary 请求LLM生成双语摘要。
// 强制JSON响应格式，两个语言字段缺一不可，任何违反都以错误返回由上层降级。
func (c *OpenAIClient) GenerateBilingualSummary(ctx context.Context, article model.Article) (service.LLMSummary, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Temperature: c.config.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(article)},
		},
	})
	if err != nil {
		return service.LLMSummary{}, fmt.Errorf("调用LLM接口失败: %w", err)
	}
	if len(resp.Choices) == 0 {
		return service.LLMSummary{}, errors.New("LLM响应不包含有效内容")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return service.LLMSummary{}, errors.New("LLM响应内容为空")
	}

	var parsed struct {
		English string `json:"english"`
		Chinese string `json:"chinese"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return service.LLMSummary{}, fmt.Errorf("解析LLM响应JSON失败: %w", err)
	}

	parsed.English = strings.TrimSpace(parsed.English)
	parsed.Chinese = strings.TrimSpace(parsed.Chinese)
	if parsed.English == "" || parsed.Chinese == "" {
		return service.LLMSummary{}, errors.New("LLM响应缺少english或chinese字段")
	}

	logger.Debug("LLM摘要成功", "model", c.config.Model, "title", article.Title)
	return service.LLMSummary{English: parsed.English, Chinese: parsed.Chinese}, nil
}

// buildUserPrompt 构建用户提示词，正文过长时截断
func buildUserPrompt(article model.Article) string {
	text := article.PlainText
	if runes := []rune(text); len(runes) > maxPromptRunes {
		text = string(runes[:maxPromptRunes]) + "..."
	}

	return fmt.Sprintf("请阅读下面的AI新闻条目，输出一个JSON对象，包含两个字段："+
		"english（不超过60词的英文摘要）和chinese（不超过120字的中文摘要）。"+
		"摘要需要包含关键信息，并保持中立客观的语气。\n\n"+
		"标题: %s\n正文: %s\n新闻链接: %s",
		article.Title, text, article.Link)
}
