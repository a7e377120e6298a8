package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wolfitem/newshub/internal/domain/model"
	"github.com/wolfitem/newshub/internal/infrastructure/logger"
)

// 公共Google翻译端点
const defaultAPIUrl = "https://translate.googleapis.com/translate_a/single"

// 默认翻译请求超时时间，单位秒
const defaultTimeout = 7

// GoogleTranslator 实现service.Translator接口，走免费的公共翻译端点。
// 任何失败都以错误返回，由摘要引擎决定是否降级到占位文案。
type GoogleTranslator struct {
	client *http.Client
	apiURL string
}

// New 创建新的翻译客户端
func New(cfg model.TranslateConfig) *GoogleTranslator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	apiURL := cfg.APIUrl
	if apiURL == "" {
		apiURL = defaultAPIUrl
	}
	return &GoogleTranslator{
		client: &http.Client{Timeout: time.Duration(timeout) * time.Second},
		apiURL: apiURL,
	}
}

// Translate 把text从from语言翻译到to语言
func (g *GoogleTranslator) Translate(ctx context.Context, text, from, to string) (string, error) {
	if text == "" {
		return "", nil
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", from)
	params.Set("tl", to)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("创建翻译请求失败: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("发送翻译请求失败: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("关闭翻译响应体失败", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("翻译接口返回状态码: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取翻译响应失败: %w", err)
	}

	return parseResponse(body)
}

// parseResponse 解析翻译端点返回的嵌套数组结构，拼接所有翻译片段
func parseResponse(body []byte) (string, error) {
	var response []interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("解析翻译响应失败: %w", err)
	}
	if len(response) == 0 {
		return "", errors.New("翻译响应为空")
	}

	segments, ok := response[0].([]interface{})
	if !ok {
		return "", errors.New("翻译响应格式不符合预期")
	}

	var result strings.Builder
	for _, segment := range segments {
		parts, ok := segment.([]interface{})
		if !ok || len(parts) == 0 {
			continue
		}
		if translated, ok := parts[0].(string); ok {
			result.WriteString(translated)
		}
	}
	return result.String(), nil
}
