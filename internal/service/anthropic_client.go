package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-sonnet-4-20250514"
	anthropicVersion        = "2023-06-01"
	anthropicTimeout        = 60 * time.Second
)

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// AnthropicConfig 描述 Messages API 的连接参数。
type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// AnthropicClient 通过 Messages API 实现 CompletionClient。
// 单次同步调用，不重试、不流式，超时交给调用方的 context。
type AnthropicClient struct {
	apiKey  string
	baseURL string
	model   string
	http    httpDoer
}

// NewAnthropicClient 构造 AnthropicClient，空字段回退默认值。
func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	client := &AnthropicClient{
		apiKey: strings.TrimSpace(cfg.APIKey),
		model:  strings.TrimSpace(cfg.Model),
		http:   newAnthropicHTTPClient(),
	}
	if client.model == "" {
		client.model = defaultAnthropicModel
	}
	client.SetBaseURL(cfg.BaseURL)
	return client
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (c *AnthropicClient) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = newAnthropicHTTPClient()
		return
	}
	c.http = client
}

func newAnthropicHTTPClient() *http.Client {
	return &http.Client{Timeout: anthropicTimeout}
}

// SetBaseURL 覆盖默认的 API 地址。
func (c *AnthropicClient) SetBaseURL(base string) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = defaultAnthropicBaseURL
	}
	c.baseURL = base
}

// Model 返回当前使用的模型名称。
func (c *AnthropicClient) Model() string {
	return c.model
}

// Complete 发送一次补全请求。非 2xx 响应一律视为失败。
func (c *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	if c.apiKey == "" {
		return CompletionResponse{}, ErrCompletionAPIKeyMissing
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultInsightMaxTokens
	}

	messages := make([]anthropicMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, anthropicMessage{Role: msg.Role, Content: msg.Content})
	}

	payload := anthropicRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    strings.TrimSpace(req.System),
		Messages:  messages,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("marshal completion request: %w", err)
	}

	endpoint := c.baseURL + "/v1/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("create completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("call completion api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("read completion response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return CompletionResponse{}, &CompletionStatusError{StatusCode: resp.StatusCode, Body: snippet(string(respBody), 512)}
	}

	var decoded anthropicResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return CompletionResponse{}, fmt.Errorf("decode completion response: %w", err)
	}
	if decoded.Error != nil {
		return CompletionResponse{}, fmt.Errorf("completion api error: %s", decoded.Error.Message)
	}

	result := CompletionResponse{
		InputTokens:  decoded.Usage.InputTokens,
		OutputTokens: decoded.Usage.OutputTokens,
	}
	for _, block := range decoded.Content {
		if block.Type == "" || block.Type == "text" {
			result.Text = strings.TrimSpace(block.Text)
			break
		}
	}
	return result, nil
}

// CompletionStatusError 表示上游返回了非成功状态码。
type CompletionStatusError struct {
	StatusCode int
	Body       string
}

func (e *CompletionStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("completion api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("completion api returned status %d: %s", e.StatusCode, e.Body)
}
