package service

import (
	"context"
	"errors"
	"net/http"
)

// ErrCompletionAPIKeyMissing 表示未配置补全服务的 API Key。
var ErrCompletionAPIKeyMissing = errors.New("completion api key is required")

// CompletionMessage 是一条对话消息，Role 取值 user/assistant。
type CompletionMessage struct {
	Role    string
	Content string
}

// CompletionRequest 描述一次补全调用。
type CompletionRequest struct {
	System    string
	Messages  []CompletionMessage
	MaxTokens int
}

// CompletionResponse 返回第一个文本片段；Text 为空表示上游没有给出文本。
type CompletionResponse struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// CompletionClient 抽象文本补全能力，洞察与教练对话共用同一接口，
// 真实模型与脚本化实现可以互换。
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}
