package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"
)

// ScriptedCompletion 从固定话术中随机挑选一条作为回复，并模拟短暂的思考延迟。
// 它与 AnthropicClient 实现同一接口，切换到真实模型只需更换注入对象。
type ScriptedCompletion struct {
	replies []string
	delay   time.Duration
	pick    func(n int) int
}

// NewScriptedCompletion 构造脚本化补全；replies 为空时返回错误。
func NewScriptedCompletion(replies []string, delay time.Duration) (*ScriptedCompletion, error) {
	cleaned := make([]string, 0, len(replies))
	for _, reply := range replies {
		if reply = strings.TrimSpace(reply); reply != "" {
			cleaned = append(cleaned, reply)
		}
	}
	if len(cleaned) == 0 {
		return nil, errors.New("scripted completion needs at least one reply")
	}
	if delay < 0 {
		delay = 0
	}
	return &ScriptedCompletion{replies: cleaned, delay: delay, pick: rand.IntN}, nil
}

// Complete 在延迟结束后返回随机话术；context 取消时提前返回。
func (s *ScriptedCompletion) Complete(ctx context.Context, _ CompletionRequest) (CompletionResponse, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return CompletionResponse{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return CompletionResponse{}, err
	}

	return CompletionResponse{Text: s.replies[s.pick(len(s.replies))]}, nil
}
