package service

import (
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

const maxAILogSnippetRunes = 1024

// logAIExchange 用于输出 AI 请求与响应的关键信息，方便排查模型行为。
func logAIExchange(kind, phase, content string) {
	trimmed := strings.TrimSpace(content)
	entry := logrus.WithFields(logrus.Fields{
		"component": "ai",
		"kind":      kind,
		"phase":     phase,
		"runes":     utf8.RuneCountInString(trimmed),
	})
	if trimmed == "" {
		entry.Debug("<empty>")
		return
	}
	entry.Debug(snippet(trimmed, maxAILogSnippetRunes))
}

func snippet(input string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(input) <= limit {
		return input
	}
	return string([]rune(input)[:limit]) + "…(truncated)"
}
