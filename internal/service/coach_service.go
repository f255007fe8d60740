package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	CoachRoleCoach = "coach"
	CoachRoleUser  = "user"

	defaultCoachMaxMessages = 50
	defaultCoachIdleTTL     = 30 * time.Minute
	coachHistoryWindow      = 12
	coachReplyMaxTokens     = 300
	maxCoachMessageRunes    = 1000

	coachPersona = `You are a warm, supportive wellness coach inside a mood and habit tracking app.
Reply in 2-4 short sentences. Be encouraging, ask at most one gentle follow-up question,
and suggest one small practical step when it fits. Never give medical diagnoses.`
)

var (
	// ErrConversationNotFound 会话不存在、已过期或属于其他用户
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrCoachMessageEmpty 消息内容为空
	ErrCoachMessageEmpty = errors.New("message text is required")
	// ErrCoachReply 表示获取教练回复失败
	ErrCoachReply = errors.New("coach reply failed")
)

// CoachMessage 是对话中的一条消息
type CoachMessage struct {
	Role      string
	Text      string
	CreatedAt time.Time
}

// Conversation 是对话快照
type Conversation struct {
	ID        string
	UserID    uint
	Messages  []CoachMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CoachService 维护内存中的教练对话，重启后会话不保留
type CoachService struct {
	mu            sync.Mutex
	conversations map[string]*Conversation
	completion    CompletionClient
	greeting      string
	maxMessages   int
	idleTTL       time.Duration
	now           func() time.Time
	newID         func() string
}

// NewCoachService 构造 CoachService
func NewCoachService(completion CompletionClient, greeting string) *CoachService {
	return &CoachService{
		conversations: make(map[string]*Conversation),
		completion:    completion,
		greeting:      strings.TrimSpace(greeting),
		maxMessages:   defaultCoachMaxMessages,
		idleTTL:       defaultCoachIdleTTL,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// SetClock 覆盖当前时间来源，主要用于测试。
func (s *CoachService) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// Start 新建会话并写入问候语
func (s *CoachService) Start(userID uint) Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	state := &Conversation{
		ID:        s.newID(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if s.greeting != "" {
		state.Messages = append(state.Messages, CoachMessage{Role: CoachRoleCoach, Text: s.greeting, CreatedAt: now})
	}
	s.conversations[state.ID] = state
	return snapshotConversation(state)
}

// Get 返回会话快照
func (s *CoachService) Get(userID uint, id string) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.lookupLocked(userID, id)
	if err != nil {
		return Conversation{}, err
	}
	return snapshotConversation(state), nil
}

// Send 追加用户消息并获取教练回复。补全调用期间不持有锁，
// 回复失败时用户消息不会写入会话。
func (s *CoachService) Send(ctx context.Context, userID uint, id, text string) (CoachMessage, CoachMessage, error) {
	text = truncateRunes(strings.TrimSpace(text), maxCoachMessageRunes)
	if text == "" {
		return CoachMessage{}, CoachMessage{}, ErrCoachMessageEmpty
	}

	s.mu.Lock()
	state, err := s.lookupLocked(userID, id)
	if err != nil {
		s.mu.Unlock()
		return CoachMessage{}, CoachMessage{}, err
	}
	history := buildCoachHistory(state.Messages, text)
	s.mu.Unlock()

	resp, err := s.completion.Complete(ctx, CompletionRequest{
		System:    coachPersona,
		Messages:  history,
		MaxTokens: coachReplyMaxTokens,
	})
	if err != nil {
		return CoachMessage{}, CoachMessage{}, fmt.Errorf("%w: %w", ErrCoachReply, err)
	}
	replyText := strings.TrimSpace(resp.Text)
	if replyText == "" {
		return CoachMessage{}, CoachMessage{}, fmt.Errorf("%w: empty reply", ErrCoachReply)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 调用期间会话可能已过期被清理
	state, err = s.lookupLocked(userID, id)
	if err != nil {
		return CoachMessage{}, CoachMessage{}, err
	}

	now := s.now()
	userMsg := CoachMessage{Role: CoachRoleUser, Text: text, CreatedAt: now}
	coachMsg := CoachMessage{Role: CoachRoleCoach, Text: replyText, CreatedAt: now}
	state.Messages = append(state.Messages, userMsg, coachMsg)
	if overflow := len(state.Messages) - s.maxMessages; overflow > 0 {
		state.Messages = append([]CoachMessage(nil), state.Messages[overflow:]...)
	}
	state.UpdatedAt = now
	return userMsg, coachMsg, nil
}

// Sweep 清理闲置超时的会话，返回清理数量
func (s *CoachService) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

func (s *CoachService) lookupLocked(userID uint, id string) (*Conversation, error) {
	state, ok := s.conversations[id]
	if !ok || state.UserID != userID {
		return nil, ErrConversationNotFound
	}
	if s.now().Sub(state.UpdatedAt) > s.idleTTL {
		delete(s.conversations, id)
		return nil, ErrConversationNotFound
	}
	return state, nil
}

func (s *CoachService) sweepLocked(now time.Time) int {
	removed := 0
	for id, state := range s.conversations {
		if now.Sub(state.UpdatedAt) > s.idleTTL {
			delete(s.conversations, id)
			removed++
		}
	}
	return removed
}

func snapshotConversation(c *Conversation) Conversation {
	out := *c
	out.Messages = append([]CoachMessage(nil), c.Messages...)
	return out
}

// buildCoachHistory 截取最近的若干条消息，并保证以用户消息开头。
func buildCoachHistory(messages []CoachMessage, next string) []CompletionMessage {
	start := 0
	if len(messages) > coachHistoryWindow {
		start = len(messages) - coachHistoryWindow
	}

	history := make([]CompletionMessage, 0, len(messages)-start+1)
	for _, msg := range messages[start:] {
		role := "assistant"
		if msg.Role == CoachRoleUser {
			role = "user"
		}
		if len(history) == 0 && role != "user" {
			continue
		}
		history = append(history, CompletionMessage{Role: role, Content: msg.Text})
	}
	return append(history, CompletionMessage{Role: "user", Content: next})
}
