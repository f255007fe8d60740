package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestCoachServiceConversationFlow(t *testing.T) {
	completion := &stubCompletion{text: "What's one small step you could take today?"}
	svc := NewCoachService(completion, "Hello there!")
	now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	svc.SetClock(fixedClock(now))

	conv := svc.Start(1)
	if conv.ID == "" {
		t.Fatal("expected conversation id")
	}
	if len(conv.Messages) != 1 || conv.Messages[0].Role != CoachRoleCoach || conv.Messages[0].Text != "Hello there!" {
		t.Fatalf("expected greeting, got %+v", conv.Messages)
	}

	userMsg, reply, err := svc.Send(context.Background(), 1, conv.ID, "  I feel tired  ")
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if userMsg.Text != "I feel tired" || reply.Text != completion.text {
		t.Fatalf("unexpected messages: %+v %+v", userMsg, reply)
	}

	req := completion.requests[0]
	if req.System == "" || req.MaxTokens != coachReplyMaxTokens {
		t.Fatalf("expected persona and token limit, got %+v", req)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "I feel tired" {
		t.Fatalf("greeting should not lead the history, got %+v", req.Messages)
	}

	transcript, err := svc.Get(1, conv.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(transcript.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(transcript.Messages))
	}

	// 返回的是快照，修改不影响内部状态
	transcript.Messages[0].Text = "mutated"
	again, _ := svc.Get(1, conv.ID)
	if again.Messages[0].Text != "Hello there!" {
		t.Fatal("transcript should be a copy")
	}
}

func TestCoachServiceScopesConversationsToUser(t *testing.T) {
	svc := NewCoachService(&stubCompletion{text: "hi"}, "Hello")
	conv := svc.Start(1)

	if _, err := svc.Get(2, conv.ID); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
	if _, _, err := svc.Send(context.Background(), 2, conv.ID, "hello"); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
	if _, _, err := svc.Send(context.Background(), 1, conv.ID, "   "); !errors.Is(err, ErrCoachMessageEmpty) {
		t.Fatalf("expected ErrCoachMessageEmpty, got %v", err)
	}
}

func TestCoachServiceExpiresIdleConversations(t *testing.T) {
	svc := NewCoachService(&stubCompletion{text: "hi"}, "Hello")
	now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	svc.SetClock(fixedClock(now))

	stale := svc.Start(1)
	svc.SetClock(fixedClock(now.Add(20 * time.Minute)))
	fresh := svc.Start(1)

	svc.SetClock(fixedClock(now.Add(31 * time.Minute)))
	if _, err := svc.Get(1, stale.ID); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected stale conversation to expire, got %v", err)
	}
	if _, err := svc.Get(1, fresh.ID); err != nil {
		t.Fatalf("fresh conversation should survive, got %v", err)
	}

	svc.SetClock(fixedClock(now.Add(2 * time.Hour)))
	if removed := svc.Sweep(); removed != 1 {
		t.Fatalf("expected 1 conversation swept, got %d", removed)
	}
}

func TestCoachServiceCapsTranscript(t *testing.T) {
	svc := NewCoachService(&stubCompletion{text: "ok"}, "Hello")
	conv := svc.Start(1)

	for i := 0; i < 30; i++ {
		if _, _, err := svc.Send(context.Background(), 1, conv.ID, fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("Send #%d returned error: %v", i, err)
		}
	}

	transcript, err := svc.Get(1, conv.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(transcript.Messages) != defaultCoachMaxMessages {
		t.Fatalf("expected %d messages, got %d", defaultCoachMaxMessages, len(transcript.Messages))
	}
	if last := transcript.Messages[len(transcript.Messages)-2]; last.Text != "message 29" {
		t.Fatalf("expected newest user message to be kept, got %q", last.Text)
	}
}

func TestCoachServiceReplyFailureKeepsTranscript(t *testing.T) {
	completion := &stubCompletion{err: errors.New("upstream down")}
	svc := NewCoachService(completion, "Hello")
	conv := svc.Start(1)

	if _, _, err := svc.Send(context.Background(), 1, conv.ID, "hi"); !errors.Is(err, ErrCoachReply) {
		t.Fatalf("expected ErrCoachReply, got %v", err)
	}
	transcript, _ := svc.Get(1, conv.ID)
	if len(transcript.Messages) != 1 {
		t.Fatalf("failed reply should not change transcript, got %d messages", len(transcript.Messages))
	}
}

func TestBuildCoachHistoryWindow(t *testing.T) {
	var messages []CoachMessage
	for i := 0; i < 20; i++ {
		role := CoachRoleUser
		if i%2 == 1 {
			role = CoachRoleCoach
		}
		messages = append(messages, CoachMessage{Role: role, Text: fmt.Sprint(i)})
	}

	history := buildCoachHistory(messages, "next")
	if len(history) != coachHistoryWindow+1 {
		t.Fatalf("expected %d messages, got %d", coachHistoryWindow+1, len(history))
	}
	if history[0].Role != "user" || history[0].Content != "8" {
		t.Fatalf("unexpected first message %+v", history[0])
	}
	if history[len(history)-1].Content != "next" {
		t.Fatalf("unexpected last message %+v", history[len(history)-1])
	}
}
