package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wellnest/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter atomic.Int64

type fakeHTTPClient struct {
	handler func(*http.Request) (*http.Response, error)
}

func (f fakeHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if f.handler == nil {
		return nil, errors.New("no handler configured")
	}
	return f.handler(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

// setupServiceTestDB 为每个测试打开独立的内存数据库
func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service-%d?mode=memory&cache=shared", testDBCounter.Add(1))
	gdb, err := db.Open(dsn, logger.Silent)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func seedCheckIn(t *testing.T, gdb *gorm.DB, userID uint, at time.Time, mood, energy int, sleep float64, notes *string) db.CheckIn {
	t.Helper()
	record := db.CheckIn{
		UserID:      userID,
		CreatedAt:   at,
		MoodScore:   mood,
		EnergyLevel: energy,
		SleepHours:  sleep,
		Notes:       notes,
	}
	if err := gdb.Create(&record).Error; err != nil {
		t.Fatalf("failed to seed check-in: %v", err)
	}
	return record
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func strPtr(s string) *string { return &s }

type stubCompletion struct {
	mu       sync.Mutex
	text     string
	err      error
	requests []CompletionRequest
}

func (s *stubCompletion) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return CompletionResponse{}, s.err
	}
	return CompletionResponse{Text: s.text}, nil
}

func (s *stubCompletion) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
