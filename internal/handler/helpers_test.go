package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/wellnest/internal/db"
	"github.com/wellnest/internal/service"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter atomic.Int64

type stubCompletion struct {
	mu       sync.Mutex
	text     string
	err      error
	requests []service.CompletionRequest
}

func (s *stubCompletion) Complete(_ context.Context, req service.CompletionRequest) (service.CompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return service.CompletionResponse{}, s.err
	}
	return service.CompletionResponse{Text: s.text}, nil
}

func (s *stubCompletion) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *stubCompletion) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 || len(s.requests[len(s.requests)-1].Messages) == 0 {
		return ""
	}
	msgs := s.requests[len(s.requests)-1].Messages
	return msgs[len(msgs)-1].Content
}

// setupTestAPI 为每个测试构造独立的内存数据库和 API
func setupTestAPI(t *testing.T, insight, coach service.CompletionClient) (*API, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	UseJSONFieldNames()

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", testDBCounter.Add(1))
	gdb, err := db.Open(dsn, logger.Silent)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if insight == nil {
		insight = &stubCompletion{text: "ok"}
	}
	if coach == nil {
		coach = &stubCompletion{text: "coach reply"}
	}

	api, err := NewAPI(Options{
		DB:                gdb,
		TokenSecret:       "test-secret",
		InsightCompletion: insight,
		CoachCompletion:   coach,
	})
	if err != nil {
		t.Fatalf("failed to build api: %v", err)
	}
	return api, gdb
}

func seedUser(t *testing.T, api *API, username string) *db.User {
	t.Helper()
	user, err := api.users.Register(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

// callHandler 直接调用 handler；userID 为 0 表示匿名请求
func callHandler(t *testing.T, h gin.HandlerFunc, method, target string, body any, userID uint, params gin.Params) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params
	if userID != 0 {
		c.Set(userIDContextKey, userID)
	}

	h(c)
	return w
}

func idParam(id uint) gin.Params {
	return gin.Params{gin.Param{Key: "id", Value: fmt.Sprintf("%d", id)}}
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

// newSessionEngine 挂载会话与身份解析中间件，供认证相关测试使用
func newSessionEngine(api *API) *gin.Engine {
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.Use(api.CurrentUser(), LocaleMiddleware())
	return r
}

func doJSON(r http.Handler, method, target string, body any, header http.Header) *httptest.ResponseRecorder {
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
