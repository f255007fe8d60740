package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/wellnest/internal/config"
	"github.com/wellnest/internal/content"
	"github.com/wellnest/internal/db"
	"github.com/wellnest/internal/handler"
	"github.com/wellnest/internal/service"
	"gorm.io/gorm/logger"
)

type staticCompletion string

func (s staticCompletion) Complete(context.Context, service.CompletionRequest) (service.CompletionResponse, error) {
	return service.CompletionResponse{Text: string(s)}, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.Open("file:router-test?mode=memory&cache=shared", logger.Silent)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	api, err := handler.NewAPI(handler.Options{
		DB:                gdb,
		TokenSecret:       "test-secret",
		InsightCompletion: staticCompletion("insight"),
		CoachCompletion:   staticCompletion("coach"),
	})
	if err != nil {
		t.Fatalf("failed to build api: %v", err)
	}

	return SetupRouter(Deps{API: api, SessionSecret: "test-secret"})
}

func TestPing(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), "pong") {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}

func TestPrivateRoutesRequireAuth(t *testing.T) {
	r := newTestRouter(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/checkins"},
		{http.MethodPost, "/api/checkins"},
		{http.MethodGet, "/api/checkins/quick-notes"},
		{http.MethodGet, "/api/habits"},
		{http.MethodPost, "/api/habits/1/toggle"},
		{http.MethodGet, "/api/reflections/prompts"},
		{http.MethodPost, "/api/coach/conversations"},
		{http.MethodGet, "/api/analytics/summary"},
		{http.MethodGet, "/api/auth/me"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(route.method, route.path, nil))
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected status 401, got %d", w.Code)
			}
		})
	}
}

func TestInsightRouteAnonymous(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/ai-insight", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["suggestion"] != service.InsightLoginMessage {
		t.Fatalf("unexpected suggestion %q", body["suggestion"])
	}
	if w.Header().Get("Content-Language") == "" {
		t.Fatal("expected Content-Language header")
	}
}

func TestBuildCompletions(t *testing.T) {
	catalog, err := content.Default()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	tests := []struct {
		name        string
		mode        string
		wantErr     bool
		wantScripts bool
	}{
		{name: "default is scripted", mode: "", wantScripts: true},
		{name: "scripted", mode: config.CoachModeScripted, wantScripts: true},
		{name: "ai", mode: config.CoachModeAI},
		{name: "unknown", mode: "oracle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insight, coach, err := BuildCompletions(config.AppConfig{CoachMode: tt.mode}, catalog)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, ok := insight.(*service.AnthropicClient); !ok {
				t.Fatalf("expected insight to use the messages api client, got %T", insight)
			}
			_, scripted := coach.(*service.ScriptedCompletion)
			if scripted != tt.wantScripts {
				t.Fatalf("expected scripted=%v, got %T", tt.wantScripts, coach)
			}
		})
	}
}
