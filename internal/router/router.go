package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/wellnest/internal/config"
	"github.com/wellnest/internal/content"
	"github.com/wellnest/internal/handler"
	"github.com/wellnest/internal/logging"
	"github.com/wellnest/internal/service"
	"gorm.io/gorm"
)

const sessionName = "wellnest_session"

// Deps 汇总路由所需的依赖
type Deps struct {
	API           *handler.API
	SessionSecret string
	SecureCookies bool
}

// BuildAPI 根据配置加载内容目录、选择补全实现并构造 handler.API
func BuildAPI(cfg config.AppConfig, gdb *gorm.DB) (*handler.API, error) {
	catalog, err := content.Load(cfg.ContentPath)
	if err != nil {
		return nil, err
	}

	insight, coach, err := BuildCompletions(cfg, catalog)
	if err != nil {
		return nil, err
	}

	return handler.NewAPI(handler.Options{
		DB:                gdb,
		Catalog:           catalog,
		TokenSecret:       cfg.JWTSecret,
		TokenTTL:          cfg.TokenTTL,
		InsightCompletion: insight,
		CoachCompletion:   coach,
	})
}

// BuildCompletions 返回洞察与教练使用的补全实现。洞察始终走 Messages API；
// 教练默认使用脚本话术，COACH_MODE=ai 时与洞察共用同一个客户端。
func BuildCompletions(cfg config.AppConfig, catalog *content.Catalog) (service.CompletionClient, service.CompletionClient, error) {
	anthropic := service.NewAnthropicClient(service.AnthropicConfig{
		APIKey:  cfg.AnthropicAPIKey,
		BaseURL: cfg.AnthropicBaseURL,
		Model:   cfg.AnthropicModel,
	})

	switch strings.ToLower(strings.TrimSpace(cfg.CoachMode)) {
	case config.CoachModeAI:
		return anthropic, anthropic, nil
	case "", config.CoachModeScripted:
		scripted, err := service.NewScriptedCompletion(catalog.Coach.Replies, catalog.Coach.ReplyDelay())
		if err != nil {
			return nil, nil, err
		}
		return anthropic, scripted, nil
	default:
		return nil, nil, fmt.Errorf("unknown coach mode %q", cfg.CoachMode)
	}
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(deps Deps) *gin.Engine {
	handler.UseJSONFieldNames()

	r := gin.New()
	r.Use(logging.RequestLogger(), gin.Recovery())

	// 配置会话中间件
	store := cookie.NewStore([]byte(deps.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   deps.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	a := deps.API
	api := r.Group("/api")
	api.Use(a.CurrentUser(), handler.LocaleMiddleware())
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", a.Signup)
			auth.POST("/login", a.Login)
			auth.POST("/logout", a.Logout)
			auth.GET("/me", handler.AuthRequired(), a.Me)
		}

		// 洞察接口自行处理未登录的情况，返回专用提示
		api.POST("/ai-insight", a.GenerateInsight)

		private := api.Group("")
		private.Use(handler.AuthRequired())
		{
			private.GET("/checkins", a.ListCheckIns)
			private.POST("/checkins", a.CreateCheckIn)
			private.DELETE("/checkins/:id", a.DeleteCheckIn)
			private.GET("/checkins/quick-notes", a.ListQuickNotes)

			private.GET("/habits", a.ListHabits)
			private.POST("/habits", a.CreateHabit)
			private.PUT("/habits/:id", a.UpdateHabit)
			private.DELETE("/habits/:id", a.DeleteHabit)
			private.POST("/habits/:id/toggle", a.ToggleHabit)
			private.GET("/habits/:id/calendar", a.GetHabitCalendar)

			private.GET("/reflections/prompts", a.ListReflectionPrompts)
			private.GET("/reflections", a.ListReflections)
			private.POST("/reflections", a.SaveReflection)
			private.DELETE("/reflections/:id", a.DeleteReflection)

			private.POST("/coach/conversations", a.StartConversation)
			private.GET("/coach/conversations/:id", a.GetConversation)
			private.POST("/coach/conversations/:id/messages", a.SendCoachMessage)

			private.GET("/analytics/summary", a.GetAnalyticsSummary)
		}
	}

	return r
}
