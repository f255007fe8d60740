package handler

import (
	"errors"
	"time"

	"github.com/wellnest/internal/content"
	"github.com/wellnest/internal/service"
	"gorm.io/gorm"
)

// Options carries everything NewAPI needs to wire the handler set.
type Options struct {
	DB          *gorm.DB
	Catalog     *content.Catalog
	TokenSecret string
	TokenTTL    time.Duration
	// InsightCompletion backs POST /api/ai-insight.
	InsightCompletion service.CompletionClient
	// CoachCompletion backs the coach chat; scripted or model-backed.
	CoachCompletion service.CompletionClient
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db          *gorm.DB
	catalog     *content.Catalog
	users       *service.UserService
	tokens      *service.TokenService
	checkins    *service.CheckInService
	insights    insightGenerator
	habits      *service.HabitService
	habitLogs   *service.HabitLogService
	reflections *service.ReflectionService
	coach       *service.CoachService
	analytics   analyticsProvider
}

// NewAPI constructs a handler set with shared services.
func NewAPI(opts Options) (*API, error) {
	if opts.DB == nil {
		return nil, errors.New("handler: database is required")
	}
	if opts.InsightCompletion == nil || opts.CoachCompletion == nil {
		return nil, errors.New("handler: completion clients are required")
	}

	catalog := opts.Catalog
	if catalog == nil {
		defaultCatalog, err := content.Default()
		if err != nil {
			return nil, err
		}
		catalog = defaultCatalog
	}

	tokens, err := service.NewTokenService(opts.TokenSecret, opts.TokenTTL)
	if err != nil {
		return nil, err
	}

	checkins := service.NewCheckInService(opts.DB)

	return &API{
		db:          opts.DB,
		catalog:     catalog,
		users:       service.NewUserService(opts.DB),
		tokens:      tokens,
		checkins:    checkins,
		insights:    service.NewInsightService(checkins, opts.InsightCompletion),
		habits:      service.NewHabitService(opts.DB),
		habitLogs:   service.NewHabitLogService(opts.DB),
		reflections: service.NewReflectionService(opts.DB, catalog),
		coach:       service.NewCoachService(opts.CoachCompletion, catalog.Coach.Greeting),
		analytics:   service.NewAnalyticsService(checkins),
	}, nil
}

// DB exposes the underlying gorm instance for health checks.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Coach exposes the conversation store so the server can sweep idle sessions.
func (a *API) Coach() *service.CoachService {
	return a.coach
}
