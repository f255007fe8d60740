package handler

import (
	"context"

	"github.com/wellnest/internal/service"
)

type analyticsProvider interface {
	Summary(ctx context.Context, userID uint, rng service.AnalyticsRange) (*service.AnalyticsSummary, error)
}

type insightGenerator interface {
	Generate(ctx context.Context, input service.InsightInput) (service.InsightResult, error)
}
