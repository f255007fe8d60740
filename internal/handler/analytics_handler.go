package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wellnest/internal/logging"
	"github.com/wellnest/internal/service"
)

// GetAnalyticsSummary 返回趋势、睡眠与心情相关性以及汇总
func (a *API) GetAnalyticsSummary(c *gin.Context) {
	userID, _ := currentUserID(c)

	rng, err := service.ParseAnalyticsRange(c.Query("range"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "range must be week, month or year")
		return
	}

	summary, err := a.analytics.Summary(c.Request.Context(), userID, rng)
	if err != nil {
		if errors.Is(err, service.ErrAnalyticsRangeInvalid) {
			respondError(c, http.StatusBadRequest, "range must be week, month or year")
			return
		}
		logging.FromContext(c).WithError(err).Error("analytics summary failed")
		respondError(c, http.StatusInternalServerError, "could not compute analytics")
		return
	}

	c.JSON(http.StatusOK, analyticsToPayload(summary))
}

func analyticsToPayload(summary *service.AnalyticsSummary) gin.H {
	buckets := make([]gin.H, 0, len(summary.Buckets))
	for _, bucket := range summary.Buckets {
		buckets = append(buckets, gin.H{
			"start":      bucket.Start.Format(dateFormat),
			"label":      bucket.Label,
			"avg_mood":   bucket.AvgMood,
			"avg_sleep":  bucket.AvgSleep,
			"avg_energy": bucket.AvgEnergy,
			"count":      bucket.Count,
		})
	}

	points := make([]gin.H, 0, len(summary.SleepMood))
	for _, point := range summary.SleepMood {
		points = append(points, gin.H{
			"date":        point.Date.Format(dateFormat),
			"sleep_hours": point.SleepHours,
			"mood_score":  point.MoodScore,
		})
	}

	return gin.H{
		"range":       summary.Range,
		"start":       summary.Start.Format(dateFormat),
		"end":         summary.End.Format(dateFormat),
		"buckets":     buckets,
		"sleep_mood":  points,
		"correlation": summary.Correlation,
		"totals": gin.H{
			"checkins":       summary.Totals.CheckIns,
			"avg_mood":       summary.Totals.AvgMood,
			"avg_sleep":      summary.Totals.AvgSleep,
			"avg_energy":     summary.Totals.AvgEnergy,
			"current_streak": summary.Totals.CurrentStreak,
		},
	}
}
