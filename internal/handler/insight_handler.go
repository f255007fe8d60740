package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/wellnest/internal/logging"
	"github.com/wellnest/internal/service"
)

// GenerateInsight answers POST /api/ai-insight. Every outcome is a
// {"suggestion": ...} body; failure causes are only logged.
func (a *API) GenerateInsight(c *gin.Context) {
	log := logging.FromContext(c).WithField("handler", "ai_insight")

	userID, ok := currentUserID(c)
	if !ok {
		log.WithField("outcome", "unauthenticated").Info("insight requested without identity")
		c.JSON(http.StatusUnauthorized, gin.H{"suggestion": service.InsightLoginMessage})
		return
	}

	result, err := a.insights.Generate(c.Request.Context(), service.InsightInput{
		UserID:   userID,
		Language: requestLanguage(c),
	})
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"outcome": "failed",
			"cause":   insightFailureCause(err),
			"user_id": userID,
		}).Error("insight generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"suggestion": service.InsightFallbackMessage})
		return
	}

	entry := log.WithFields(logrus.Fields{"user_id": userID, "checkins": result.CheckInCount})
	if result.Status == service.InsightNoData {
		entry.WithField("outcome", "no_data").Info("insight skipped: no recent check-ins")
	} else {
		entry.WithField("outcome", "generated").Info("insight generated")
	}

	c.JSON(http.StatusOK, gin.H{"suggestion": result.Suggestion})
}

func insightFailureCause(err error) string {
	var statusErr *service.CompletionStatusError
	switch {
	case errors.Is(err, service.ErrInsightQuery):
		return "store"
	case errors.Is(err, service.ErrCompletionAPIKeyMissing):
		return "credentials"
	case errors.As(err, &statusErr):
		return "upstream_status"
	case errors.Is(err, service.ErrInsightCompletion):
		return "upstream"
	default:
		return "unknown"
	}
}
