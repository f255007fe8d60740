package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wellnest/internal/db"
	"github.com/wellnest/internal/logging"
	"github.com/wellnest/internal/service"
)

type checkInPayload struct {
	MoodScore   *int     `json:"mood_score" binding:"required,min=1,max=10"`
	EnergyLevel *int     `json:"energy_level" binding:"required,min=1,max=5"`
	SleepHours  *float64 `json:"sleep_hours" binding:"required,min=0,max=24"`
	Notes       *string  `json:"notes"`
}

// CreateCheckIn 保存一次心情打卡
func (a *API) CreateCheckIn(c *gin.Context) {
	userID, _ := currentUserID(c)

	var payload checkInPayload
	if !bindJSON(c, &payload, "invalid check-in") {
		return
	}

	record, err := a.checkins.Create(c.Request.Context(), userID, service.CheckInInput{
		MoodScore:   *payload.MoodScore,
		EnergyLevel: *payload.EnergyLevel,
		SleepHours:  *payload.SleepHours,
		Notes:       payload.Notes,
	})
	if err != nil {
		if errors.Is(err, service.ErrCheckInInvalid) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		logging.FromContext(c).WithError(err).Error("create check-in failed")
		respondError(c, http.StatusInternalServerError, "could not save check-in")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"checkin": checkInToPayload(*record)})
}

// ListCheckIns 返回最近的打卡，按时间倒序
func (a *API) ListCheckIns(c *gin.Context) {
	userID, _ := currentUserID(c)

	days, err := parseIntQuery(c, "days", 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := parseIntQuery(c, "limit", 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	records, err := a.checkins.ListRecent(c.Request.Context(), userID, days, limit)
	if err != nil {
		logging.FromContext(c).WithError(err).Error("list check-ins failed")
		respondError(c, http.StatusInternalServerError, "could not load check-ins")
		return
	}

	items := make([]gin.H, 0, len(records))
	for _, record := range records {
		items = append(items, checkInToPayload(record))
	}
	c.JSON(http.StatusOK, gin.H{"checkins": items})
}

// DeleteCheckIn 删除一条打卡
func (a *API) DeleteCheckIn(c *gin.Context) {
	userID, _ := currentUserID(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid check-in id")
		return
	}

	if err := a.checkins.Delete(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, service.ErrCheckInNotFound) {
			respondError(c, http.StatusNotFound, "check-in not found")
			return
		}
		logging.FromContext(c).WithError(err).Error("delete check-in failed")
		respondError(c, http.StatusInternalServerError, "could not delete check-in")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ListQuickNotes 返回备注快捷短语
func (a *API) ListQuickNotes(c *gin.Context) {
	notes := make([]string, len(a.catalog.QuickNotes))
	copy(notes, a.catalog.QuickNotes)
	c.JSON(http.StatusOK, gin.H{"quick_notes": notes})
}

func checkInToPayload(record db.CheckIn) gin.H {
	return gin.H{
		"id":           record.ID,
		"created_at":   record.CreatedAt.UTC().Format(timestampFormat),
		"mood_score":   record.MoodScore,
		"energy_level": record.EnergyLevel,
		"energy_label": service.EnergyLabel(record.EnergyLevel),
		"sleep_hours":  record.SleepHours,
		"notes":        record.Notes,
	}
}
