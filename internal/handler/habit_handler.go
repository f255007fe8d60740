package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wellnest/internal/db"
	"github.com/wellnest/internal/logging"
	"github.com/wellnest/internal/service"
)

const defaultHabitView = "monthly"

type habitPayload struct {
	Name      string `json:"name" binding:"required"`
	Category  string `json:"category"`
	Icon      string `json:"icon"`
	Frequency string `json:"frequency"`
}

// ListHabits 返回习惯列表及今日完成情况
func (a *API) ListHabits(c *gin.Context) {
	userID, _ := currentUserID(c)
	ctx := c.Request.Context()

	habits, err := a.habits.List(ctx, userID)
	if err != nil {
		logging.FromContext(c).WithError(err).Error("list habits failed")
		respondError(c, http.StatusInternalServerError, "could not load habits")
		return
	}

	summary, err := a.habitLogs.Summary(ctx, habits)
	if err != nil {
		logging.FromContext(c).WithError(err).Error("summarize habits failed")
		respondError(c, http.StatusInternalServerError, "could not load habits")
		return
	}

	items := make([]gin.H, 0, len(summary.Habits))
	for _, overview := range summary.Habits {
		item := habitToPayload(overview.Habit)
		item["completed_today"] = overview.CompletedToday
		item["current_streak"] = overview.CurrentStreak
		item["longest_streak"] = overview.LongestStreak
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{
		"habits": items,
		"summary": gin.H{
			"total":           len(items),
			"completed_count": summary.CompletedCount,
			"total_streak":    summary.TotalStreak,
		},
	})
}

// CreateHabit 创建习惯
func (a *API) CreateHabit(c *gin.Context) {
	userID, _ := currentUserID(c)

	var payload habitPayload
	if !bindJSON(c, &payload, "invalid habit") {
		return
	}

	habit, err := a.habits.Create(c.Request.Context(), userID, payload.toInput())
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"habit": habitToPayload(*habit)})
}

// UpdateHabit 更新习惯
func (a *API) UpdateHabit(c *gin.Context) {
	userID, _ := currentUserID(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid habit id")
		return
	}

	var payload habitPayload
	if !bindJSON(c, &payload, "invalid habit") {
		return
	}

	habit, err := a.habits.Update(c.Request.Context(), userID, id, payload.toInput())
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}

// DeleteHabit 删除习惯
func (a *API) DeleteHabit(c *gin.Context) {
	userID, _ := currentUserID(c)

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid habit id")
		return
	}

	if err := a.habits.Delete(c.Request.Context(), userID, id); err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ToggleHabit 切换今天的完成状态
func (a *API) ToggleHabit(c *gin.Context) {
	userID, _ := currentUserID(c)
	ctx := c.Request.Context()

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid habit id")
		return
	}

	habit, err := a.habits.Get(ctx, userID, id)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	completed, err := a.habitLogs.Toggle(ctx, *habit)
	if err != nil {
		logging.FromContext(c).WithError(err).Error("toggle habit failed")
		respondError(c, http.StatusInternalServerError, "could not update habit")
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit_id": habit.ID, "completed_today": completed})
}

// GetHabitCalendar 返回日期区间内的打卡数据和统计
func (a *API) GetHabitCalendar(c *gin.Context) {
	userID, _ := currentUserID(c)
	ctx := c.Request.Context()

	habitID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid habit id")
		return
	}

	habit, err := a.habits.Get(ctx, userID, habitID)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	view := c.DefaultQuery("view", defaultHabitView)
	start, end := resolveRange(c.Query("start"), view, time.Now())
	filter := service.HabitLogFilter{HabitID: habit.ID, Start: start, End: end}

	logs, err := a.habitLogs.ListBetween(ctx, filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not load habit logs")
		return
	}

	stats, err := a.habitLogs.StatsBetween(ctx, filter, *habit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not compute habit stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"habit": habitToPayload(*habit),
		"logs":  serializeHabitLogs(logs),
		"stats": serializeHabitStats(stats),
		"range": gin.H{"start": start.Format(dateFormat), "end": end.Format(dateFormat), "view": view},
	})
}

func (p habitPayload) toInput() service.HabitInput {
	return service.HabitInput{
		Name:      p.Name,
		Category:  p.Category,
		Icon:      p.Icon,
		Frequency: p.Frequency,
	}
}

func habitToPayload(habit db.Habit) gin.H {
	return gin.H{
		"id":         habit.ID,
		"name":       habit.Name,
		"category":   habit.Category,
		"icon":       habit.Icon,
		"frequency":  habit.Frequency,
		"created_at": habit.CreatedAt.UTC().Format(timestampFormat),
	}
}

func serializeHabitLogs(logs []db.HabitLog) []gin.H {
	items := make([]gin.H, 0, len(logs))
	for _, log := range logs {
		items = append(items, gin.H{
			"id":       log.ID,
			"habit_id": log.HabitID,
			"log_date": log.LogDate.Format(dateFormat),
			"note":     log.Note,
		})
	}
	return items
}

func serializeHabitStats(stats *service.HabitStats) gin.H {
	return gin.H{
		"range_start":     stats.RangeStart.Format(dateFormat),
		"range_end":       stats.RangeEnd.Format(dateFormat),
		"completed_count": stats.CompletedCount,
		"target_count":    stats.TargetCount,
		"completion_rate": stats.CompletionRate,
		"current_streak":  stats.CurrentStreak,
		"longest_streak":  stats.LongestStreak,
	}
}

// resolveRange 计算日历视图的起止日期；weekly 从周一开始，其余按自然月
func resolveRange(startStr, view string, now time.Time) (time.Time, time.Time) {
	var start time.Time
	var err error

	if startStr != "" {
		start, err = time.ParseInLocation(dateFormat, startStr, now.Location())
	}
	if err != nil || startStr == "" {
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}

	switch strings.ToLower(view) {
	case "weekly":
		weekday := int(start.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start = start.AddDate(0, 0, -weekday+1)
		return start, start.AddDate(0, 0, 6)
	default:
		start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
		return start, start.AddDate(0, 1, -1)
	}
}

func handleHabitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrHabitNotFound):
		respondError(c, http.StatusNotFound, "habit not found")
	case errors.Is(err, service.ErrHabitInvalidFrequency):
		respondError(c, http.StatusBadRequest, "frequency must be daily or weekly")
	case errors.Is(err, service.ErrHabitNameRequired):
		respondError(c, http.StatusBadRequest, "habit name is required")
	default:
		logging.FromContext(c).WithError(err).Error("habit operation failed")
		respondError(c, http.StatusInternalServerError, "could not process habit")
	}
}
