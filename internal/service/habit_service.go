package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wellnest/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrHabitNotFound 在指定习惯不存在或不属于当前用户时返回
	ErrHabitNotFound = errors.New("habit not found")
	// ErrHabitInvalidFrequency 当频率配置异常时返回
	ErrHabitInvalidFrequency = errors.New("invalid habit frequency configuration")
	// ErrHabitNameRequired 名称为空时返回
	ErrHabitNameRequired = errors.New("habit name is required")
)

const (
	defaultHabitCategory  = "Other"
	defaultHabitIcon      = "⭐"
	defaultHabitFrequency = "daily"
	maxHabitNameRunes     = 80
)

// HabitService 负责 Habit 数据的增删改查，所有操作都限定在单个用户内
type HabitService struct {
	db *gorm.DB
}

// HabitInput 定义创建/更新习惯时可配置字段
type HabitInput struct {
	Name      string
	Category  string
	Icon      string
	Frequency string
}

// NewHabitService 构造 HabitService
func NewHabitService(gdb *gorm.DB) *HabitService {
	return &HabitService{db: gdb}
}

// List 返回用户的全部习惯，按创建时间正序
func (s *HabitService) List(ctx context.Context, userID uint) ([]db.Habit, error) {
	var habits []db.Habit
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

// Get 根据 ID 获取习惯
func (s *HabitService) Get(ctx context.Context, userID, id uint) (*db.Habit, error) {
	var habit db.Habit
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&habit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return &habit, nil
}

// Create 新建习惯，未填写的分类/图标/频率使用默认值
func (s *HabitService) Create(ctx context.Context, userID uint, input HabitInput) (*db.Habit, error) {
	normalized, err := normalizeHabitInput(input)
	if err != nil {
		return nil, err
	}

	habit := db.Habit{
		UserID:    userID,
		Name:      normalized.Name,
		Category:  normalized.Category,
		Icon:      normalized.Icon,
		Frequency: normalized.Frequency,
	}
	if err := s.db.WithContext(ctx).Create(&habit).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return &habit, nil
}

// Update 更新习惯
func (s *HabitService) Update(ctx context.Context, userID, id uint, input HabitInput) (*db.Habit, error) {
	normalized, err := normalizeHabitInput(input)
	if err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	existing.Name = normalized.Name
	existing.Category = normalized.Category
	existing.Icon = normalized.Icon
	existing.Frequency = normalized.Frequency

	if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return existing, nil
}

// Delete 删除习惯及其打卡记录
func (s *HabitService) Delete(ctx context.Context, userID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ?", userID).Delete(&db.Habit{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete habit: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrHabitNotFound
		}
		if err := tx.Where("habit_id = ?", id).Delete(&db.HabitLog{}).Error; err != nil {
			return fmt.Errorf("delete habit logs: %w", err)
		}
		return nil
	})
}

func normalizeHabitInput(input HabitInput) (HabitInput, error) {
	name := truncateRunes(sanitizePlainText(input.Name), maxHabitNameRunes)
	if name == "" {
		return HabitInput{}, ErrHabitNameRequired
	}

	frequency := strings.ToLower(strings.TrimSpace(input.Frequency))
	if frequency == "" {
		frequency = defaultHabitFrequency
	}
	if frequency != "daily" && frequency != "weekly" {
		return HabitInput{}, fmt.Errorf("%w: unsupported frequency %s", ErrHabitInvalidFrequency, input.Frequency)
	}

	category := sanitizePlainText(input.Category)
	if category == "" {
		category = defaultHabitCategory
	}
	icon := strings.TrimSpace(input.Icon)
	if icon == "" {
		icon = defaultHabitIcon
	}

	return HabitInput{Name: name, Category: category, Icon: icon, Frequency: frequency}, nil
}

// HabitLogService 负责打卡与统计逻辑
type HabitLogService struct {
	db  *gorm.DB
	now func() time.Time
}

// HabitLogFilter 指定查询区间
type HabitLogFilter struct {
	HabitID uint
	Start   time.Time
	End     time.Time
}

// HabitStats 汇总基础统计数据
type HabitStats struct {
	RangeStart     time.Time
	RangeEnd       time.Time
	CompletedCount int
	TargetCount    int
	CompletionRate float64
	CurrentStreak  int
	LongestStreak  int
}

// HabitOverview 是习惯列表中每一项的展示数据
type HabitOverview struct {
	Habit          db.Habit
	CompletedToday bool
	CurrentStreak  int
	LongestStreak  int
}

// HabitSummary 汇总习惯页顶部的统计
type HabitSummary struct {
	Habits         []HabitOverview
	CompletedCount int
	TotalStreak    int
}

// NewHabitLogService 构造 HabitLogService
func NewHabitLogService(gdb *gorm.DB) *HabitLogService {
	return &HabitLogService{db: gdb, now: time.Now}
}

// SetClock 覆盖当前时间来源，主要用于测试。
func (s *HabitLogService) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// Toggle 切换今天的完成状态：未打卡则新增，已打卡则删除。返回切换后的状态。
func (s *HabitLogService) Toggle(ctx context.Context, habit db.Habit) (bool, error) {
	today := normalizeToDate(s.now())
	completed := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing db.HabitLog
		err := tx.Unscoped().Where("habit_id = ? AND log_date = ?", habit.ID, today).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			completed = true
			return tx.Create(&db.HabitLog{HabitID: habit.ID, LogDate: today}).Error
		case err != nil:
			return err
		case existing.DeletedAt.Valid:
			completed = true
			return tx.Unscoped().Model(&existing).Update("deleted_at", nil).Error
		default:
			completed = false
			return tx.Unscoped().Delete(&existing).Error
		}
	})
	if err != nil {
		return false, fmt.Errorf("toggle habit log: %w", err)
	}
	return completed, nil
}

// ListBetween 返回指定区间内的打卡记录
func (s *HabitLogService) ListBetween(ctx context.Context, filter HabitLogFilter) ([]db.HabitLog, error) {
	if filter.HabitID == 0 {
		return nil, fmt.Errorf("habit id is required")
	}

	var logs []db.HabitLog
	if err := s.db.WithContext(ctx).
		Where("habit_id = ?", filter.HabitID).
		Where("log_date BETWEEN ? AND ?", normalizeToDate(filter.Start), normalizeToDate(filter.End)).
		Order("log_date ASC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}
	return logs, nil
}

// StatsBetween 计算区间内的完成数、目标完成数及连胜
func (s *HabitLogService) StatsBetween(ctx context.Context, filter HabitLogFilter, habit db.Habit) (*HabitStats, error) {
	logs, err := s.ListBetween(ctx, filter)
	if err != nil {
		return nil, err
	}

	stats := &HabitStats{
		RangeStart:     filter.Start,
		RangeEnd:       filter.End,
		CompletedCount: len(logs),
		TargetCount:    expectedCount(habit, filter.Start, filter.End),
	}
	if stats.TargetCount <= 0 {
		stats.TargetCount = stats.CompletedCount
	}
	if stats.TargetCount > 0 {
		stats.CompletionRate = float64(stats.CompletedCount) / float64(stats.TargetCount)
	}

	dates := make([]time.Time, 0, len(logs))
	for _, log := range logs {
		dates = append(dates, log.LogDate)
	}
	stats.CurrentStreak, stats.LongestStreak = calculateStreaks(dates, normalizeToDate(filter.End))
	return stats, nil
}

// Summary 返回用户全部习惯的今日状态与连胜天数
func (s *HabitLogService) Summary(ctx context.Context, habits []db.Habit) (*HabitSummary, error) {
	summary := &HabitSummary{Habits: make([]HabitOverview, 0, len(habits))}
	if len(habits) == 0 {
		return summary, nil
	}

	ids := make([]uint, 0, len(habits))
	for _, habit := range habits {
		ids = append(ids, habit.ID)
	}

	var logs []db.HabitLog
	if err := s.db.WithContext(ctx).
		Where("habit_id IN ?", ids).
		Order("log_date ASC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}

	byHabit := make(map[uint][]time.Time, len(habits))
	for _, log := range logs {
		byHabit[log.HabitID] = append(byHabit[log.HabitID], log.LogDate)
	}

	today := normalizeToDate(s.now())
	for _, habit := range habits {
		dates := byHabit[habit.ID]
		current, longest := calculateStreaks(dates, today)
		overview := HabitOverview{
			Habit:          habit,
			CompletedToday: len(dates) > 0 && sameDay(dates[len(dates)-1], today),
			CurrentStreak:  current,
			LongestStreak:  longest,
		}
		if overview.CompletedToday {
			summary.CompletedCount++
		}
		summary.TotalStreak += current
		summary.Habits = append(summary.Habits, overview)
	}
	return summary, nil
}

func normalizeToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func expectedCount(habit db.Habit, start, end time.Time) int {
	if end.Before(start) {
		return 0
	}

	days := daysBetween(start, end) + 1
	if strings.ToLower(habit.Frequency) == "weekly" {
		weeks := days / 7
		if weeks == 0 {
			weeks = 1
		}
		return weeks
	}
	return days
}

// calculateStreaks 输入为升序日期。当前连胜以 asOf 当天或前一天结尾才计数，
// 今天还没打卡不会让连胜归零。
func calculateStreaks(dates []time.Time, asOf time.Time) (current, longest int) {
	if len(dates) == 0 {
		return 0, 0
	}

	run := 1
	longest = 1
	for i := 1; i < len(dates); i++ {
		switch daysBetween(dates[i-1], dates[i]) {
		case 0:
			continue
		case 1:
			run++
		default:
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	if gap := daysBetween(dates[len(dates)-1], asOf); gap == 0 || gap == 1 {
		current = run
	}
	return current, longest
}
