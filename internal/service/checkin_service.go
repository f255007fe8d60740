package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wellnest/internal/db"
	"gorm.io/gorm"
)

const (
	// MinMoodScore 与 MaxMoodScore 对应打卡页的 1–10 心情刻度
	MinMoodScore = 1
	MaxMoodScore = 10
	// MinEnergyLevel 与 MaxEnergyLevel 对应五档精力标签
	MinEnergyLevel = 1
	MaxEnergyLevel = 5
	// MaxSleepHours 一天最多 24 小时
	MaxSleepHours = 24.0

	maxNoteRunes        = 2000
	defaultCheckInDays  = 30
	defaultCheckInLimit = 50
	maxCheckInLimit     = 500
)

var (
	// ErrCheckInNotFound 在打卡记录不存在或不属于当前用户时返回
	ErrCheckInNotFound = errors.New("check-in not found")
	// ErrCheckInInvalid 表示打卡数据超出允许范围
	ErrCheckInInvalid = errors.New("invalid check-in")
)

// CheckInInput 定义提交打卡时可配置字段
type CheckInInput struct {
	MoodScore   int
	EnergyLevel int
	SleepHours  float64
	Notes       *string
}

// CheckInFilter 指定查询窗口
type CheckInFilter struct {
	Since time.Time
	Limit int
}

// CheckInService 负责打卡记录的写入与查询
type CheckInService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCheckInService 构造 CheckInService
func NewCheckInService(gdb *gorm.DB) *CheckInService {
	return &CheckInService{db: gdb, now: time.Now}
}

// Create 校验并保存一次打卡
func (s *CheckInService) Create(ctx context.Context, userID uint, input CheckInInput) (*db.CheckIn, error) {
	if err := validateCheckInInput(input); err != nil {
		return nil, err
	}

	record := db.CheckIn{
		UserID:      userID,
		MoodScore:   input.MoodScore,
		EnergyLevel: input.EnergyLevel,
		SleepHours:  input.SleepHours,
	}
	if input.Notes != nil {
		if note := truncateRunes(sanitizePlainText(*input.Notes), maxNoteRunes); note != "" {
			record.Notes = &note
		}
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("create check-in: %w", err)
	}
	return &record, nil
}

// ListSince 返回 created_at >= Since 的记录，按时间倒序，最多 Limit 条
func (s *CheckInService) ListSince(ctx context.Context, userID uint, filter CheckInFilter) ([]db.CheckIn, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultCheckInLimit
	}
	if limit > maxCheckInLimit {
		limit = maxCheckInLimit
	}

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}

	var records []db.CheckIn
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	return records, nil
}

// ListRecent 返回最近 days 天内的记录
func (s *CheckInService) ListRecent(ctx context.Context, userID uint, days, limit int) ([]db.CheckIn, error) {
	if days <= 0 {
		days = defaultCheckInDays
	}
	return s.ListSince(ctx, userID, CheckInFilter{
		Since: s.now().AddDate(0, 0, -days),
		Limit: limit,
	})
}

// ListBetween 返回区间内的记录，按时间正序，供统计使用
func (s *CheckInService) ListBetween(ctx context.Context, userID uint, start, end time.Time) ([]db.CheckIn, error) {
	var records []db.CheckIn
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, start, end).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list check-ins between: %w", err)
	}
	return records, nil
}

// Delete 删除当前用户的一条打卡
func (s *CheckInService) Delete(ctx context.Context, userID, id uint) error {
	result := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&db.CheckIn{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete check-in: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCheckInNotFound
	}
	return nil
}

func validateCheckInInput(input CheckInInput) error {
	if input.MoodScore < MinMoodScore || input.MoodScore > MaxMoodScore {
		return fmt.Errorf("%w: mood score must be between %d and %d", ErrCheckInInvalid, MinMoodScore, MaxMoodScore)
	}
	if input.EnergyLevel < MinEnergyLevel || input.EnergyLevel > MaxEnergyLevel {
		return fmt.Errorf("%w: energy level must be between %d and %d", ErrCheckInInvalid, MinEnergyLevel, MaxEnergyLevel)
	}
	if math.IsNaN(input.SleepHours) || input.SleepHours < 0 || input.SleepHours > MaxSleepHours {
		return fmt.Errorf("%w: sleep hours must be between 0 and 24", ErrCheckInInvalid)
	}
	return nil
}

func truncateRunes(input string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(input)
	if len(runes) <= limit {
		return input
	}
	return string(runes[:limit])
}
