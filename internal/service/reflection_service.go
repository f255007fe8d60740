package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wellnest/internal/content"
	"github.com/wellnest/internal/db"
	"gorm.io/gorm"
)

const (
	maxReflectionRunes     = 5000
	defaultReflectionLimit = 50
)

var (
	// ErrReflectionNotFound 在日记不存在或不属于当前用户时返回
	ErrReflectionNotFound = errors.New("reflection not found")
	// ErrReflectionPromptUnknown 提示 ID 不在目录中
	ErrReflectionPromptUnknown = errors.New("unknown reflection prompt")
	// ErrReflectionEmpty 内容为空
	ErrReflectionEmpty = errors.New("reflection response is required")
)

// ReflectionInput 保存日记所需字段
type ReflectionInput struct {
	PromptID int
	Response string
}

// ReflectionEntry 是带提示信息与渲染结果的日记
type ReflectionEntry struct {
	Reflection db.Reflection
	Prompt     content.ReflectionPrompt
	HTML       string
}

// ReflectionService 管理每日反思
type ReflectionService struct {
	db      *gorm.DB
	catalog *content.Catalog
	now     func() time.Time
}

// NewReflectionService 构造 ReflectionService
func NewReflectionService(gdb *gorm.DB, catalog *content.Catalog) *ReflectionService {
	return &ReflectionService{db: gdb, catalog: catalog, now: time.Now}
}

// Prompts 返回可选的反思提示
func (s *ReflectionService) Prompts() []content.ReflectionPrompt {
	prompts := make([]content.ReflectionPrompt, len(s.catalog.ReflectionPrompts))
	copy(prompts, s.catalog.ReflectionPrompts)
	return prompts
}

// Save 保存当天针对某个提示的日记，同一天重复保存会覆盖内容
func (s *ReflectionService) Save(ctx context.Context, userID uint, input ReflectionInput) (*ReflectionEntry, error) {
	prompt, ok := s.catalog.Prompt(input.PromptID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrReflectionPromptUnknown, input.PromptID)
	}

	response := truncateRunes(strings.TrimSpace(input.Response), maxReflectionRunes)
	if response == "" {
		return nil, ErrReflectionEmpty
	}

	entryDate := normalizeToDate(s.now())
	var record db.Reflection
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND prompt_id = ? AND entry_date = ?", userID, prompt.ID, entryDate).
			First(&record).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			record = db.Reflection{
				UserID:    userID,
				PromptID:  prompt.ID,
				EntryDate: entryDate,
				Response:  response,
			}
			return tx.Create(&record).Error
		case err != nil:
			return err
		default:
			record.Response = response
			return tx.Save(&record).Error
		}
	})
	if err != nil {
		return nil, fmt.Errorf("save reflection: %w", err)
	}

	return s.toEntry(record, prompt)
}

// List 返回用户的日记，按日期倒序
func (s *ReflectionService) List(ctx context.Context, userID uint, limit int) ([]ReflectionEntry, error) {
	if limit <= 0 {
		limit = defaultReflectionLimit
	}

	var records []db.Reflection
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("entry_date DESC").
		Order("updated_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list reflections: %w", err)
	}

	entries := make([]ReflectionEntry, 0, len(records))
	for _, record := range records {
		prompt, _ := s.catalog.Prompt(record.PromptID)
		entry, err := s.toEntry(record, prompt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// Delete 删除一条日记
func (s *ReflectionService) Delete(ctx context.Context, userID, id uint) error {
	result := s.db.WithContext(ctx).Unscoped().Where("user_id = ?", userID).Delete(&db.Reflection{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete reflection: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReflectionNotFound
	}
	return nil
}

func (s *ReflectionService) toEntry(record db.Reflection, prompt content.ReflectionPrompt) (*ReflectionEntry, error) {
	rendered, err := renderMarkdown(record.Response)
	if err != nil {
		return nil, fmt.Errorf("render reflection: %w", err)
	}
	return &ReflectionEntry{Reflection: record, Prompt: prompt, HTML: rendered}, nil
}
