package db

import (
	"time"

	"gorm.io/gorm"
)

// Reflection 是用户针对某个反思提示写下的日记。
// 同一用户同一提示每天只保留一条，重复保存视为编辑。
type Reflection struct {
	gorm.Model
	UserID    uint      `gorm:"not null;index:idx_reflection_daily,unique,priority:1"`
	PromptID  int       `gorm:"not null;index:idx_reflection_daily,unique,priority:2"`
	EntryDate time.Time `gorm:"not null;index:idx_reflection_daily,unique,priority:3"`
	Response  string    `gorm:"type:text;not null"`
}

// TableName 自定义表名以保持命名一致。
func (Reflection) TableName() string {
	return "reflections"
}
