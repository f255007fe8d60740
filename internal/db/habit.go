package db

import (
	"time"

	"gorm.io/gorm"
)

// Habit 定义了习惯模型
// 每个习惯归属于一个用户；Frequency 目前支持 daily/weekly
// Category 与 Icon 用于前端分组展示
type Habit struct {
	gorm.Model
	UserID    uint `gorm:"not null;index"`
	Name      string
	Category  string
	Icon      string
	Frequency string
}

// HabitLog 记录习惯打卡日志
// Habit + LogDate 采用唯一索引，保证同一天最多一条记录
type HabitLog struct {
	gorm.Model
	HabitID uint      `gorm:"index;index:idx_habit_log_unique,unique"`
	Habit   Habit     `gorm:"constraint:OnDelete:CASCADE"`
	LogDate time.Time `gorm:"index:idx_habit_log_unique,unique"`
	Note    string
}

// TableName 重写确保唯一索引作用到 habit_id + log_date
func (HabitLog) TableName() string {
	return "habit_logs"
}
