package db

import "time"

// CheckIn 记录一次情绪打卡：心情、精力、睡眠与可选备注。
// 表名沿用 moods，(user_id, created_at) 复合索引服务于按时间窗口倒序查询。
type CheckIn struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      uint      `gorm:"not null;index:idx_moods_user_created,priority:1"`
	CreatedAt   time.Time `gorm:"index:idx_moods_user_created,priority:2"`
	UpdatedAt   time.Time
	MoodScore   int     `gorm:"not null"`
	EnergyLevel int     `gorm:"not null"`
	SleepHours  float64 `gorm:"not null"`
	Notes       *string `gorm:"type:text"`
}

// TableName 固定为 moods
func (CheckIn) TableName() string {
	return "moods"
}

// HasNote 判断备注是否存在且非空
func (c CheckIn) HasNote() bool {
	return c.Notes != nil && *c.Notes != ""
}
