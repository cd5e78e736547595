package model

import "time"

// Mood 每日心情记录（接受后不可变，仅追加）
type Mood struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    *string   `gorm:"type:varchar(36);index:idx_mood_user_day"`
	DeviceID  string    `gorm:"type:varchar(64);index:idx_mood_device_day;not null"`
	MoodType  string    `gorm:"type:varchar(16);index:idx_mood_day_type;not null"`
	Country   *string   `gorm:"type:varchar(2);index:idx_mood_day_country"`
	Locale    *string   `gorm:"type:varchar(16)"`
	Comment   *string   `gorm:"type:varchar(500)"`
	Day       string    `gorm:"type:varchar(10);index:idx_mood_user_day;index:idx_mood_device_day;index:idx_mood_day_type;index:idx_mood_day_country;not null"` // YYYY-MM-DD
	CreatedAt time.Time
}

func (Mood) TableName() string { return "moods" }
