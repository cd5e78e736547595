package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nuqta-lab/mooda/internal/model"
)

// MoodRepository 心情日志仓储（仅追加，不更新不删除）
type MoodRepository interface {
	Create(ctx context.Context, mood *model.Mood) error
	FindByDay(ctx context.Context, day string) ([]*model.Mood, error)
	FindByDayRange(ctx context.Context, start, end string) ([]*model.Mood, error)
	FindByUserOrderByDayDesc(ctx context.Context, userID string, limit int) ([]*model.Mood, error)
}

type moodRepository struct{ db *gorm.DB }

func NewMoodRepository(db *gorm.DB) MoodRepository { return &moodRepository{db: db} }

func (r *moodRepository) Create(ctx context.Context, mood *model.Mood) error {
	// 幂等：并发下同 ID 重复插入不报错（守卫已保证业务唯一性）
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(mood).Error
}

func (r *moodRepository) FindByDay(ctx context.Context, day string) ([]*model.Mood, error) {
	var res []*model.Mood
	err := r.db.WithContext(ctx).Where("day = ?", day).Find(&res).Error
	return res, err
}

func (r *moodRepository) FindByDayRange(ctx context.Context, start, end string) ([]*model.Mood, error) {
	var res []*model.Mood
	err := r.db.WithContext(ctx).Where("day >= ? AND day <= ?", start, end).Find(&res).Error
	return res, err
}

func (r *moodRepository) FindByUserOrderByDayDesc(ctx context.Context, userID string, limit int) ([]*model.Mood, error) {
	var res []*model.Mood
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("day DESC").
		Limit(limit).
		Find(&res).Error
	return res, err
}
