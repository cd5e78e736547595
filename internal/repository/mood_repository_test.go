package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nuqta-lab/mooda/internal/model"
)

func newRepo(t *testing.T) MoodRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Mood{}))
	return NewMoodRepository(db)
}

func mood(id, day, moodType string, userID *string) *model.Mood {
	return &model.Mood{
		ID:        id,
		UserID:    userID,
		DeviceID:  "dev",
		MoodType:  moodType,
		Day:       day,
		CreatedAt: time.Now(),
	}
}

func TestCreateIdempotentOnSameID(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, mood("m1", "2024-05-01", "HAPPY", nil)))
	// 同 ID 重复插入静默忽略
	require.NoError(t, repo.Create(ctx, mood("m1", "2024-05-01", "SAD", nil)))

	records, err := repo.FindByDay(ctx, "2024-05-01")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "HAPPY", records[0].MoodType)
}

func TestFindByDay(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, mood("m1", "2024-05-01", "HAPPY", nil)))
	require.NoError(t, repo.Create(ctx, mood("m2", "2024-05-01", "SAD", nil)))
	require.NoError(t, repo.Create(ctx, mood("m3", "2024-05-02", "CALM", nil)))

	records, err := repo.FindByDay(ctx, "2024-05-01")
	require.NoError(t, err)
	require.Len(t, records, 2)

	records, err = repo.FindByDay(ctx, "2024-05-03")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestFindByDayRangeInclusive(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	for _, day := range []string{"2024-04-30", "2024-05-01", "2024-05-02", "2024-05-03"} {
		require.NoError(t, repo.Create(ctx, mood("m"+day, day, "HAPPY", nil)))
	}

	records, err := repo.FindByDayRange(ctx, "2024-05-01", "2024-05-02")
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestFindByUserOrderByDayDesc(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	uid := "u1"

	require.NoError(t, repo.Create(ctx, mood("m1", "2024-04-29", "HAPPY", &uid)))
	require.NoError(t, repo.Create(ctx, mood("m2", "2024-05-01", "SAD", &uid)))
	require.NoError(t, repo.Create(ctx, mood("m3", "2024-04-30", "CALM", &uid)))
	// 其他身份与匿名提交不掺入
	other := "u2"
	require.NoError(t, repo.Create(ctx, mood("m4", "2024-05-01", "ANGRY", &other)))
	require.NoError(t, repo.Create(ctx, mood("m5", "2024-05-01", "TIRED", nil)))

	records, err := repo.FindByUserOrderByDayDesc(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "2024-05-01", records[0].Day)
	require.Equal(t, "2024-04-30", records[1].Day)
}
