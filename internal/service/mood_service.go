package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nuqta-lab/mooda/internal/cache"
	"github.com/nuqta-lab/mooda/internal/model"
	"github.com/nuqta-lab/mooda/internal/repository"
	"github.com/nuqta-lab/mooda/pkg/logger"
)

// SubmitCommand 一次提交的全部输入
type SubmitCommand struct {
	MoodType string
	Country  string
	Comment  string
	Locale   string
	Identity Identity
}

type SubmitResult struct {
	ShareCardURL string `json:"shareCardUrl"`
}

const (
	lastMoodTTLUser   = 30 * 24 * time.Hour
	lastMoodTTLDevice = 7 * 24 * time.Hour
	lastSnapshotTTL   = 48 * time.Hour
)

// MoodService 提交流水线：校验 → 限流 → 守卫 → 落库 → 计数 → 快照发布。
// 前四步严格串行、首错短路；落库之后的步骤尽力而为，失败不影响提交结果。
type MoodService struct {
	cache       cache.Cache
	moodRepo    repository.MoodRepository
	guard       *SubmissionGuard
	limiter     *RateLimiter
	counters    *CounterStore
	stats       *StatsService
	countries   *CountryService
	rlThreshold int64
	now         func() time.Time
}

func NewMoodService(
	c cache.Cache,
	moodRepo repository.MoodRepository,
	guard *SubmissionGuard,
	limiter *RateLimiter,
	counters *CounterStore,
	stats *StatsService,
	countries *CountryService,
	rlThreshold int64,
) *MoodService {
	if rlThreshold <= 0 {
		rlThreshold = 5
	}
	return &MoodService{
		cache:       c,
		moodRepo:    moodRepo,
		guard:       guard,
		limiter:     limiter,
		counters:    counters,
		stats:       stats,
		countries:   countries,
		rlThreshold: rlThreshold,
		now:         time.Now,
	}
}

// Submit 处理一次提交。被拒绝时总是返回稳定错误码，绝不静默丢弃。
func (s *MoodService) Submit(ctx context.Context, cmd SubmitCommand) (*SubmitResult, error) {
	// 1. 校验：纯输入检查，无任何副作用
	moodType, ok := model.ParseMoodType(cmd.MoodType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMoodType, cmd.MoodType)
	}
	cc, err := s.countries.Normalize(cmd.Country)
	if err != nil {
		return nil, err
	}

	now := s.now()
	day := s.guard.Day(now)

	// 2. 限流先于守卫：滥用重试即使都会被判重复，也要先被限速
	if n := s.limiter.Hit(ctx, cmd.Identity.ID); n > s.rlThreshold {
		return nil, ErrRateLimited
	}

	// 3. 守卫必须先于任何持久写：守卫失败绝不能产生重复记录
	if !s.guard.TryAcquire(ctx, cmd.Identity, day, now) {
		return nil, ErrAlreadySubmittedToday
	}

	// 4. 落库是唯一强一致的一步；失败即提交失败。守卫不回滚：该主体
	// 当日名额视为已用（接受的取舍，换守卫实现的简单性）
	mood := &model.Mood{
		ID:        uuid.New().String(),
		MoodType:  moodType.String(),
		Country:   &cc,
		Day:       day,
		CreatedAt: now,
	}
	if cmd.Identity.IsUser() {
		uid := cmd.Identity.ID
		mood.UserID = &uid
		mood.DeviceID = "unknown"
	} else {
		mood.DeviceID = cmd.Identity.ID
	}
	if cmd.Locale != "" {
		mood.Locale = &cmd.Locale
	}
	if cmd.Comment != "" {
		mood.Comment = &cmd.Comment
	}
	if err := s.moodRepo.Create(ctx, mood); err != nil {
		logger.Error("mood persist failed", zap.String("day", day), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	// 5. 计数：全局与国家两次独立自增，均尽力而为
	s.counters.Increment(ctx, moodType)
	s.counters.IncrementCountry(ctx, cc, moodType)

	// 个人最近一次提交标记（me 接口用）
	s.writeLastMood(ctx, cmd.Identity, day, moodType)

	// 6. 全局与国家两个 scope 的快照发布互相独立、并发执行
	var wg sync.WaitGroup
	for _, scope := range []string{"", cc} {
		wg.Add(1)
		go func(country string) {
			defer wg.Done()
			s.snapshotAndPublish(ctx, country)
		}(scope)
	}
	wg.Wait()

	return &SubmitResult{ShareCardURL: "/share/" + day}, nil
}

func (s *MoodService) writeLastMood(ctx context.Context, id Identity, day string, moodType model.MoodType) {
	payload, _ := json.Marshal(map[string]string{"day": day, "moodType": moodType.String()})
	ttl := lastMoodTTLDevice
	if id.IsUser() {
		ttl = lastMoodTTLUser
	}
	key := cache.LastMoodKey(string(id.Scope), id.ID)
	if err := s.cache.Set(ctx, key, string(payload), ttl); err != nil {
		logger.Warn("last mood marker write failed", zap.String("key", key), zap.Error(err))
	}
}

// snapshotAndPublish 重算 scope 快照，写入 last 槽位并发布到共享通道。
// country 为空表示 GLOBAL。全程尽力而为：记录已持久化，提交已然成功。
func (s *MoodService) snapshotAndPublish(ctx context.Context, country string) {
	live, err := s.stats.Live(ctx, country, "")
	if err != nil {
		logger.Warn("snapshot recompute failed", zap.String("country", country), zap.Error(err))
		return
	}
	payload, err := json.Marshal(live)
	if err != nil {
		logger.Warn("snapshot marshal failed", zap.Error(err))
		return
	}
	scope := live.Scope
	if country != "" {
		scope = live.Country
	}
	if err := s.cache.Set(ctx, cache.LastSnapshotKey(scope), string(payload), lastSnapshotTTL); err != nil {
		logger.Warn("last snapshot write failed", zap.String("scope", scope), zap.Error(err))
	}
	if err := s.cache.Publish(ctx, cache.StatsChannel(scope), string(payload)); err != nil {
		logger.Warn("snapshot publish failed", zap.String("scope", scope), zap.Error(err))
	}
}

// HistoryItem 个人历史条目
type HistoryItem struct {
	Day      string `json:"day"`
	MoodType string `json:"moodType"`
}

// History 返回用户最近 days 天的提交（days 夹在 [0,31]，默认 7）
func (s *MoodService) History(ctx context.Context, userID string, days int) ([]HistoryItem, error) {
	switch {
	case days < 0:
		days = 0
	case days > 31:
		days = 31
	}
	if days == 0 {
		return []HistoryItem{}, nil
	}
	records, err := s.moodRepo.FindByUserOrderByDayDesc(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	items := make([]HistoryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, HistoryItem{Day: rec.Day, MoodType: rec.MoodType})
	}
	return items, nil
}

// LastSnapshot 读 scope 的 last 槽位，给新订阅者补初始状态；没有则现算
func (s *MoodService) LastSnapshot(ctx context.Context, scope string) (string, error) {
	v, err := s.cache.Get(ctx, cache.LastSnapshotKey(scope))
	if err == nil && v != "" {
		return v, nil
	}
	country := ""
	if scope != "" && scope != "GLOBAL" {
		country = scope
	}
	live, lerr := s.stats.Live(ctx, country, "")
	if lerr != nil {
		return "", lerr
	}
	payload, merr := json.Marshal(live)
	if merr != nil {
		return "", merr
	}
	return string(payload), nil
}
