package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nuqta-lab/mooda/internal/cache"
	"github.com/nuqta-lab/mooda/pkg/logger"
)

// SubmissionGuard 保证同一主体每自然日至多一次提交被接受。
// 依赖缓存端 SET NX 的原子性；同一 key 并发抢占只有一个成功。
type SubmissionGuard struct {
	cache cache.Cache
	zone  *time.Location
}

func NewSubmissionGuard(c cache.Cache, zone *time.Location) *SubmissionGuard {
	if zone == nil {
		zone = time.UTC
	}
	return &SubmissionGuard{cache: c, zone: zone}
}

// Day 返回配置时区下的当前日期（YYYY-MM-DD）
func (g *SubmissionGuard) Day(now time.Time) string {
	return now.In(g.zone).Format("2006-01-02")
}

// TryAcquire 抢占 (scope, identity, day) 守卫。TTL 为距下一个本地零点的剩余
// 时长，到期自然失效，无需显式清理。
//
// 缓存不可达时选择 fail-open（视为抢占成功）：可用性优先，代价是缓存故障
// 窗口内可能出现罕见的重复提交。
func (g *SubmissionGuard) TryAcquire(ctx context.Context, id Identity, day string, now time.Time) bool {
	key := cache.GuardKey(string(id.Scope), id.ID, day)
	local := now.In(g.zone)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, g.zone).AddDate(0, 0, 1)
	ttl := midnight.Sub(local)
	if ttl <= 0 {
		ttl = time.Minute
	}
	acquired, err := g.cache.SetNX(ctx, key, "1", ttl)
	if err != nil {
		logger.Warn("guard cache error, failing open", zap.String("key", key), zap.Error(err))
		return true
	}
	return acquired
}

// RateLimiter 按主体做滚动窗口限流。窗口 TTL 只在第一次计数时设置，
// 持续的请求流不会延长窗口。阈值由调用方提供，不在此处硬编码。
type RateLimiter struct {
	cache  cache.Cache
	window time.Duration
}

func NewRateLimiter(c cache.Cache, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{cache: c, window: window}
}

// Hit 记录一次尝试并返回窗口内的累计次数。缓存出错时 fail-open 返回 1，
// 缓存故障不阻断提交。
func (l *RateLimiter) Hit(ctx context.Context, identity string) int64 {
	key := cache.RateLimitKey(identity)
	n, err := l.cache.IncrWithTTLIfFirst(ctx, key, l.window)
	if err != nil {
		logger.Warn("rate limiter cache error, failing open", zap.String("key", key), zap.Error(err))
		return 1
	}
	return n
}
