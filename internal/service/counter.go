package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nuqta-lab/mooda/internal/cache"
	"github.com/nuqta-lab/mooda/internal/model"
	"github.com/nuqta-lab/mooda/pkg/logger"
)

// CounterStore 维护“今日”近似计数器。TTL（默认 48h）只在周期首写时设置，
// 故意跨过当日零点，让“昨天”的统计平滑退化而不是瞬间消失。计数器只是
// 派生缓存，权威数据永远在持久日志里；读到全零时调用方必须回退慢路径。
type CounterStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewCounterStore(c cache.Cache, ttl time.Duration) *CounterStore {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &CounterStore{cache: c, ttl: ttl}
}

// Increment 全局计数 +1。失败只记日志：计数是尽力而为的
func (s *CounterStore) Increment(ctx context.Context, moodType model.MoodType) {
	key := cache.MoodCounterKey(moodType.String())
	if _, err := s.cache.IncrWithTTLIfFirst(ctx, key, s.ttl); err != nil {
		logger.Warn("counter increment failed", zap.String("key", key), zap.Error(err))
	}
}

// IncrementCountry 国家维度计数 +1，与全局计数相互独立、各自可重试
func (s *CounterStore) IncrementCountry(ctx context.Context, country string, moodType model.MoodType) {
	key := cache.CountryCounterKey(country, moodType.String())
	if _, err := s.cache.IncrWithTTLIfFirst(ctx, key, s.ttl); err != nil {
		logger.Warn("country counter increment failed", zap.String("key", key), zap.Error(err))
	}
}

// ReadAll 读取某 scope 下全部八种类型的计数；country 为空表示全局。
// 单 key 读失败按 0 处理（fail-open 读空）。
func (s *CounterStore) ReadAll(ctx context.Context, country string) map[model.MoodType]int64 {
	out := make(map[model.MoodType]int64, len(model.MoodTypes))
	for _, t := range model.MoodTypes {
		var key string
		if country == "" {
			key = cache.MoodCounterKey(t.String())
		} else {
			key = cache.CountryCounterKey(country, t.String())
		}
		out[t] = s.readInt(ctx, key)
	}
	return out
}

func (s *CounterStore) readInt(ctx context.Context, key string) int64 {
	v, err := s.cache.Get(ctx, key)
	if err != nil {
		if err != cache.ErrNil {
			logger.Warn("counter read failed", zap.String("key", key), zap.Error(err))
		}
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ActiveCountries 通过 key 模式扫描动态发现今日有提交的国家，
// 不依赖固定国家列表。扫描失败返回已得到的部分结果。
func (s *CounterStore) ActiveCountries(ctx context.Context) []string {
	keys, err := s.cache.Scan(ctx, cache.PatternCountryCounters)
	if err != nil {
		logger.Warn("country discovery scan failed", zap.Error(err))
	}
	seen := make(map[string]bool)
	var out []string
	for _, k := range keys {
		// mooda:cnt:today:country:{CC}:{TYPE}
		parts := strings.Split(k, ":")
		if len(parts) < 6 {
			continue
		}
		cc := parts[4]
		if cc != "" && !seen[cc] {
			seen[cc] = true
			out = append(out, cc)
		}
	}
	return out
}
