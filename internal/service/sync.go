package service

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nuqta-lab/mooda/internal/cache"
	"github.com/nuqta-lab/mooda/pkg/logger"
)

// StatsSync 跨实例同步：订阅共享的统计通道模式，把任意实例发布的快照
// 转投到本地 Broadcaster，保证不论哪个实例接受了提交，本地订阅者都能
// 收到更新。进程启动时拉起一次，跑满进程生命周期。
type StatsSync struct {
	cache       cache.Cache
	broadcaster *Broadcaster
}

func NewStatsSync(c cache.Cache, b *Broadcaster) *StatsSync {
	return &StatsSync{cache: c, broadcaster: b}
}

const (
	syncBackoffMin = time.Second
	syncBackoffMax = 30 * time.Second
)

// Run 带指数退避+抖动地无限重连。该通道是基础设施级的，永不放弃；
// 单条消息处理失败只记日志、跳过，不终止订阅循环。
func (s *StatsSync) Run(ctx context.Context) {
	backoff := syncBackoffMin
	for {
		if ctx.Err() != nil {
			return
		}
		msgs, err := s.cache.PSubscribe(ctx, cache.PatternStatsChannels)
		if err != nil {
			logger.Warn("stats sync subscribe failed, retrying",
				zap.Duration("backoff", backoff), zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(jitter(backoff)):
			}
			if backoff *= 2; backoff > syncBackoffMax {
				backoff = syncBackoffMax
			}
			continue
		}
		backoff = syncBackoffMin
		s.consume(msgs)
	}
}

func (s *StatsSync) consume(msgs <-chan cache.Message) {
	for msg := range msgs {
		// 通道名形如 mooda:stats:<SCOPE>，scope 取最后一段
		parts := strings.Split(msg.Channel, ":")
		scope := strings.ToUpper(parts[len(parts)-1])
		if scope == "" || !json.Valid([]byte(msg.Payload)) {
			logger.Warn("skipping malformed stats message", zap.String("channel", msg.Channel))
			continue
		}
		s.broadcaster.Publish(Event{Scope: scope, Type: "stats", Data: msg.Payload})
	}
	logger.Warn("stats sync subscription closed, reconnecting")
}

// jitter 在 [d/2, d) 内取随机时长，错开多实例的重连风暴
func jitter(d time.Duration) time.Duration {
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)))
}
