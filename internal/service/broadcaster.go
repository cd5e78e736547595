package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nuqta-lab/mooda/pkg/logger"
)

// Event 推送给订阅者的瞬时事件，仅存在于发布与投递之间
type Event struct {
	ID    string `json:"id,omitempty"`
	Scope string `json:"scope"` // GLOBAL 或国家码
	Type  string `json:"type"`  // stats | ping
	Data  string `json:"data"`  // JSON 载荷
}

const subscriberBuffer = 1024

// Broadcaster 进程内按 scope 多播。scope 通道首次引用时惰性创建，进程
// 生命周期内常驻。锁按 scope 分片：注册表锁只护 map，投递走各通道自己的锁。
type Broadcaster struct {
	mu     sync.RWMutex
	scopes map[string]*scopeChannel
}

type scopeChannel struct {
	mu     sync.Mutex
	nextID int64
	subs   map[int64]chan Event
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{scopes: make(map[string]*scopeChannel)}
}

func (b *Broadcaster) channel(scope string) *scopeChannel {
	key := strings.ToUpper(scope)
	b.mu.RLock()
	ch, ok := b.scopes[key]
	b.mu.RUnlock()
	if ok {
		return ch
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok = b.scopes[key]; !ok {
		ch = &scopeChannel{subs: make(map[int64]chan Event)}
		b.scopes[key] = ch
	}
	return ch
}

// Publish 尽力而为地投递给该 scope 当前全部订阅者。订阅者缓冲满时丢弃
// 该事件：发布方永远不被慢订阅者拖慢。
func (b *Broadcaster) Publish(ev Event) {
	ch := b.channel(ev.Scope)
	ch.mu.Lock()
	defer ch.mu.Unlock()
	for id, sub := range ch.subs {
		select {
		case sub <- ev:
		default:
			logger.Debug("subscriber buffer full, dropping event",
				zap.String("scope", ev.Scope), zap.Int64("subscriber", id))
		}
	}
}

// Stream 订阅某 scope 的事件流；ctx 取消时自动退订并关闭返回通道
func (b *Broadcaster) Stream(ctx context.Context, scope string) <-chan Event {
	ch := b.channel(scope)
	sub := make(chan Event, subscriberBuffer)

	ch.mu.Lock()
	ch.nextID++
	id := ch.nextID
	ch.subs[id] = sub
	ch.mu.Unlock()

	go func() {
		<-ctx.Done()
		ch.mu.Lock()
		delete(ch.subs, id)
		ch.mu.Unlock()
		close(sub)
	}()
	return sub
}

// Subscribers 返回订阅数；scope 为空统计全部（可观测性用）
func (b *Broadcaster) Subscribers(scope string) int {
	if scope != "" {
		ch := b.channel(scope)
		ch.mu.Lock()
		defer ch.mu.Unlock()
		return len(ch.subs)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	total := 0
	for _, ch := range b.scopes {
		ch.mu.Lock()
		total += len(ch.subs)
		ch.mu.Unlock()
	}
	return total
}
