package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nuqta-lab/mooda/internal/cache"
)

func TestSyncConsumeRepublishes(t *testing.T) {
	b := NewBroadcaster()
	sync := NewStatsSync(nil, b)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := b.Stream(ctx, "UZ")

	msgs := make(chan cache.Message, 4)
	msgs <- cache.Message{Channel: "mooda:stats:UZ", Payload: `{"n":1}`}
	// 非 JSON 载荷跳过，不中断消费
	msgs <- cache.Message{Channel: "mooda:stats:UZ", Payload: "not-json"}
	msgs <- cache.Message{Channel: "mooda:stats:uz", Payload: `{"n":2}`}
	close(msgs)
	sync.consume(msgs)

	require.Len(t, sub, 2)
	ev := <-sub
	require.Equal(t, "UZ", ev.Scope)
	require.Equal(t, "stats", ev.Type)
	require.Equal(t, `{"n":1}`, ev.Data)
	// scope 取通道名末段并统一大写
	require.Equal(t, `{"n":2}`, (<-sub).Data)
}

func TestSyncRunEndToEnd(t *testing.T) {
	c, _ := newTestCache(t)
	b := NewBroadcaster()
	sync := NewStatsSync(c, b)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := b.Stream(ctx, "GLOBAL")
	go sync.Run(ctx)

	// 订阅建立是异步的，持续发布直到收到为止
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case ev := <-sub:
			require.Equal(t, "GLOBAL", ev.Scope)
			require.Equal(t, `{"n":1}`, ev.Data)
			return
		case <-tick.C:
			require.NoError(t, c.Publish(ctx, cache.StatsChannel("GLOBAL"), `{"n":1}`))
		case <-deadline:
			t.Fatal("event never reached local broadcaster")
		}
	}
}

func TestJitterBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := jitter(2 * time.Second)
		require.GreaterOrEqual(t, d, time.Second)
		require.Less(t, d, 2*time.Second)
	}
}
