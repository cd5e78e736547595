package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBroadcasterFanOut(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub1 := b.Stream(ctx, "GLOBAL")
	sub2 := b.Stream(ctx, "GLOBAL")
	other := b.Stream(ctx, "UZ")

	b.Publish(Event{Scope: "GLOBAL", Type: "stats", Data: `{"n":1}`})

	for _, sub := range []<-chan Event{sub1, sub2} {
		select {
		case ev := <-sub:
			require.Equal(t, "stats", ev.Type)
			require.Equal(t, `{"n":1}`, ev.Data)
		case <-time.After(time.Second):
			t.Fatal("subscriber missed event")
		}
	}
	// 其他 scope 的订阅者不受影响
	require.Empty(t, other)
}

func TestBroadcasterScopeCaseInsensitive(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := b.Stream(ctx, "uz")
	b.Publish(Event{Scope: "UZ", Type: "stats", Data: "{}"})

	select {
	case <-sub:
	case <-time.After(time.Second):
		t.Fatal("case-folded scope did not match")
	}
}

func TestBroadcasterDropsWhenBufferFull(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := b.Stream(ctx, "GLOBAL")
	// 无人消费时灌满缓冲并超出
	for i := 0; i < subscriberBuffer+10; i++ {
		b.Publish(Event{Scope: "GLOBAL", Type: "stats", Data: strconv.Itoa(i)})
	}
	require.Len(t, sub, subscriberBuffer)
	// 丢弃的是新事件，序头完好
	require.Equal(t, "0", (<-sub).Data)
}

func TestBroadcasterUnsubscribeOnCancel(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())

	sub := b.Stream(ctx, "GLOBAL")
	require.Equal(t, 1, b.Subscribers("GLOBAL"))

	cancel()
	require.Eventually(t, func() bool {
		return b.Subscribers("GLOBAL") == 0
	}, time.Second, 10*time.Millisecond)

	_, open := <-sub
	require.False(t, open)
}

func TestBroadcasterSubscriberCounts(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b.Stream(ctx, "GLOBAL")
	b.Stream(ctx, "GLOBAL")
	b.Stream(ctx, "UZ")

	require.Equal(t, 2, b.Subscribers("GLOBAL"))
	require.Equal(t, 1, b.Subscribers("UZ"))
	require.Equal(t, 0, b.Subscribers("US"))
	require.Equal(t, 3, b.Subscribers(""))
}
