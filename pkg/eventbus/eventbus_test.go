package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditEvent struct {
	Identity string
	Seq      int
}

func TestEventBus_BasicPubSub(t *testing.T) {
	bus := New[auditEvent](4)
	defer bus.Shutdown()

	events, cleanup := bus.Subscribe(context.Background())
	defer cleanup()

	assert.Equal(t, 1, bus.Publish(auditEvent{Identity: "203.0.113.7", Seq: 1}))

	select {
	case got := <-events:
		assert.Equal(t, "203.0.113.7", got.Identity)
		assert.Equal(t, 1, got.Seq)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEventBus_FanOut(t *testing.T) {
	bus := New[auditEvent](4)
	defer bus.Shutdown()

	var chans []<-chan auditEvent
	for i := 0; i < 3; i++ {
		ch, cleanup := bus.Subscribe(context.Background())
		defer cleanup()
		chans = append(chans, ch)
	}

	assert.Equal(t, 3, bus.Publish(auditEvent{Seq: 42}))
	for _, ch := range chans {
		assert.Equal(t, 42, (<-ch).Seq)
	}
}

func TestEventBus_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	bus := New[auditEvent](2)
	defer bus.Shutdown()

	_, cleanup := bus.Subscribe(context.Background())
	defer cleanup()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Publish(auditEvent{Seq: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	stats := bus.Stats()
	assert.Equal(t, uint64(10), stats.Published)
	assert.Equal(t, uint64(8), stats.Dropped)
}

func TestEventBus_ContextCancelUnsubscribes(t *testing.T) {
	bus := New[auditEvent](4)
	defer bus.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	events, _ := bus.Subscribe(ctx)
	cancel()

	require.Eventually(t, func() bool {
		return bus.Stats().Subscribers == 0
	}, time.Second, 5*time.Millisecond)

	_, open := <-events
	assert.False(t, open)
	assert.Equal(t, 0, bus.Publish(auditEvent{}))
}

func TestEventBus_Shutdown(t *testing.T) {
	bus := New[auditEvent](4)
	events, _ := bus.Subscribe(context.Background())

	bus.Shutdown()
	bus.Shutdown()

	_, open := <-events
	assert.False(t, open)
	assert.Equal(t, 0, bus.Publish(auditEvent{}))
	assert.True(t, bus.Stats().IsShutdown)

	late, _ := bus.Subscribe(context.Background())
	_, open = <-late
	assert.False(t, open)
}

func TestEventBus_ConcurrentPublishAndUnsubscribe(t *testing.T) {
	bus := New[auditEvent](8)
	defer bus.Shutdown()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithCancel(context.Background())
			bus.Subscribe(ctx)
			time.Sleep(time.Millisecond)
			cancel()
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				bus.Publish(auditEvent{Seq: n*1000 + j})
			}
		}(i)
	}
	wg.Wait()
}

func TestWorkerPool_HandlesEachEventOnce(t *testing.T) {
	bus := New[auditEvent](1024)
	defer bus.Shutdown()

	var handled atomic.Int64
	seen := make(map[int]int)
	var mu sync.Mutex

	pool := NewWorkerPool(bus, 4, func(e auditEvent) {
		handled.Add(1)
		mu.Lock()
		seen[e.Seq]++
		mu.Unlock()
	})

	for i := 0; i < 500; i++ {
		bus.Publish(auditEvent{Seq: i})
	}
	pool.Shutdown()

	assert.Equal(t, int64(500), handled.Load())
	for seq, n := range seen {
		assert.Equal(t, 1, n, "event %d handled more than once", seq)
	}
}
