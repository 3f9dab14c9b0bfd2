package eventbus

/*
 * EventBus - lock-free pub/sub for in-process fan out
 *
 * Publishing never blocks: a subscriber whose buffer is full misses the
 * event and the miss is counted against it. Subscribers leave either by
 * calling their cleanup func or when the context they subscribed with ends.
 */
import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
)

type EventBus[T any] struct {
	subscribers   *xsync.Map[string, *subscriber[T]]
	isShutdown    atomic.Bool
	subscriberSeq atomic.Uint64
	published     atomic.Uint64
	bufferSize    int
}

type subscriber[T any] struct {
	ch       chan T
	id       string
	dropped  atomic.Uint64
	mu       sync.RWMutex
	isActive bool
}

const DefaultBufferSize = 256

// New creates a bus whose subscribers each get bufferSize slots
func New[T any](bufferSize int) *EventBus[T] {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &EventBus[T]{
		subscribers: xsync.NewMap[string, *subscriber[T]](),
		bufferSize:  bufferSize,
	}
}

// Subscribe returns a channel that receives events and a cleanup function.
// Subscribing to a shut down bus yields a closed channel.
func (eb *EventBus[T]) Subscribe(ctx context.Context) (<-chan T, func()) {
	if eb.isShutdown.Load() {
		ch := make(chan T)
		close(ch)
		return ch, func() {}
	}

	id := "sub_" + strconv.FormatUint(eb.subscriberSeq.Add(1), 10)
	sub := &subscriber[T]{
		id: id,
		ch: make(chan T, eb.bufferSize),
	}
	sub.isActive = true
	eb.subscribers.Store(id, sub)

	go func() {
		<-ctx.Done()
		eb.unsubscribe(id)
	}()

	return sub.ch, func() { eb.unsubscribe(id) }
}

// Publish offers the event to every subscriber and returns how many took it
func (eb *EventBus[T]) Publish(event T) int {
	if eb.isShutdown.Load() {
		return 0
	}
	eb.published.Add(1)

	delivered := 0
	eb.subscribers.Range(func(_ string, sub *subscriber[T]) bool {
		if sub.offer(event) {
			delivered++
		}
		return true
	})
	return delivered
}

// Shutdown closes every subscriber channel; later publishes are ignored
func (eb *EventBus[T]) Shutdown() {
	if !eb.isShutdown.CompareAndSwap(false, true) {
		return
	}
	eb.subscribers.Range(func(id string, _ *subscriber[T]) bool {
		eb.unsubscribe(id)
		return true
	})
}

type EventBusStats struct {
	Published   uint64
	Subscribers int
	Dropped     uint64
	IsShutdown  bool
}

func (eb *EventBus[T]) Stats() EventBusStats {
	stats := EventBusStats{
		Published:  eb.published.Load(),
		IsShutdown: eb.isShutdown.Load(),
	}
	eb.subscribers.Range(func(_ string, sub *subscriber[T]) bool {
		stats.Subscribers++
		stats.Dropped += sub.dropped.Load()
		return true
	})
	return stats
}

func (eb *EventBus[T]) unsubscribe(id string) {
	if sub, exists := eb.subscribers.LoadAndDelete(id); exists {
		sub.close()
	}
}

// offer never blocks; the read lock only guards against a concurrent close
func (s *subscriber[T]) offer(event T) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isActive {
		return false
	}
	select {
	case s.ch <- event:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

func (s *subscriber[T]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isActive {
		s.isActive = false
		close(s.ch)
	}
}
