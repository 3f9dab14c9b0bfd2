package eventbus

import (
	"context"
	"sync"
)

// WorkerPool drains one subscription with a fixed number of workers, so each
// event is handled exactly once however many workers there are
type WorkerPool[T any] struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorkerPool[T any](bus *EventBus[T], workers int, handle func(T)) *WorkerPool[T] {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	events, _ := bus.Subscribe(ctx)

	wp := &WorkerPool[T]{cancel: cancel}
	for i := 0; i < workers; i++ {
		wp.wg.Add(1)
		go func() {
			defer wp.wg.Done()
			// the channel is closed on shutdown, buffered events still drain
			for event := range events {
				handle(event)
			}
		}()
	}
	return wp
}

// Shutdown unsubscribes and waits for queued events to be handled
func (wp *WorkerPool[T]) Shutdown() {
	wp.cancel()
	wp.wg.Wait()
}
