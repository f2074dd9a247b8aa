package trafficlight

import (
	"context"
	"sync"
)

// MessageQueue is a single-slot hand-off between one producer and any number of consumers.
//
// Send never waits for a consumer: it replaces whatever value is still buffered, so a
// slow consumer only ever sees the latest value. Receive blocks until a value is present.
// Each Send wakes at most one blocked receiver; there is no broadcast.
type MessageQueue[T any] struct {
	mutex sync.Mutex
	cond  *sync.Cond
	queue []T
}

// NewMessageQueue creates an empty message queue
func NewMessageQueue[T any]() *MessageQueue[T] {
	q := &MessageQueue[T]{
		queue: make([]T, 0, 1),
	}
	q.cond = sync.NewCond(&q.mutex)
	return q
}

// Send discards any unread value, buffers msg and wakes one waiting receiver
func (q *MessageQueue[T]) Send(msg T) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	clear(q.queue)
	q.queue = append(q.queue[:0], msg)
	q.cond.Signal()
}

// Receive blocks until a value is buffered, then removes and returns it
func (q *MessageQueue[T]) Receive() T {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	for len(q.queue) == 0 {
		q.cond.Wait()
	}
	return q.pop()
}

// ReceiveContext is like Receive but gives up when ctx is done
func (q *MessageQueue[T]) ReceiveContext(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	// sync.Cond has no cancellation; wake every waiter when ctx ends and let each
	// one re-check its own context.
	stop := context.AfterFunc(ctx, func() {
		q.mutex.Lock()
		defer q.mutex.Unlock()
		q.cond.Broadcast()
	})
	defer stop()

	q.mutex.Lock()
	defer q.mutex.Unlock()

	for len(q.queue) == 0 {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		q.cond.Wait()
	}
	return q.pop(), nil
}

// TryReceive removes and returns the buffered value without blocking
func (q *MessageQueue[T]) TryReceive() (T, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if len(q.queue) == 0 {
		var zero T
		return zero, false
	}
	return q.pop(), true
}

// Len returns the number of buffered values, which is never more than one
func (q *MessageQueue[T]) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.queue)
}

// pop takes the most recently appended value. Caller holds the mutex.
func (q *MessageQueue[T]) pop() T {
	last := len(q.queue) - 1
	msg := q.queue[last]
	var zero T
	q.queue[last] = zero
	q.queue = q.queue[:last]
	return msg
}
