package events

import (
	"context"
	"errors"
	"sync"
)

var ErrBusClosed = errors.New("event bus closed")

const defaultBuffer = 64

// LocalBus fans changes out to subscribers of the same process. A subscriber
// whose buffer is full misses changes instead of blocking the publisher.
type LocalBus struct {
	mu     sync.RWMutex
	subs   map[chan Change]struct{}
	buffer int
	closed bool
	done   chan struct{}
}

func NewLocalBus(buffer int) *LocalBus {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &LocalBus{
		subs:   make(map[chan Change]struct{}),
		buffer: buffer,
		done:   make(chan struct{}),
	}
}

func (b *LocalBus) Publish(_ context.Context, c Change) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}
	for ch := range b.subs {
		select {
		case ch <- c:
		default:
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context) (<-chan Change, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	ch := make(chan Change, b.buffer)
	b.subs[ch] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
			b.unsubscribe(ch)
		case <-b.done:
		}
	}()
	return ch, nil
}

func (b *LocalBus) unsubscribe(ch chan Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Close ends every subscription.
func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	return nil
}
