package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned by a broker that has been closed.
var ErrClosed = errors.New("broker closed")

// MemoryBroker delivers messages to subscribers in the same process. It is
// used when no Redis URL is configured and in tests.
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[string][]*subscriber
	closed bool
}

// subscriber owns one delivery channel. The channel is closed only after
// done is closed and no send is in flight.
type subscriber struct {
	ch     chan []byte
	done   chan struct{}
	sendMu sync.Mutex
	once   sync.Once
}

func (s *subscriber) send(ctx context.Context, payload []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	select {
	case <-s.done:
		return nil
	default:
	}
	select {
	case s.ch <- payload:
		return nil
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.done)
		s.sendMu.Lock()
		close(s.ch)
		s.sendMu.Unlock()
	})
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string][]*subscriber)}
}

// Publish blocks while a subscriber's buffer is full, but never while
// holding the broker lock.
func (b *MemoryBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	subs := make([]*subscriber, len(b.subs[channel]))
	copy(subs, b.subs[channel])
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.send(ctx, payload); err != nil {
			return err
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	sub := &subscriber{ch: make(chan []byte, 100), done: make(chan struct{})}
	b.subs[channel] = append(b.subs[channel], sub)

	go func() {
		select {
		case <-ctx.Done():
			b.unsubscribe(channel, sub)
		case <-sub.done:
		}
	}()
	return sub.ch, nil
}

func (b *MemoryBroker) unsubscribe(channel string, sub *subscriber) {
	b.mu.Lock()
	subs := b.subs[channel]
	for i, s := range subs {
		if s == sub {
			b.subs[channel] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
	sub.close()
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	all := b.subs
	b.subs = make(map[string][]*subscriber)
	b.mu.Unlock()

	for _, subs := range all {
		for _, sub := range subs {
			sub.close()
		}
	}
	return nil
}
