package gateway

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryFeed is an in-process ChangeFeed for tests and single-node setups.
type MemoryFeed struct {
	prefix string

	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]*memorySubscription
}

// NewMemoryFeed returns an empty feed.
func NewMemoryFeed(prefix string) *MemoryFeed {
	return &MemoryFeed{prefix: prefix, subs: map[string]map[int]*memorySubscription{}}
}

func (f *MemoryFeed) Channel(table string, userID uuid.UUID) string {
	return ChannelName(f.prefix, table, userID)
}

// Publish delivers event to every current subscriber of its channel. It
// blocks while a subscriber buffer is full, until ctx is done.
func (f *MemoryFeed) Publish(ctx context.Context, event ChangeEvent) error {
	channel := f.Channel(event.Table, event.UserID)
	f.mu.Lock()
	targets := make([]*memorySubscription, 0, len(f.subs[channel]))
	for _, sub := range f.subs[channel] {
		targets = append(targets, sub)
	}
	f.mu.Unlock()

	for _, sub := range targets {
		if err := sub.deliver(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (f *MemoryFeed) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	sub := &memorySubscription{
		id:      f.nextID,
		channel: channel,
		feed:    f,
		events:  make(chan ChangeEvent, 64),
		done:    make(chan struct{}),
	}
	if f.subs[channel] == nil {
		f.subs[channel] = map[int]*memorySubscription{}
	}
	f.subs[channel][sub.id] = sub
	return sub, nil
}

// Subscribers reports how many subscriptions are open on channel.
func (f *MemoryFeed) Subscribers(channel string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[channel])
}

func (f *MemoryFeed) remove(sub *memorySubscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs[sub.channel], sub.id)
	if len(f.subs[sub.channel]) == 0 {
		delete(f.subs, sub.channel)
	}
}

type memorySubscription struct {
	id      int
	channel string
	feed    *MemoryFeed
	events  chan ChangeEvent
	done    chan struct{}
	once    sync.Once
	sendMu  sync.Mutex
}

func (s *memorySubscription) Events() <-chan ChangeEvent {
	return s.events
}

func (s *memorySubscription) deliver(ctx context.Context, event ChangeEvent) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	select {
	case <-s.done:
		return nil
	default:
	}
	select {
	case s.events <- event:
		return nil
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.feed.remove(s)
		close(s.done)
		s.sendMu.Lock()
		close(s.events)
		s.sendMu.Unlock()
	})
	return nil
}
