package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (*redis.PubSub, error)
}

// RedisFeed carries change events over Redis pub/sub.
type RedisFeed struct {
	broker broker
	prefix string
	logg   *logger.Logger
}

// NewRedisFeed builds a feed on top of the storefront Redis client.
func NewRedisFeed(b broker, prefix string, logg *logger.Logger) (*RedisFeed, error) {
	if b == nil {
		return nil, fmt.Errorf("redis broker required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &RedisFeed{broker: b, prefix: prefix, logg: logg}, nil
}

func (f *RedisFeed) Channel(table string, userID uuid.UUID) string {
	return ChannelName(f.prefix, table, userID)
}

func (f *RedisFeed) Publish(ctx context.Context, event ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	return f.broker.Publish(ctx, f.Channel(event.Table, event.UserID), payload)
}

func (f *RedisFeed) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	ps, err := f.broker.Subscribe(ctx, channel)
	if err != nil {
		return nil, err
	}
	sub := &redisSubscription{
		ps:     ps,
		events: make(chan ChangeEvent, 16),
		done:   make(chan struct{}),
	}
	go sub.pump(f.logg.WithField(context.Background(), "channel", channel), f.logg)
	return sub, nil
}

type redisSubscription struct {
	ps     *redis.PubSub
	events chan ChangeEvent
	done   chan struct{}
	once   sync.Once
}

func (s *redisSubscription) Events() <-chan ChangeEvent {
	return s.events
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

func (s *redisSubscription) pump(ctx context.Context, logg *logger.Logger) {
	defer close(s.events)
	for msg := range s.ps.Channel() {
		var event ChangeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "dropping undecodable change event")
			continue
		}
		select {
		case s.events <- event:
		case <-s.done:
			return
		}
	}
}
