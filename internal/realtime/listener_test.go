package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/internal/gateway"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReloader struct {
	mu    sync.Mutex
	calls int
}

func (r *countingReloader) RefreshCart(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return nil
}

func (r *countingReloader) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func publish(t *testing.T, feed gateway.ChangeFeed, userID uuid.UUID, kind gateway.EventType) {
	t.Helper()
	require.NoError(t, feed.Publish(context.Background(), gateway.ChangeEvent{
		Table:  gateway.TableCartItems,
		Type:   kind,
		UserID: userID,
	}))
}

func TestListenerReloadsOncePerEventWithoutWindow(t *testing.T) {
	feed := gateway.NewMemoryFeed("rt")
	reloader := &countingReloader{}
	listener, err := NewListener(feed, reloader, Options{})
	require.NoError(t, err)

	userID := uuid.New()
	require.NoError(t, listener.Start(context.Background(), userID))
	defer listener.Stop()
	assert.False(t, listener.Enabled())

	publish(t, feed, userID, gateway.EventInsert)
	publish(t, feed, userID, gateway.EventUpdate)
	publish(t, feed, userID, gateway.EventDelete)

	assert.Eventually(t, func() bool { return reloader.count() == 3 }, time.Second, 5*time.Millisecond)
	assert.True(t, listener.Enabled())
}

func TestListenerCoalescesBursts(t *testing.T) {
	feed := gateway.NewMemoryFeed("rt")
	reloader := &countingReloader{}
	listener, err := NewListener(feed, reloader, Options{CoalesceWindow: 200 * time.Millisecond})
	require.NoError(t, err)

	userID := uuid.New()
	require.NoError(t, listener.Start(context.Background(), userID))
	defer listener.Stop()

	for i := 0; i < 5; i++ {
		publish(t, feed, userID, gateway.EventUpdate)
	}

	assert.Eventually(t, func() bool { return reloader.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, reloader.count())
}

func TestListenerIgnoresOtherUsers(t *testing.T) {
	feed := gateway.NewMemoryFeed("rt")
	reloader := &countingReloader{}
	listener, err := NewListener(feed, reloader, Options{})
	require.NoError(t, err)

	require.NoError(t, listener.Start(context.Background(), uuid.New()))
	defer listener.Stop()

	publish(t, feed, uuid.New(), gateway.EventInsert)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, reloader.count())
	assert.False(t, listener.Enabled())
}

func TestListenerStopUnsubscribes(t *testing.T) {
	feed := gateway.NewMemoryFeed("rt")
	reloader := &countingReloader{}
	listener, err := NewListener(feed, reloader, Options{})
	require.NoError(t, err)

	userID := uuid.New()
	channel := feed.Channel(gateway.TableCartItems, userID)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, listener.Start(ctx, userID))
	cancel()
	assert.Equal(t, 1, feed.Subscribers(channel))

	publish(t, feed, userID, gateway.EventInsert)
	assert.Eventually(t, listener.Enabled, time.Second, 5*time.Millisecond)

	listener.Stop()
	assert.False(t, listener.Enabled())
	assert.Zero(t, feed.Subscribers(channel))

	publish(t, feed, userID, gateway.EventInsert)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, reloader.count())

	listener.Stop()
}

func TestListenerStopClearsEnabledWithEventsInFlight(t *testing.T) {
	feed := gateway.NewMemoryFeed("rt")
	listener, err := NewListener(feed, &countingReloader{}, Options{})
	require.NoError(t, err)
	userID := uuid.New()

	for run := 0; run < 200; run++ {
		require.NoError(t, listener.Start(context.Background(), userID))
		for i := 0; i < 40; i++ {
			publish(t, feed, userID, gateway.EventUpdate)
		}
		listener.Stop()
		if listener.Enabled() {
			t.Fatalf("run %d: enabled after stop", run)
		}
	}
}

func TestListenerRestartSwitchesUser(t *testing.T) {
	feed := gateway.NewMemoryFeed("rt")
	listener, err := NewListener(feed, &countingReloader{}, Options{})
	require.NoError(t, err)

	first, second := uuid.New(), uuid.New()
	require.NoError(t, listener.Start(context.Background(), first))
	require.NoError(t, listener.Start(context.Background(), second))
	defer listener.Stop()

	assert.Zero(t, feed.Subscribers(feed.Channel(gateway.TableCartItems, first)))
	assert.Equal(t, 1, feed.Subscribers(feed.Channel(gateway.TableCartItems, second)))
}

func TestNewListenerValidates(t *testing.T) {
	_, err := NewListener(nil, &countingReloader{}, Options{})
	assert.Error(t, err)
	_, err = NewListener(gateway.NewMemoryFeed(""), nil, Options{})
	assert.Error(t, err)
	_, err = NewListener(gateway.NewMemoryFeed(""), &countingReloader{}, Options{CoalesceWindow: -time.Second})
	assert.Error(t, err)
}
