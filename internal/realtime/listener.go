// Package realtime follows a signed-in user's cart_items change channel and
// reloads the cart when rows change elsewhere.
package realtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/storefront/internal/gateway"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/google/uuid"
)

// Reloader is the cart side of the listener.
type Reloader interface {
	RefreshCart(ctx context.Context) error
}

// Options tune a Listener.
type Options struct {
	// CoalesceWindow is how long the first pending notification waits for
	// more before a single reload runs. Zero reloads once per notification.
	CoalesceWindow time.Duration
	Logger         *logger.Logger
	Metrics        *metrics.Storefront
}

// Listener owns at most one subscription at a time. Notifications are read
// by a pump goroutine that never blocks the publisher; reloads run on a
// single worker goroutine, so they never overlap.
type Listener struct {
	feed     gateway.ChangeFeed
	reloader Reloader
	window   time.Duration
	logg     *logger.Logger
	metrics  *metrics.Storefront

	enabled atomic.Bool

	mu      sync.Mutex
	current *run
}

type run struct {
	userID  uuid.UUID
	sub     gateway.Subscription
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	kick    chan struct{}
	mu      sync.Mutex
	pending int
}

func NewListener(feed gateway.ChangeFeed, reloader Reloader, opts Options) (*Listener, error) {
	if feed == nil {
		return nil, fmt.Errorf("change feed required")
	}
	if reloader == nil {
		return nil, fmt.Errorf("reloader required")
	}
	if opts.CoalesceWindow < 0 {
		return nil, fmt.Errorf("coalesce window must not be negative")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Listener{
		feed:     feed,
		reloader: reloader,
		window:   opts.CoalesceWindow,
		logg:     opts.Logger,
		metrics:  opts.Metrics,
	}, nil
}

// Start subscribes to userID's cart channel, replacing any running
// subscription. The subscription outlives ctx; call Stop to end it.
func (l *Listener) Start(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("user id required")
	}
	l.Stop()

	channel := l.feed.Channel(gateway.TableCartItems, userID)
	sub, err := l.feed.Subscribe(ctx, channel)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	runCtx = l.logg.WithFields(runCtx, map[string]any{
		"user_id": userID.String(),
		"channel": channel,
	})
	r := &run{
		userID: userID,
		sub:    sub,
		cancel: cancel,
		kick:   make(chan struct{}, 1),
	}

	l.mu.Lock()
	l.current = r
	l.mu.Unlock()

	r.wg.Add(2)
	go l.pump(runCtx, r)
	go l.work(runCtx, r)
	l.logg.Debug(runCtx, "realtime listener started")
	return nil
}

// Stop unsubscribes and waits for the goroutines to exit. It clears the
// enabled flag and is safe to call when nothing is running.
func (l *Listener) Stop() {
	l.mu.Lock()
	r := l.current
	l.current = nil
	l.mu.Unlock()

	if r == nil {
		l.enabled.Store(false)
		return
	}
	r.cancel()
	if err := r.sub.Close(); err != nil {
		l.logg.Warn(l.logg.WithField(context.Background(), "error", err.Error()), "failed to close realtime subscription")
	}
	r.wg.Wait()
	// the pump may have flagged a buffered event before it saw the cancel
	l.enabled.Store(false)
}

// Enabled reports whether a notification has arrived since the last Start.
func (l *Listener) Enabled() bool {
	return l.enabled.Load()
}

func (l *Listener) pump(ctx context.Context, r *run) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-r.sub.Events():
			if !ok || ctx.Err() != nil {
				return
			}
			l.metrics.IncRealtimeEvent(string(event.Type))
			l.enabled.Store(true)

			r.mu.Lock()
			r.pending++
			r.mu.Unlock()
			select {
			case r.kick <- struct{}{}:
			default:
			}
		}
	}
}

func (l *Listener) work(ctx context.Context, r *run) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.kick:
		}

		if l.window > 0 {
			timer := time.NewTimer(l.window)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		r.mu.Lock()
		n := r.pending
		r.pending = 0
		r.mu.Unlock()
		if n == 0 {
			continue
		}

		reloads := n
		if l.window > 0 {
			reloads = 1
			for i := 1; i < n; i++ {
				l.metrics.IncCoalesced()
			}
		}
		for i := 0; i < reloads; i++ {
			if ctx.Err() != nil {
				return
			}
			l.metrics.IncRealtimeReload()
			if err := l.reloader.RefreshCart(ctx); err != nil && ctx.Err() == nil {
				l.logg.Error(ctx, "realtime cart reload failed", err)
			}
		}
	}
}
