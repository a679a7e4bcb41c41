package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Registry lazily builds one Client per device id. Builds run outside the
// lock so a slow device never stalls lookups for the others.
type Registry struct {
	deps Deps

	mu       sync.Mutex
	clients  map[uuid.UUID]*Client
	building map[uuid.UUID]*build
	closed   bool
}

// build is an in-flight NewClient shared by every caller for the device.
type build struct {
	done   chan struct{}
	client *Client
	err    error
}

var errRegistryClosed = errors.New("registry closed")

func NewRegistry(deps Deps) (*Registry, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &Registry{
		deps:     deps,
		clients:  map[uuid.UUID]*Client{},
		building: map[uuid.UUID]*build{},
	}, nil
}

// Client returns the device's client, building it on first use. Concurrent
// callers for the same device share one build. A client whose session cannot
// be resolved is not cached.
func (r *Registry) Client(ctx context.Context, deviceID uuid.UUID) (*Client, error) {
	if deviceID == uuid.Nil {
		return nil, fmt.Errorf("device id required")
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, errRegistryClosed
	}
	if c, ok := r.clients[deviceID]; ok {
		r.mu.Unlock()
		return c, nil
	}
	if b, ok := r.building[deviceID]; ok {
		r.mu.Unlock()
		select {
		case <-b.done:
			return b.client, b.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	b := &build{done: make(chan struct{})}
	r.building[deviceID] = b
	r.mu.Unlock()

	c, err := NewClient(ctx, r.deps, deviceID)

	r.mu.Lock()
	delete(r.building, deviceID)
	switch {
	case err != nil:
	case r.closed:
		err = errRegistryClosed
	default:
		r.clients[deviceID] = c
		r.deps.Metrics.SetActiveDevices(len(r.clients))
	}
	r.mu.Unlock()

	if err != nil {
		if c != nil {
			// the registry closed while this client was being built
			c.Close()
		}
		b.err = err
		close(b.done)
		return nil, err
	}
	b.client = c
	close(b.done)
	r.deps.Logger.Info(r.deps.Logger.WithDeviceID(ctx, deviceID.String()), "device client created")
	return c, nil
}

// Evict closes and forgets a device's client. Its local storage stays.
func (r *Registry) Evict(deviceID uuid.UUID) {
	r.mu.Lock()
	c, ok := r.clients[deviceID]
	delete(r.clients, deviceID)
	r.deps.Metrics.SetActiveDevices(len(r.clients))
	r.mu.Unlock()
	if ok {
		c.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Close closes every client. Later Client calls fail.
func (r *Registry) Close() {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.clients = map[uuid.UUID]*Client{}
	r.closed = true
	r.deps.Metrics.SetActiveDevices(0)
	r.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
