package wishlist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/localstorage"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/google/uuid"
)

const collection = "wishlist"

type productLookup interface {
	Product(ctx context.Context, id uuid.UUID) (*catalog.ProductSnapshot, error)
}

// Params wires a Manager.
type Params struct {
	Catalog productLookup
	Remote  remoteRepository
	Local   *localstorage.Storage
	IDs     *localstorage.IDGenerator
	Logger  *logger.Logger
	Metrics *metrics.Storefront
	Now     func() time.Time
}

// Manager owns a device's saved products. A product appears at most once
// whichever store is active.
type Manager struct {
	catalog productLookup
	remote  remoteRepository
	local   *localstorage.Storage
	ids     *localstorage.IDGenerator
	logg    *logger.Logger
	metrics *metrics.Storefront
	now     func() time.Time

	opMu sync.Mutex

	mu       sync.RWMutex
	store    Store
	userID   uuid.UUID
	resolved bool
	items    []Item
	loading  bool
}

func NewManager(p Params) (*Manager, error) {
	if p.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if p.Remote == nil {
		return nil, fmt.Errorf("remote wishlist repository required")
	}
	if p.Local == nil {
		return nil, fmt.Errorf("local storage required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.IDs == nil {
		p.IDs = localstorage.NewIDGenerator(p.Now)
	}
	m := &Manager{
		catalog: p.Catalog,
		remote:  p.Remote,
		local:   p.Local,
		ids:     p.IDs,
		logg:    p.Logger,
		metrics: p.Metrics,
		now:     p.Now,
	}
	m.store = NewLocalStore(m.local, m.ids, m.logg, m.now)
	return m, nil
}

// HandleSession swaps the backing store when the signed-in user changes and
// reloads from it. Anonymous lines are not carried into the remote wishlist.
func (m *Manager) HandleSession(ctx context.Context, userID uuid.UUID) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if m.resolved && m.userID == userID {
		m.mu.Unlock()
		return nil
	}
	if userID == uuid.Nil {
		m.store = NewLocalStore(m.local, m.ids, m.logg, m.now)
	} else {
		m.store = NewRemoteStore(m.remote, userID)
	}
	m.userID = userID
	m.resolved = true
	m.items = nil
	m.mu.Unlock()

	ctx, _ = m.scope(ctx, "handle_session")
	return m.reload(ctx)
}

// AddToWishlist saves productID. Saving a product already present is a no-op.
func (m *Manager) AddToWishlist(ctx context.Context, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()
	ctx, store := m.scope(ctx, "add_to_wishlist")

	if m.IsInWishlist(productID) {
		return nil
	}
	product, err := m.catalog.Product(ctx, productID)
	if err != nil {
		m.logg.Error(ctx, "product lookup failed", err)
		return err
	}
	if err := store.Add(ctx, product); err != nil {
		m.logg.Error(ctx, "add to wishlist failed", err)
		return err
	}
	return m.reload(ctx)
}

func (m *Manager) RemoveFromWishlist(ctx context.Context, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()
	ctx, store := m.scope(ctx, "remove_from_wishlist")

	if err := store.Remove(ctx, productID); err != nil {
		m.logg.Error(ctx, "remove from wishlist failed", err)
		return err
	}
	return m.reload(ctx)
}

// IsInWishlist checks the in-memory list only; it can lag a remote write
// until the following reload lands.
func (m *Manager) IsInWishlist(productID uuid.UUID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return contains(m.items, productID)
}

func (m *Manager) RefreshWishlist(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	ctx, _ = m.scope(ctx, "refresh_wishlist")
	return m.reload(ctx)
}

func (m *Manager) Items() []Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out
}

func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

func (m *Manager) Kind() StoreKind {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.Kind()
}

func (m *Manager) scope(ctx context.Context, operation string) (context.Context, Store) {
	m.mu.RLock()
	store := m.store
	m.mu.RUnlock()
	return m.logg.WithFields(ctx, map[string]any{
		"operation": operation,
		"store":     string(store.Kind()),
	}), store
}

func (m *Manager) reload(ctx context.Context) error {
	m.mu.Lock()
	m.loading = true
	store := m.store
	m.mu.Unlock()

	started := time.Now()
	items, err := store.Load(ctx)
	m.metrics.ObserveReload(collection, string(store.Kind()), time.Since(started), err)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
	if err != nil {
		m.logg.Error(ctx, "wishlist reload failed", err)
		return err
	}
	m.items = items
	return nil
}
