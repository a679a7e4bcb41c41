package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/localstorage"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const collection = "cart"

type productLookup interface {
	Product(ctx context.Context, id uuid.UUID) (*catalog.ProductSnapshot, error)
	Variant(ctx context.Context, id uuid.UUID) (*catalog.VariantSnapshot, error)
}

// Realtime follows remote cart changes while a user is signed in.
type Realtime interface {
	Start(ctx context.Context, userID uuid.UUID) error
	Stop()
	Enabled() bool
}

// Params wires a Manager.
type Params struct {
	Catalog       productLookup
	Remote        remoteRepository
	Local         *localstorage.Storage
	IDs           *localstorage.IDGenerator
	Logger        *logger.Logger
	Metrics       *metrics.Storefront
	MergeOnSignIn bool
	Now           func() time.Time
}

// Manager owns a device's cart lines. Every mutation goes to the active
// ItemStore and is followed by a full reload from it. Operations are
// serialized per manager.
type Manager struct {
	catalog       productLookup
	remote        remoteRepository
	local         *localstorage.Storage
	ids           *localstorage.IDGenerator
	logg          *logger.Logger
	metrics       *metrics.Storefront
	mergeOnSignIn bool
	now           func() time.Time

	sessionMu sync.Mutex
	opMu      sync.Mutex

	mu       sync.RWMutex
	store    ItemStore
	userID   uuid.UUID
	resolved bool
	items    []LineItem
	loading  bool
	realtime Realtime
}

func NewManager(p Params) (*Manager, error) {
	if p.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if p.Remote == nil {
		return nil, fmt.Errorf("remote cart repository required")
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
		catalog:       p.Catalog,
		remote:        p.Remote,
		local:         p.Local,
		ids:           p.IDs,
		logg:          p.Logger,
		metrics:       p.Metrics,
		mergeOnSignIn: p.MergeOnSignIn,
		now:           p.Now,
	}
	m.store = m.newLocalStore()
	return m, nil
}

// AttachRealtime sets the listener started on sign-in and stopped on sign-out.
func (m *Manager) AttachRealtime(rt Realtime) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.realtime = rt
}

// HandleSession switches the backing store when the signed-in user changes
// (uuid.Nil means anonymous) and reloads from the new store. The first call
// always loads.
func (m *Manager) HandleSession(ctx context.Context, userID uuid.UUID) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	m.mu.RLock()
	prev, resolved, rt := m.userID, m.resolved, m.realtime
	m.mu.RUnlock()
	if resolved && prev == userID {
		return nil
	}

	// stopped before taking opMu: the listener's pending reload needs it
	if rt != nil {
		rt.Stop()
	}

	m.opMu.Lock()
	var carried []LineItem
	if m.mergeOnSignIn && prev == uuid.Nil && userID != uuid.Nil {
		carried = m.takeLocalLines(ctx)
	}

	var next ItemStore
	if userID == uuid.Nil {
		next = m.newLocalStore()
	} else {
		next = NewRemoteStore(m.remote, userID)
	}
	m.mu.Lock()
	m.store = next
	m.userID = userID
	m.resolved = true
	m.items = nil
	m.mu.Unlock()

	ctx = m.logg.WithField(ctx, "store", string(next.Kind()))
	if userID != uuid.Nil {
		ctx = m.logg.WithUserID(ctx, userID.String())
	}
	if len(carried) > 0 {
		m.replay(ctx, next, carried)
	}
	err := m.reload(ctx)
	m.opMu.Unlock()

	if userID != uuid.Nil && rt != nil {
		if serr := rt.Start(ctx, userID); serr != nil {
			m.logg.Error(ctx, "failed to start cart realtime listener", serr)
		}
	}
	return err
}

// AddToCart adds quantity of the product variant, merging with an existing
// line for the same pair.
func (m *Manager) AddToCart(ctx context.Context, productID, variantID uuid.UUID, quantity int) error {
	if err := checkQuantity(quantity); err != nil {
		return err
	}
	if productID == uuid.Nil || variantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product_id and variant_id are required")
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()
	ctx, store := m.scope(ctx, "add_to_cart")

	product, err := m.catalog.Product(ctx, productID)
	if err != nil {
		return m.fail(ctx, "product lookup failed", err)
	}
	variant, err := m.catalog.Variant(ctx, variantID)
	if err != nil {
		return m.fail(ctx, "variant lookup failed", err)
	}
	if variant.ProductID != product.ID {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant does not belong to product")
	}

	if err := store.Add(ctx, product, variant, quantity); err != nil {
		return m.fail(ctx, "add to cart failed", err)
	}
	return m.reload(ctx)
}

func (m *Manager) RemoveFromCart(ctx context.Context, itemID string) error {
	if strings.TrimSpace(itemID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()
	ctx, store := m.scope(ctx, "remove_from_cart")

	if err := store.Remove(ctx, itemID); err != nil {
		return m.fail(ctx, "remove from cart failed", err)
	}
	return m.reload(ctx)
}

// UpdateQuantity sets a line's quantity. Quantities outside
// [1, MaxLineQuantity] are rejected before any write.
func (m *Manager) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	if err := checkQuantity(quantity); err != nil {
		return err
	}
	if strings.TrimSpace(itemID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()
	ctx, store := m.scope(ctx, "update_quantity")

	if err := store.UpdateQuantity(ctx, itemID, quantity); err != nil {
		return m.fail(ctx, "update quantity failed", err)
	}
	return m.reload(ctx)
}

func (m *Manager) ClearCart(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	ctx, store := m.scope(ctx, "clear_cart")

	if err := store.Clear(ctx); err != nil {
		return m.fail(ctx, "clear cart failed", err)
	}
	return m.reload(ctx)
}

// RefreshCart reloads from the active store.
func (m *Manager) RefreshCart(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	ctx, _ = m.scope(ctx, "refresh_cart")
	return m.reload(ctx)
}

func (m *Manager) GetCartTotal() decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Total(m.items)
}

func (m *Manager) GetCartCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Count(m.items)
}

func (m *Manager) Items() []LineItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneLines(m.items)
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

func (m *Manager) RealtimeEnabled() bool {
	m.mu.RLock()
	rt := m.realtime
	m.mu.RUnlock()
	return rt != nil && rt.Enabled()
}

// Close stops the realtime listener.
func (m *Manager) Close() {
	m.mu.RLock()
	rt := m.realtime
	m.mu.RUnlock()
	if rt != nil {
		rt.Stop()
	}
}

func (m *Manager) scope(ctx context.Context, operation string) (context.Context, ItemStore) {
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
		m.logg.Error(ctx, "cart reload failed", err)
		return err
	}
	if m.store == store {
		m.items = items
	}
	return nil
}

func (m *Manager) fail(ctx context.Context, msg string, err error) error {
	m.logg.Error(ctx, msg, err)
	return err
}

func (m *Manager) newLocalStore() *LocalStore {
	return NewLocalStore(m.local, m.ids, m.logg, m.now)
}

// takeLocalLines reads the anonymous cart that is about to be replaced.
func (m *Manager) takeLocalLines(ctx context.Context) []LineItem {
	lines, err := m.newLocalStore().Load(ctx)
	if err != nil {
		return nil
	}
	return lines
}

// replay adds carried anonymous lines to the remote cart, then empties the
// local cart. Lines that fail are logged and stay local.
func (m *Manager) replay(ctx context.Context, remote ItemStore, lines []LineItem) {
	local := m.newLocalStore()
	failed := 0
	for _, line := range lines {
		product := line.Product
		if product == nil {
			product = &catalog.ProductSnapshot{ID: line.ProductID}
		}
		variant := line.Variant
		if variant == nil {
			variant = &catalog.VariantSnapshot{ID: line.VariantID, ProductID: line.ProductID}
		}
		if err := remote.Add(ctx, product, variant, line.Quantity); err != nil {
			failed++
			m.logg.Error(m.logg.WithField(ctx, "local_item_id", line.ID), "failed to merge local cart line", err)
			continue
		}
		if err := local.Remove(ctx, line.ID); err != nil {
			m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "failed to drop merged local cart line")
		}
	}
	if failed == 0 {
		m.logg.Info(m.logg.WithField(ctx, "lines", len(lines)), "merged local cart into remote cart")
	}
}
