package cart

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/localstorage"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// LocalStore keeps an anonymous cart in device storage under the "cart" key.
// Storage failures are logged and swallowed; the in-memory copy stays
// authoritative until a later save succeeds.
type LocalStore struct {
	storage *localstorage.Storage
	ids     *localstorage.IDGenerator
	logg    *logger.Logger
	now     func() time.Time

	mu     sync.Mutex
	items  []LineItem
	loaded bool
	dirty  bool
}

func NewLocalStore(storage *localstorage.Storage, ids *localstorage.IDGenerator, logg *logger.Logger, now func() time.Time) *LocalStore {
	if logg == nil {
		logg = logger.Nop()
	}
	if now == nil {
		now = time.Now
	}
	if ids == nil {
		ids = localstorage.NewIDGenerator(now)
	}
	return &LocalStore{storage: storage, ids: ids, logg: logg, now: now}
}

func (s *LocalStore) Kind() StoreKind { return KindLocal }

// Load re-reads device storage unless an unsaved change is pending.
func (s *LocalStore) Load(ctx context.Context) ([]LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded || !s.dirty {
		s.read(ctx)
	}
	return cloneLines(s.items), nil
}

func (s *LocalStore) Add(ctx context.Context, product *catalog.ProductSnapshot, variant *catalog.VariantSnapshot, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	now := s.now().UTC()
	for i := range s.items {
		if s.items[i].matches(product.ID, variant.ID) {
			merged, err := mergedQuantity(s.items[i].Quantity, quantity)
			if err != nil {
				return err
			}
			s.items[i].Quantity = merged
			s.items[i].UpdatedAt = now
			s.persist(ctx)
			return nil
		}
	}
	s.items = append(s.items, LineItem{
		ID:        s.ids.Next(),
		ProductID: product.ID,
		VariantID: variant.ID,
		Quantity:  quantity,
		Product:   product,
		Variant:   variant,
		CreatedAt: now,
		UpdatedAt: now,
	})
	s.persist(ctx)
	return nil
}

func (s *LocalStore) Remove(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	kept := make([]LineItem, 0, len(s.items))
	for _, item := range s.items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.persist(ctx)
	return nil
}

func (s *LocalStore) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].Quantity = quantity
			s.items[i].UpdatedAt = s.now().UTC()
			s.persist(ctx)
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
}

func (s *LocalStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = []LineItem{}
	s.loaded = true
	s.persist(ctx)
	return nil
}

func (s *LocalStore) ensureLoaded(ctx context.Context) {
	if !s.loaded {
		s.read(ctx)
	}
}

func (s *LocalStore) read(ctx context.Context) {
	var stored []LineItem
	if _, err := s.storage.Load(localstorage.KeyCart, &stored); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to read local cart")
		s.loaded = true
		return
	}
	for _, item := range stored {
		s.ids.Observe(item.ID)
	}
	s.items = stored
	s.loaded = true
}

func (s *LocalStore) persist(ctx context.Context) {
	if err := s.storage.Save(localstorage.KeyCart, s.items); err != nil {
		s.dirty = true
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to persist local cart")
		return
	}
	s.dirty = false
}

func cloneLines(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
