package wishlist

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/localstorage"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/google/uuid"
)

// LocalStore keeps an anonymous wishlist in device storage under the
// "wishlist" key. Storage failures are logged and swallowed.
type LocalStore struct {
	storage *localstorage.Storage
	ids     *localstorage.IDGenerator
	logg    *logger.Logger
	now     func() time.Time

	mu     sync.Mutex
	items  []Item
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

func (s *LocalStore) Load(ctx context.Context) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded || !s.dirty {
		s.read(ctx)
	}
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out, nil
}

// Add appends product unless it is already saved.
func (s *LocalStore) Add(ctx context.Context, product *catalog.ProductSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.read(ctx)
	}
	if contains(s.items, product.ID) {
		return nil
	}
	s.items = append(s.items, Item{
		ID:        s.ids.Next(),
		ProductID: product.ID,
		Product:   product,
		CreatedAt: s.now().UTC(),
	})
	s.persist(ctx)
	return nil
}

func (s *LocalStore) Remove(ctx context.Context, productID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.read(ctx)
	}
	kept := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.persist(ctx)
	return nil
}

func (s *LocalStore) read(ctx context.Context) {
	var stored []Item
	if _, err := s.storage.Load(localstorage.KeyWishlist, &stored); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to read local wishlist")
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
	if err := s.storage.Save(localstorage.KeyWishlist, s.items); err != nil {
		s.dirty = true
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to persist local wishlist")
		return
	}
	s.dirty = false
}
