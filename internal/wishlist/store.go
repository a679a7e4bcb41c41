package wishlist

import (
	"context"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/google/uuid"
)

// StoreKind names the backing store of a wishlist.
type StoreKind string

const (
	KindRemote StoreKind = "remote"
	KindLocal  StoreKind = "local"
)

// Store is the backing store the Manager swaps on session changes.
type Store interface {
	Kind() StoreKind
	Load(ctx context.Context) ([]Item, error)
	Add(ctx context.Context, product *catalog.ProductSnapshot) error
	Remove(ctx context.Context, productID uuid.UUID) error
}
