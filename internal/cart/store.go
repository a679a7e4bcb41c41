package cart

import (
	"context"

	"github.com/angelmondragon/storefront/internal/catalog"
)

// StoreKind names the backing store of a cart.
type StoreKind string

const (
	KindRemote StoreKind = "remote"
	KindLocal  StoreKind = "local"
)

// ItemStore is the backing store the Manager reads and writes through. The
// Manager swaps implementations when the session changes.
type ItemStore interface {
	Kind() StoreKind
	Load(ctx context.Context) ([]LineItem, error)
	// Add merges into the line for the same product and variant, or creates one.
	Add(ctx context.Context, product *catalog.ProductSnapshot, variant *catalog.VariantSnapshot, quantity int) error
	Remove(ctx context.Context, itemID string) error
	UpdateQuantity(ctx context.Context, itemID string, quantity int) error
	Clear(ctx context.Context) error
}
