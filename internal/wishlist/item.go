package wishlist

import (
	"time"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/google/uuid"
)

// Item is a saved product. UserID is empty for anonymous wishlists.
type Item struct {
	ID        string                   `json:"id"`
	UserID    string                   `json:"user_id"`
	ProductID uuid.UUID                `json:"product_id"`
	Product   *catalog.ProductSnapshot `json:"product"`
	CreatedAt time.Time                `json:"created_at"`
}

func itemFromModel(row models.WishlistItem) Item {
	return Item{
		ID:        row.ID.String(),
		UserID:    row.UserID.String(),
		ProductID: row.ProductID,
		Product:   catalog.SnapshotProduct(row.Product),
		CreatedAt: row.CreatedAt,
	}
}

func contains(items []Item, productID uuid.UUID) bool {
	for _, item := range items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}
