package gateway

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItemRepository persists cart_items and announces every committed write
// on the change feed.
type CartItemRepository struct {
	db   *gorm.DB
	feed ChangeFeed
	logg *logger.Logger
}

// NewCartItemRepository builds the repository. feed may be nil when no
// realtime delivery is wanted.
func NewCartItemRepository(conn *gorm.DB, feed ChangeFeed, logg *logger.Logger) (*CartItemRepository, error) {
	if conn == nil {
		return nil, fmt.Errorf("db required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &CartItemRepository{db: conn, feed: feed, logg: logg}, nil
}

// ListByUser returns the user's lines oldest first, with product and variant joined.
func (r *CartItemRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Variant").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	return items, nil
}

// FindByUserProductVariant returns the line for the exact pair, or nil.
func (r *CartItemRepository) FindByUserProductVariant(ctx context.Context, userID, productID, variantID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND variant_id = ?", userID, productID, variantID).
		First(&item).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cart item")
	}
	return &item, nil
}

// Insert stores a new line.
func (r *CartItemRepository) Insert(ctx context.Context, item *models.CartItem) error {
	if item == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart item required")
	}
	if err := r.db.WithContext(ctx).Omit("Product", "Variant").Create(item).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert cart item")
	}
	id := item.ID
	r.publish(ctx, ChangeEvent{Table: TableCartItems, Type: EventInsert, UserID: item.UserID, RecordID: &id})
	return nil
}

// UpdateQuantity sets the quantity of one of the user's lines.
func (r *CartItemRepository) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", itemID, userID).
		Update("quantity", quantity)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update cart item")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	r.publish(ctx, ChangeEvent{Table: TableCartItems, Type: EventUpdate, UserID: userID, RecordID: &itemID})
	return nil
}

// Delete removes one of the user's lines. Deleting a missing line is a no-op.
func (r *CartItemRepository) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "delete cart item")
	}
	if res.RowsAffected > 0 {
		r.publish(ctx, ChangeEvent{Table: TableCartItems, Type: EventDelete, UserID: userID, RecordID: &itemID})
	}
	return nil
}

// DeleteByUser empties the user's cart.
func (r *CartItemRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "clear cart")
	}
	if res.RowsAffected > 0 {
		r.publish(ctx, ChangeEvent{Table: TableCartItems, Type: EventDelete, UserID: userID})
	}
	return nil
}

// publish failures are logged only; the row change is already committed.
func (r *CartItemRepository) publish(ctx context.Context, event ChangeEvent) {
	if r.feed == nil {
		return
	}
	if err := r.feed.Publish(ctx, event); err != nil {
		ctx = r.logg.WithFields(ctx, map[string]any{
			"table": event.Table,
			"event": string(event.Type),
			"error": err.Error(),
		})
		r.logg.Warn(ctx, "change event publish failed")
	}
}
