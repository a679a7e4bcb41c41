package gateway

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WishlistRepository persists wishlist_items. (user_id, product_id) is unique.
type WishlistRepository struct {
	db *gorm.DB
}

// NewWishlistRepository constructs a wishlist repository bound to the provided gorm DB.
func NewWishlistRepository(conn *gorm.DB) (*WishlistRepository, error) {
	if conn == nil {
		return nil, fmt.Errorf("db required")
	}
	return &WishlistRepository{db: conn}, nil
}

// ListByUser returns saved products oldest first, with the product joined.
func (r *WishlistRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist items")
	}
	return items, nil
}

// Exists reports whether the user already saved productID.
func (r *WishlistRepository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error; err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check wishlist item")
	}
	return count > 0, nil
}

// Insert saves a product. A duplicate returns CONFLICT.
func (r *WishlistRepository) Insert(ctx context.Context, item *models.WishlistItem) error {
	if item == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "wishlist item required")
	}
	if err := r.db.WithContext(ctx).Omit("Product").Create(item).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product already in wishlist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert wishlist item")
	}
	return nil
}

// DeleteByUserProduct removes productID from the user's wishlist.
func (r *WishlistRepository) DeleteByUserProduct(ctx context.Context, userID, productID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{}).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete wishlist item")
	}
	return nil
}
