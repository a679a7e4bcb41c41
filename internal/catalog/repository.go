package catalog

import (
	"context"
	"strings"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ProductFilter narrows List. Zero values mean "any", except Status which
// defaults to active.
type ProductFilter struct {
	Category string
	Featured *bool
	Status   string
	Limit    int
}

// Repository reads products and variants.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads a product by slug including its variants.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&product, "slug = ?", strings.TrimSpace(slug)).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns products matching filter, featured first then newest.
func (r *Repository) List(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	status := strings.TrimSpace(filter.Status)
	if status == "" {
		status = models.ProductStatusActive
	}
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("status = ?", status)
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if filter.Featured != nil {
		query = query.Where("is_featured = ?", *filter.Featured)
	}

	var products []models.Product
	if err := query.
		Order("is_featured DESC").
		Order("created_at DESC").
		Limit(normalizeLimit(filter.Limit)).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindVariant loads a single variant.
func (r *Repository) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// ListInStockVariants returns the variants of productID with stock left.
func (r *Repository) ListInStockVariants(ctx context.Context, productID uuid.UUID) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND stock_quantity > 0", productID).
		Order("created_at ASC").
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
