// Package dbtest opens throwaway sqlite databases with the storefront schema
// and seeds rows for repository tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/models"
	dbtypes "github.com/angelmondragon/storefront/pkg/db/types"
)

// Open returns an isolated in-memory database with every model migrated.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// MustCreateUser inserts a user with a random email.
func MustCreateUser(t testing.TB, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Email:        fmt.Sprintf("sf_test_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// ProductOption tweaks a seeded product.
type ProductOption func(*models.Product)

// WithSalePrice sets the product sale price.
func WithSalePrice(price string) ProductOption {
	return func(p *models.Product) {
		p.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
}

// WithCategory sets the product category.
func WithCategory(category string) ProductOption {
	return func(p *models.Product) { p.Category = category }
}

// WithStatus sets the product status.
func WithStatus(status string) ProductOption {
	return func(p *models.Product) { p.Status = status }
}

// Featured marks the product as featured.
func Featured() ProductOption {
	return func(p *models.Product) { p.IsFeatured = true }
}

// MustCreateProduct inserts an active product priced at basePrice.
func MustCreateProduct(t testing.TB, db *gorm.DB, name, basePrice string, opts ...ProductOption) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:      name,
		Slug:      fmt.Sprintf("%s-%s", name, uuid.NewString()[:8]),
		BasePrice: decimal.RequireFromString(basePrice),
		Images:    dbtypes.ImageList{"https://cdn.example.com/" + name + ".jpg"},
		Status:    models.ProductStatusActive,
	}
	for _, opt := range opts {
		opt(product)
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

// MustCreateVariant inserts a variant of productID.
func MustCreateVariant(t testing.TB, db *gorm.DB, productID uuid.UUID, adjustment string, stock int) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ProductID:       productID,
		Size:            "M",
		Color:           "black",
		SKU:             "SKU-" + uuid.NewString()[:12],
		StockQuantity:   stock,
		PriceAdjustment: decimal.RequireFromString(adjustment),
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("create variant: %v", err)
	}
	return variant
}
