package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/storefront/pkg/db/types"
)

const (
	ProductStatusActive   = "active"
	ProductStatusDraft    = "draft"
	ProductStatusArchived = "archived"
)

// Product is the catalog listing. Prices are stored as numeric(10,2).
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name        string              `gorm:"column:name;not null"`
	Slug        string              `gorm:"column:slug;not null;uniqueIndex"`
	Description string              `gorm:"column:description"`
	Category    string              `gorm:"column:category;index"`
	BasePrice   decimal.Decimal     `gorm:"column:base_price;type:numeric(10,2);not null"`
	SalePrice   decimal.NullDecimal `gorm:"column:sale_price;type:numeric(10,2)"`
	Images      dbtypes.ImageList   `gorm:"column:images;type:text;not null;default:'[]'"`
	Status      string              `gorm:"column:status;not null;default:'active';index"`
	IsFeatured  bool                `gorm:"column:is_featured;not null;default:false"`
	Variants    []ProductVariant    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProductVariant is a purchasable size/color combination of a Product.
type ProductVariant struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Size            string          `gorm:"column:size"`
	Color           string          `gorm:"column:color"`
	SKU             string          `gorm:"column:sku;uniqueIndex"`
	StockQuantity   int             `gorm:"column:stock_quantity;not null;default:0"`
	PriceAdjustment decimal.Decimal `gorm:"column:price_adjustment;type:numeric(10,2);not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
