package catalog

import (
	"time"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSnapshot is the denormalized product copy carried by cart and
// wishlist lines.
type ProductSnapshot struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category,omitempty"`
	BasePrice   decimal.Decimal  `json:"base_price"`
	SalePrice   *decimal.Decimal `json:"sale_price"`
	Images      []string         `json:"images"`
	Status      string           `json:"status"`
	IsFeatured  bool             `json:"is_featured"`
	CreatedAt   time.Time        `json:"created_at"`
}

// EffectivePrice is the sale price when set, otherwise the base price.
func (p ProductSnapshot) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.BasePrice
}

// Thumbnail returns the first image or "".
func (p ProductSnapshot) Thumbnail() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// VariantSnapshot is the denormalized variant copy carried by cart lines.
type VariantSnapshot struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Size            string          `json:"size,omitempty"`
	Color           string          `json:"color,omitempty"`
	SKU             string          `json:"sku,omitempty"`
	StockQuantity   int             `json:"stock_quantity"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
}

// SnapshotProduct copies p. Nil in, nil out.
func SnapshotProduct(p *models.Product) *ProductSnapshot {
	if p == nil {
		return nil
	}
	snap := &ProductSnapshot{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Category:    p.Category,
		BasePrice:   p.BasePrice,
		Images:      append([]string{}, p.Images...),
		Status:      p.Status,
		IsFeatured:  p.IsFeatured,
		CreatedAt:   p.CreatedAt,
	}
	if p.SalePrice.Valid {
		sale := p.SalePrice.Decimal
		snap.SalePrice = &sale
	}
	return snap
}

// SnapshotVariant copies v. Nil in, nil out.
func SnapshotVariant(v *models.ProductVariant) *VariantSnapshot {
	if v == nil {
		return nil
	}
	return &VariantSnapshot{
		ID:              v.ID,
		ProductID:       v.ProductID,
		Size:            v.Size,
		Color:           v.Color,
		SKU:             v.SKU,
		StockQuantity:   v.StockQuantity,
		PriceAdjustment: v.PriceAdjustment,
	}
}
