package cart

import (
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps a single line so quantities, counts and totals never
// overflow.
const MaxLineQuantity = 999

// checkQuantity rejects quantities outside [1, MaxLineQuantity].
func checkQuantity(quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if quantity > MaxLineQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be at most %d", MaxLineQuantity))
	}
	return nil
}

// mergedQuantity is current+added, rejected when the line would pass the cap.
func mergedQuantity(current, added int) (int, error) {
	if added > MaxLineQuantity-current {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line quantity would exceed %d", MaxLineQuantity))
	}
	return current + added, nil
}

// LineItem is one cart line. UserID is empty for anonymous carts. ID is the
// row id remotely and a timestamp-derived token locally.
type LineItem struct {
	ID        string                   `json:"id"`
	UserID    string                   `json:"user_id"`
	ProductID uuid.UUID                `json:"product_id"`
	VariantID uuid.UUID                `json:"variant_id"`
	Quantity  int                      `json:"quantity"`
	Product   *catalog.ProductSnapshot `json:"product"`
	Variant   *catalog.VariantSnapshot `json:"variant"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// UnitPrice is the effective product price plus the variant adjustment. It is
// zero when either snapshot is missing.
func (l LineItem) UnitPrice() decimal.Decimal {
	if l.Product == nil || l.Variant == nil {
		return decimal.Zero
	}
	return l.Product.EffectivePrice().Add(l.Variant.PriceAdjustment)
}

// Subtotal is UnitPrice times quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l LineItem) matches(productID, variantID uuid.UUID) bool {
	return l.ProductID == productID && l.VariantID == variantID
}

// Total sums line subtotals.
func Total(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Count sums quantities.
func Count(items []LineItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

func lineFromModel(row models.CartItem) LineItem {
	return LineItem{
		ID:        row.ID.String(),
		UserID:    row.UserID.String(),
		ProductID: row.ProductID,
		VariantID: row.VariantID,
		Quantity:  row.Quantity,
		Product:   catalog.SnapshotProduct(row.Product),
		Variant:   catalog.SnapshotVariant(row.Variant),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
