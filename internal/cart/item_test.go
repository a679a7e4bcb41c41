package cart

import (
	"testing"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func price(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func line(base, sale, adjustment string, qty int) LineItem {
	product := &catalog.ProductSnapshot{ID: uuid.New(), BasePrice: price(base)}
	if sale != "" {
		s := price(sale)
		product.SalePrice = &s
	}
	return LineItem{
		ID:        uuid.NewString(),
		ProductID: product.ID,
		Quantity:  qty,
		Product:   product,
		Variant:   &catalog.VariantSnapshot{ID: uuid.New(), ProductID: product.ID, PriceAdjustment: price(adjustment)},
	}
}

func TestTotalUsesSalePriceAndAdjustment(t *testing.T) {
	items := []LineItem{
		line("20.00", "", "2.50", 2),      // 45.00
		line("30.00", "25.00", "0", 1),    // 25.00
		line("10.00", "8.00", "-1.00", 3), // 21.00
	}
	got := Total(items)
	if !got.Equal(price("91.00")) {
		t.Fatalf("expected total 91.00, got %s", got)
	}
}

func TestTotalMissingSnapshotsContributeZero(t *testing.T) {
	noProduct := line("99.00", "", "1.00", 4)
	noProduct.Product = nil
	noVariant := line("99.00", "", "1.00", 4)
	noVariant.Variant = nil

	items := []LineItem{noProduct, noVariant, line("5.00", "", "0", 2)}
	if got := Total(items); !got.Equal(price("10.00")) {
		t.Fatalf("expected total 10.00, got %s", got)
	}
	if got := noProduct.Subtotal(); !got.IsZero() {
		t.Fatalf("expected zero subtotal, got %s", got)
	}
}

func TestCountSumsQuantities(t *testing.T) {
	if got := Count([]LineItem{line("1", "", "0", 5)}); got != 5 {
		t.Fatalf("expected count 5, got %d", got)
	}
	if got := Count([]LineItem{line("1", "", "0", 2), line("1", "", "0", 3)}); got != 5 {
		t.Fatalf("expected count 5, got %d", got)
	}
	if got := Count(nil); got != 0 {
		t.Fatalf("expected empty count 0, got %d", got)
	}
}
