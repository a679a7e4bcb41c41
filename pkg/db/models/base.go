package models

import (
	"github.com/google/uuid"
)

// ensureID assigns a client-side UUID when the row has none yet. Postgres has
// gen_random_uuid() defaults, but SQLite-backed tests and tooling do not.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every model owned by the storefront schema, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Profile{},
		&Product{},
		&ProductVariant{},
		&CartItem{},
		&WishlistItem{},
	}
}
