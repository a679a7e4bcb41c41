package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type addCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	VariantID string `json:"variant_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=999"`
}

// The manager enforces the same bounds; the tag rejects oversized values
// before they reach it.
type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"max=999"`
}

type cartLineResponse struct {
	cart.LineItem
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type cartResponse struct {
	Items           []cartLineResponse `json:"items"`
	Total           decimal.Decimal    `json:"total"`
	Count           int                `json:"count"`
	Store           string             `json:"store"`
	Loading         bool               `json:"loading"`
	RealtimeEnabled bool               `json:"realtime_enabled"`
}

func toCartResponse(m *cart.Manager) cartResponse {
	items := m.Items()
	lines := make([]cartLineResponse, 0, len(items))
	for _, item := range items {
		lines = append(lines, cartLineResponse{
			LineItem:  item,
			UnitPrice: item.UnitPrice(),
			Subtotal:  item.Subtotal(),
		})
	}
	return cartResponse{
		Items:           lines,
		Total:           cart.Total(items),
		Count:           cart.Count(items),
		Store:           string(m.Kind()),
		Loading:         m.Loading(),
		RealtimeEnabled: m.RealtimeEnabled(),
	}
}

func CartGet(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := deviceClient(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, toCartResponse(client.Cart()))
	}
}

func CartAdd(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := deviceClient(w, r, logg)
		if !ok {
			return
		}
		var body addCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		manager := client.Cart()
		if err := manager.AddToCart(r.Context(), uuid.MustParse(body.ProductID), uuid.MustParse(body.VariantID), body.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(manager))
	}
}

func CartUpdateQuantity(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := deviceClient(w, r, logg)
		if !ok {
			return
		}
		itemID, err := validators.URLParamString(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		manager := client.Cart()
		if err := manager.UpdateQuantity(r.Context(), itemID, body.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(manager))
	}
}

func CartRemoveItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := deviceClient(w, r, logg)
		if !ok {
			return
		}
		itemID, err := validators.URLParamString(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		manager := client.Cart()
		if err := manager.RemoveFromCart(r.Context(), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(manager))
	}
}

func CartClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := deviceClient(w, r, logg)
		if !ok {
			return
		}
		manager := client.Cart()
		if err := manager.ClearCart(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(manager))
	}
}

func CartRefresh(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := deviceClient(w, r, logg)
		if !ok {
			return
		}
		manager := client.Cart()
		if err := manager.RefreshCart(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(manager))
	}
}
