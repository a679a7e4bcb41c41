package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/wishlist"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type addWishlistItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

type wishlistResponse struct {
	Items   []wishlist.Item `json:"items"`
	Store   string          `json:"store"`
	Loading bool            `json:"loading"`
}

func toWishlistResponse(m *wishlist.Manager) wishlistResponse {
	return wishlistResponse{
		Items:   m.Items(),
		Store:   string(m.Kind()),
		Loading: m.Loading(),
	}
}

func WishlistGet(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := deviceClient(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, toWishlistResponse(client.Wishlist()))
	}
}

// WishlistAdd saves a product; saving one already present succeeds.
func WishlistAdd(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := deviceClient(w, r, logg)
		if !ok {
			return
		}
		var body addWishlistItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		manager := client.Wishlist()
		if err := manager.AddToWishlist(r.Context(), uuid.MustParse(body.ProductID)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toWishlistResponse(manager))
	}
}

func WishlistRemove(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := deviceClient(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		manager := client.Wishlist()
		if err := manager.RemoveFromWishlist(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toWishlistResponse(manager))
	}
}

func WishlistContains(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := deviceClient(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"product_id":  productID,
			"in_wishlist": client.Wishlist().IsInWishlist(productID),
		})
	}
}
