package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/internal/storefront"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

func deviceClient(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*storefront.Client, bool) {
	client := middleware.ClientFromContext(r.Context())
	if client == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "device context missing"))
		return nil, false
	}
	return client, true
}
