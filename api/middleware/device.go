package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/internal/storefront"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// DeviceIDHeader names the device whose state a request acts on.
const DeviceIDHeader = "X-Device-ID"

type clientRegistry interface {
	Client(ctx context.Context, deviceID uuid.UUID) (*storefront.Client, error)
}

// Device resolves the caller's device client and seeds the request context
// with it.
func Device(registry clientRegistry, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw := strings.TrimSpace(r.Header.Get(DeviceIDHeader))
			if raw == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "device id header is required"))
				return
			}
			deviceID, err := uuid.Parse(raw)
			if err != nil || deviceID == uuid.Nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "device id must be a uuid"))
				return
			}

			if logg != nil {
				ctx = logg.WithDeviceID(ctx, deviceID.String())
			}
			client, err := registry.Client(ctx, deviceID)
			if err != nil {
				if pkgerrors.As(err) == nil {
					err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve device")
				}
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if identity := client.Session().Identity(); identity != nil && logg != nil {
				ctx = logg.WithUserID(ctx, identity.UserID.String())
			}

			next.ServeHTTP(w, r.WithContext(WithClient(ctx, client)))
		})
	}
}
