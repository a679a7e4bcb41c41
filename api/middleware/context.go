package middleware

import (
	"context"

	"github.com/angelmondragon/storefront/internal/storefront"
)

type contextKey string

const ctxClient contextKey = "device_client"

// ClientFromContext returns the device client attached by Device.
func ClientFromContext(ctx context.Context) *storefront.Client {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxClient).(*storefront.Client); ok {
		return v
	}
	return nil
}

// WithClient injects the device client into the context.
func WithClient(ctx context.Context, client *storefront.Client) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxClient, client)
}
