package storefront_test

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/gateway"
	"github.com/angelmondragon/storefront/internal/storefront"
	"github.com/angelmondragon/storefront/internal/storefront/storefronttest"
	"github.com/angelmondragon/storefront/internal/wishlist"
	"github.com/angelmondragon/storefront/pkg/db/dbtest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T, env *storefronttest.Env) *storefront.Registry {
	t.Helper()
	registry, err := storefront.NewRegistry(env.Deps)
	require.NoError(t, err)
	t.Cleanup(registry.Close)
	return registry
}

func TestAnonymousCartSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	env := storefronttest.New(t)
	product := dbtest.MustCreateProduct(t, env.DB, "tote", "25.00")
	variant := dbtest.MustCreateVariant(t, env.DB, product.ID, "0", 4)
	deviceID := uuid.New()

	registry := newRegistry(t, env)
	client, err := registry.Client(ctx, deviceID)
	require.NoError(t, err)
	assert.False(t, client.Session().Loading())
	assert.Nil(t, client.Session().Identity())
	assert.Equal(t, cart.KindLocal, client.Cart().Kind())

	require.NoError(t, client.Cart().AddToCart(ctx, product.ID, variant.ID, 2))
	require.NoError(t, client.Wishlist().AddToWishlist(ctx, product.ID))

	again, err := registry.Client(ctx, deviceID)
	require.NoError(t, err)
	assert.Same(t, client, again)
	assert.Equal(t, 1, registry.Len())

	registry.Close()
	_, err = registry.Client(ctx, deviceID)
	assert.Error(t, err)

	restarted := newRegistry(t, env)
	client, err = restarted.Client(ctx, deviceID)
	require.NoError(t, err)
	items := client.Cart().Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, client.Wishlist().IsInWishlist(product.ID))

	other, err := restarted.Client(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other.Cart().Items())
}

func TestSignInSwitchesStoresAndRealtime(t *testing.T) {
	ctx := context.Background()
	env := storefronttest.New(t)
	product := dbtest.MustCreateProduct(t, env.DB, "mug", "12.00")
	variant := dbtest.MustCreateVariant(t, env.DB, product.ID, "1.00", 9)

	registry := newRegistry(t, env)
	client, err := registry.Client(ctx, uuid.New())
	require.NoError(t, err)
	require.NoError(t, client.Cart().AddToCart(ctx, product.ID, variant.ID, 1))

	identity, err := client.Session().SignUp(ctx, "shopper@example.com", "correct-horse", "Shopper")
	require.NoError(t, err)
	require.NotNil(t, identity)

	assert.Equal(t, cart.KindRemote, client.Cart().Kind())
	assert.Equal(t, wishlist.KindRemote, client.Wishlist().Kind())
	assert.Empty(t, client.Cart().Items())
	channel := env.Feed.Channel(gateway.TableCartItems, identity.UserID)
	assert.Equal(t, 1, env.Feed.Subscribers(channel))

	require.NoError(t, client.Cart().AddToCart(ctx, product.ID, variant.ID, 3))
	assert.True(t, client.Cart().GetCartTotal().Equal(decimal.RequireFromString("39.00")))

	require.NoError(t, client.Session().SignOut(ctx))
	assert.Equal(t, cart.KindLocal, client.Cart().Kind())
	assert.Zero(t, env.Feed.Subscribers(channel))
	assert.False(t, client.Cart().RealtimeEnabled())
	items := client.Cart().Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestSecondDeviceFollowsRemoteWrites(t *testing.T) {
	ctx := context.Background()
	env := storefronttest.New(t)
	product := dbtest.MustCreateProduct(t, env.DB, "cap", "20.00")
	variant := dbtest.MustCreateVariant(t, env.DB, product.ID, "0", 9)

	registry := newRegistry(t, env)
	phone, err := registry.Client(ctx, uuid.New())
	require.NoError(t, err)
	laptop, err := registry.Client(ctx, uuid.New())
	require.NoError(t, err)

	_, err = phone.Session().SignUp(ctx, "two@example.com", "correct-horse", "")
	require.NoError(t, err)
	_, err = laptop.Session().SignIn(ctx, "two@example.com", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, phone.Cart().AddToCart(ctx, product.ID, variant.ID, 2))

	assert.Eventually(t, func() bool {
		return laptop.Cart().GetCartCount() == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, laptop.Cart().RealtimeEnabled())
}

func TestPersistedSessionIsResumed(t *testing.T) {
	ctx := context.Background()
	env := storefronttest.New(t)
	deviceID := uuid.New()

	registry := newRegistry(t, env)
	client, err := registry.Client(ctx, deviceID)
	require.NoError(t, err)
	identity, err := client.Session().SignUp(ctx, "resume@example.com", "correct-horse", "")
	require.NoError(t, err)
	registry.Close()

	restarted := newRegistry(t, env)
	client, err = restarted.Client(ctx, deviceID)
	require.NoError(t, err)
	resumed := client.Session().Identity()
	require.NotNil(t, resumed)
	assert.Equal(t, identity.UserID, resumed.UserID)
	assert.Equal(t, cart.KindRemote, client.Cart().Kind())

	restarted.Evict(deviceID)
	assert.Zero(t, restarted.Len())
	assert.Zero(t, env.Feed.Subscribers(env.Feed.Channel(gateway.TableCartItems, identity.UserID)))
}

func TestNewRegistryValidatesDeps(t *testing.T) {
	_, err := storefront.NewRegistry(storefront.Deps{})
	assert.Error(t, err)
}
