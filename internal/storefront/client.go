// Package storefront assembles the per-device state: local storage, auth,
// session, cart, wishlist and the cart realtime listener.
package storefront

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/gateway"
	"github.com/angelmondragon/storefront/internal/realtime"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/internal/wishlist"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/localstorage"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// SessionRegistry tracks issued access tokens by jti.
type SessionRegistry interface {
	Generate(ctx context.Context, accessID string, userID uuid.UUID) error
	HasSession(ctx context.Context, accessID string) (bool, error)
	Revoke(ctx context.Context, accessID string) error
}

// Deps are shared by every device client.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	Metrics   *metrics.Storefront
	Root      afero.Fs
	Catalog   catalog.Service
	Users     *gateway.UserRepository
	Profiles  *gateway.ProfileRepository
	Carts     *gateway.CartItemRepository
	Wishlists *gateway.WishlistRepository
	Sessions  SessionRegistry
	Feed      gateway.ChangeFeed
	Now       func() time.Time
}

func (d *Deps) validate() error {
	switch {
	case d.Config == nil:
		return fmt.Errorf("config required")
	case d.Root == nil:
		return fmt.Errorf("local storage root required")
	case d.Catalog == nil:
		return fmt.Errorf("catalog required")
	case d.Users == nil || d.Profiles == nil || d.Carts == nil || d.Wishlists == nil:
		return fmt.Errorf("repositories required")
	case d.Sessions == nil:
		return fmt.Errorf("session registry required")
	case d.Feed == nil:
		return fmt.Errorf("change feed required")
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return nil
}

// Client is one device's view of the storefront. The cart and wishlist
// follow the session: every identity replacement is forwarded to both
// managers before the session call that caused it returns.
type Client struct {
	deviceID uuid.UUID
	logg     *logger.Logger
	baseCtx  context.Context

	storage  *localstorage.Storage
	auth     *gateway.AuthClient
	session  *session.Store
	cart     *cart.Manager
	wishlist *wishlist.Manager
	listener *realtime.Listener

	unsubscribe func()
	closeOnce   sync.Once
}

// NewClient builds the device client and resolves its persisted session.
func NewClient(ctx context.Context, deps Deps, deviceID uuid.UUID) (*Client, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg := deps.Config
	logg := deps.Logger

	storage, err := localstorage.ForDevice(deps.Root, deviceID)
	if err != nil {
		return nil, err
	}
	ids := localstorage.NewIDGenerator(deps.Now)

	authClient, err := gateway.NewAuthClient(gateway.AuthParams{
		Users:    deps.Users,
		Sessions: deps.Sessions,
		Local:    storage,
		JWT:      cfg.JWT,
		Password: cfg.Password,
		Logger:   logg,
		Now:      deps.Now,
	})
	if err != nil {
		return nil, err
	}
	store, err := session.NewStore(session.Params{
		Auth:          authClient,
		Profiles:      deps.Profiles,
		Local:         storage,
		Logger:        logg,
		UpdateTimeout: cfg.Profile.UpdateTimeout,
	})
	if err != nil {
		return nil, err
	}
	cartManager, err := cart.NewManager(cart.Params{
		Catalog:       deps.Catalog,
		Remote:        deps.Carts,
		Local:         storage,
		IDs:           ids,
		Logger:        logg,
		Metrics:       deps.Metrics,
		MergeOnSignIn: cfg.FeatureFlags.MergeCartOnSignIn,
		Now:           deps.Now,
	})
	if err != nil {
		return nil, err
	}
	wishlistManager, err := wishlist.NewManager(wishlist.Params{
		Catalog: deps.Catalog,
		Remote:  deps.Wishlists,
		Local:   storage,
		IDs:     ids,
		Logger:  logg,
		Metrics: deps.Metrics,
		Now:     deps.Now,
	})
	if err != nil {
		return nil, err
	}
	listener, err := realtime.NewListener(deps.Feed, cartManager, realtime.Options{
		CoalesceWindow: cfg.Realtime.CoalesceWindow,
		Logger:         logg,
		Metrics:        deps.Metrics,
	})
	if err != nil {
		return nil, err
	}
	cartManager.AttachRealtime(listener)

	c := &Client{
		deviceID: deviceID,
		logg:     logg,
		baseCtx:  logg.WithDeviceID(context.Background(), deviceID.String()),
		storage:  storage,
		auth:     authClient,
		session:  store,
		cart:     cartManager,
		wishlist: wishlistManager,
		listener: listener,
	}
	c.unsubscribe = store.Subscribe(c.onIdentity)

	if err := store.Init(logg.WithDeviceID(ctx, deviceID.String())); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) DeviceID() uuid.UUID { return c.deviceID }
func (c *Client) Session() *session.Store { return c.session }
func (c *Client) Cart() *cart.Manager { return c.cart }
func (c *Client) Wishlist() *wishlist.Manager { return c.wishlist }
func (c *Client) Storage() *localstorage.Storage { return c.storage }

// Close stops the realtime listener and detaches from auth changes.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
		c.session.Close()
		c.cart.Close()
	})
}

func (c *Client) onIdentity(identity *session.Identity) {
	userID := uuid.Nil
	ctx := c.baseCtx
	if identity != nil {
		userID = identity.UserID
		ctx = c.logg.WithUserID(ctx, userID.String())
	}
	// managers log their own failures
	_ = c.cart.HandleSession(ctx, userID)
	_ = c.wishlist.HandleSession(ctx, userID)
}
