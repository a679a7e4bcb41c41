package wishlist

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/gateway"
	"github.com/angelmondragon/storefront/pkg/db/dbtest"
	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/localstorage"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type wishlistFixture struct {
	conn    *gorm.DB
	fs      afero.Fs
	repo    *gateway.WishlistRepository
	manager *Manager
	user    *models.User
	product *models.Product
}

func newWishlistFixture(t *testing.T) *wishlistFixture {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := catalog.NewService(catalog.NewRepository(conn))
	require.NoError(t, err)
	repo, err := gateway.NewWishlistRepository(conn)
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	manager, err := NewManager(Params{
		Catalog: svc,
		Remote:  repo,
		Local:   localstorage.New(fs),
		Now:     func() time.Time { return base },
	})
	require.NoError(t, err)
	return &wishlistFixture{
		conn:    conn,
		fs:      fs,
		repo:    repo,
		manager: manager,
		user:    dbtest.MustCreateUser(t, conn),
		product: dbtest.MustCreateProduct(t, conn, "beanie", "18.00"),
	}
}

func TestWishlistMembershipFollowsAddAndRemove(t *testing.T) {
	ctx := context.Background()
	for _, signedIn := range []bool{false, true} {
		f := newWishlistFixture(t)
		userID := uuid.Nil
		if signedIn {
			userID = f.user.ID
		}
		require.NoError(t, f.manager.HandleSession(ctx, userID))

		assert.False(t, f.manager.IsInWishlist(f.product.ID))
		require.NoError(t, f.manager.AddToWishlist(ctx, f.product.ID))
		assert.True(t, f.manager.IsInWishlist(f.product.ID))

		require.NoError(t, f.manager.RemoveFromWishlist(ctx, f.product.ID))
		assert.False(t, f.manager.IsInWishlist(f.product.ID))
		assert.Empty(t, f.manager.Items())
	}
}

func TestWishlistAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	for _, signedIn := range []bool{false, true} {
		f := newWishlistFixture(t)
		userID := uuid.Nil
		if signedIn {
			userID = f.user.ID
		}
		require.NoError(t, f.manager.HandleSession(ctx, userID))

		require.NoError(t, f.manager.AddToWishlist(ctx, f.product.ID))
		require.NoError(t, f.manager.AddToWishlist(ctx, f.product.ID))
		items := f.manager.Items()
		require.Len(t, items, 1)
		require.NotNil(t, items[0].Product)
		assert.Equal(t, "beanie", items[0].Product.Name)
	}
}

func TestWishlistRemoteConflictCountsAsSaved(t *testing.T) {
	ctx := context.Background()
	f := newWishlistFixture(t)
	require.NoError(t, f.manager.HandleSession(ctx, f.user.ID))

	// another device saved it after our last reload
	require.NoError(t, f.repo.Insert(ctx, &models.WishlistItem{UserID: f.user.ID, ProductID: f.product.ID}))
	assert.False(t, f.manager.IsInWishlist(f.product.ID))

	require.NoError(t, f.manager.AddToWishlist(ctx, f.product.ID))
	assert.True(t, f.manager.IsInWishlist(f.product.ID))
	assert.Len(t, f.manager.Items(), 1)
}

func TestWishlistLocalPersistsAcrossManagers(t *testing.T) {
	ctx := context.Background()
	f := newWishlistFixture(t)
	require.NoError(t, f.manager.HandleSession(ctx, uuid.Nil))
	require.NoError(t, f.manager.AddToWishlist(ctx, f.product.ID))

	svc, err := catalog.NewService(catalog.NewRepository(f.conn))
	require.NoError(t, err)
	next, err := NewManager(Params{Catalog: svc, Remote: f.repo, Local: localstorage.New(f.fs)})
	require.NoError(t, err)
	require.NoError(t, next.HandleSession(ctx, uuid.Nil))
	assert.True(t, next.IsInWishlist(f.product.ID))
	assert.Equal(t, KindLocal, next.Kind())
}

func TestWishlistSessionSwitch(t *testing.T) {
	ctx := context.Background()
	f := newWishlistFixture(t)
	other := dbtest.MustCreateProduct(t, f.conn, "gloves", "9.00")

	require.NoError(t, f.manager.HandleSession(ctx, uuid.Nil))
	require.NoError(t, f.manager.AddToWishlist(ctx, f.product.ID))
	require.NoError(t, f.repo.Insert(ctx, &models.WishlistItem{UserID: f.user.ID, ProductID: other.ID}))

	require.NoError(t, f.manager.HandleSession(ctx, f.user.ID))
	assert.Equal(t, KindRemote, f.manager.Kind())
	assert.True(t, f.manager.IsInWishlist(other.ID))
	assert.False(t, f.manager.IsInWishlist(f.product.ID))

	require.NoError(t, f.manager.HandleSession(ctx, uuid.Nil))
	assert.True(t, f.manager.IsInWishlist(f.product.ID))
	assert.False(t, f.manager.IsInWishlist(other.ID))
}

func TestWishlistRejectsUnknownProduct(t *testing.T) {
	ctx := context.Background()
	f := newWishlistFixture(t)
	require.NoError(t, f.manager.HandleSession(ctx, uuid.Nil))

	err := f.manager.AddToWishlist(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	err = f.manager.AddToWishlist(ctx, uuid.Nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, f.manager.Items())
}
