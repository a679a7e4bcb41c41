package wishlist

import (
	"context"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/google/uuid"
)

type remoteRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error)
	Insert(ctx context.Context, item *models.WishlistItem) error
	DeleteByUserProduct(ctx context.Context, userID, productID uuid.UUID) error
}

// RemoteStore keeps the wishlist in wishlist_items for one user.
type RemoteStore struct {
	repo   remoteRepository
	userID uuid.UUID
}

func NewRemoteStore(repo remoteRepository, userID uuid.UUID) *RemoteStore {
	return &RemoteStore{repo: repo, userID: userID}
}

func (s *RemoteStore) Kind() StoreKind { return KindRemote }

func (s *RemoteStore) Load(ctx context.Context) ([]Item, error) {
	rows, err := s.repo.ListByUser(ctx, s.userID)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, itemFromModel(row))
	}
	return items, nil
}

// Add inserts a row. The unique (user_id, product_id) index rejecting a
// duplicate counts as success.
func (s *RemoteStore) Add(ctx context.Context, product *catalog.ProductSnapshot) error {
	err := s.repo.Insert(ctx, &models.WishlistItem{UserID: s.userID, ProductID: product.ID})
	if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		return nil
	}
	return err
}

func (s *RemoteStore) Remove(ctx context.Context, productID uuid.UUID) error {
	return s.repo.DeleteByUserProduct(ctx, s.userID, productID)
}
