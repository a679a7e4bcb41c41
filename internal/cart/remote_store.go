package cart

import (
	"context"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/google/uuid"
)

type remoteRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindByUserProductVariant(ctx context.Context, userID, productID, variantID uuid.UUID) (*models.CartItem, error)
	Insert(ctx context.Context, item *models.CartItem) error
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error
	Delete(ctx context.Context, userID, itemID uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// RemoteStore keeps the cart in cart_items for one user.
type RemoteStore struct {
	repo   remoteRepository
	userID uuid.UUID
}

func NewRemoteStore(repo remoteRepository, userID uuid.UUID) *RemoteStore {
	return &RemoteStore{repo: repo, userID: userID}
}

func (s *RemoteStore) Kind() StoreKind { return KindRemote }

func (s *RemoteStore) Load(ctx context.Context) ([]LineItem, error) {
	rows, err := s.repo.ListByUser(ctx, s.userID)
	if err != nil {
		return nil, err
	}
	items := make([]LineItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, lineFromModel(row))
	}
	return items, nil
}

// Add increments an existing row for the pair or inserts a new one.
func (s *RemoteStore) Add(ctx context.Context, product *catalog.ProductSnapshot, variant *catalog.VariantSnapshot, quantity int) error {
	existing, err := s.repo.FindByUserProductVariant(ctx, s.userID, product.ID, variant.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		merged, err := mergedQuantity(existing.Quantity, quantity)
		if err != nil {
			return err
		}
		return s.repo.UpdateQuantity(ctx, s.userID, existing.ID, merged)
	}
	return s.repo.Insert(ctx, &models.CartItem{
		UserID:    s.userID,
		ProductID: product.ID,
		VariantID: variant.ID,
		Quantity:  quantity,
	})
}

func (s *RemoteStore) Remove(ctx context.Context, itemID string) error {
	id, err := parseRowID(itemID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.userID, id)
}

func (s *RemoteStore) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	id, err := parseRowID(itemID)
	if err != nil {
		return err
	}
	return s.repo.UpdateQuantity(ctx, s.userID, id, quantity)
}

func (s *RemoteStore) Clear(ctx context.Context) error {
	return s.repo.DeleteByUser(ctx, s.userID)
}

func parseRowID(itemID string) (uuid.UUID, error) {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart item id")
	}
	return id, nil
}
