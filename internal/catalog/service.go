package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/google/uuid"
)

type repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	ListInStockVariants(ctx context.Context, productID uuid.UUID) ([]models.ProductVariant, error)
}

// ProductDetail is a product with its purchasable variants.
type ProductDetail struct {
	ProductSnapshot
	Variants []VariantSnapshot `json:"variants"`
}

// Service exposes catalog reads as snapshots.
type Service interface {
	Product(ctx context.Context, id uuid.UUID) (*ProductSnapshot, error)
	Variant(ctx context.Context, id uuid.UUID) (*VariantSnapshot, error)
	ProductBySlug(ctx context.Context, slug string) (*ProductDetail, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]ProductSnapshot, error)
	InStockVariants(ctx context.Context, productID uuid.UUID) ([]VariantSnapshot, error)
}

type service struct {
	repo repository
}

// NewService wires the catalog service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Product(ctx context.Context, id uuid.UUID) (*ProductSnapshot, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "product")
	}
	return SnapshotProduct(product), nil
}

func (s *service) Variant(ctx context.Context, id uuid.UUID) (*VariantSnapshot, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	variant, err := s.repo.FindVariant(ctx, id)
	if err != nil {
		return nil, translate(err, "variant")
	}
	return SnapshotVariant(variant), nil
}

func (s *service) ProductBySlug(ctx context.Context, slug string) (*ProductDetail, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, translate(err, "product")
	}
	detail := &ProductDetail{ProductSnapshot: *SnapshotProduct(product), Variants: make([]VariantSnapshot, 0, len(product.Variants))}
	for i := range product.Variants {
		detail.Variants = append(detail.Variants, *SnapshotVariant(&product.Variants[i]))
	}
	return detail, nil
}

func (s *service) ListProducts(ctx context.Context, filter ProductFilter) ([]ProductSnapshot, error) {
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductSnapshot, 0, len(products))
	for i := range products {
		out = append(out, *SnapshotProduct(&products[i]))
	}
	return out, nil
}

func (s *service) InStockVariants(ctx context.Context, productID uuid.UUID) ([]VariantSnapshot, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	variants, err := s.repo.ListInStockVariants(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list variants")
	}
	out := make([]VariantSnapshot, 0, len(variants))
	for i := range variants {
		out = append(out, *SnapshotVariant(&variants[i]))
	}
	return out, nil
}

func translate(err error, entity string) error {
	if db.IsNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, entity+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+entity)
}
