package wishlist

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/pkg/db/models"
	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
	"github.com/handcar/handcar-backend/pkg/types"
)

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// Service exposes business rules for wishlist management.
type Service interface {
	Add(ctx context.Context, customerID, productID uuid.UUID) (*AddResult, error)
	List(ctx context.Context, customerID uuid.UUID) ([]ItemDTO, error)
	Remove(ctx context.Context, customerID, itemID uuid.UUID) error
}

type service struct {
	repo     *Repository
	products productLoader
}

func NewService(repo *Repository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

// Add is idempotent; a second add of the same product returns the existing item.
func (s *service) Add(ctx context.Context, customerID, productID uuid.UUID) (*AddResult, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	found, err := s.products.FindByIDs(ctx, []uuid.UUID{productID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	product, ok := found[productID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	item, created, err := s.repo.AddItem(ctx, customerID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}
	return &AddResult{Item: toDTO(item, product), Created: created}, nil
}

// List drops items whose product no longer exists.
func (s *service) List(ctx context.Context, customerID uuid.UUID) ([]ItemDTO, error) {
	rows, err := s.repo.ListItems(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	out := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		product, ok := found[row.ProductID]
		if !ok {
			continue
		}
		out = append(out, toDTO(row, product))
	}
	return out, nil
}

func (s *service) Remove(ctx context.Context, customerID, itemID uuid.UUID) error {
	removed, err := s.repo.RemoveItem(ctx, customerID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist item not found")
	}
	return nil
}

func toDTO(item models.WishlistItem, product models.Product) ItemDTO {
	return ItemDTO{
		ID:              item.ID,
		ProductID:       item.ProductID,
		Name:            product.Name,
		Price:           types.NewMoney(product.Price),
		DiscountedPrice: types.NewMoney(product.DiscountedPrice()),
		InStock:         product.Stock > 0,
		CreatedAt:       item.CreatedAt,
	}
}
