package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/internal/inventory"
	"github.com/handcar/handcar-backend/pkg/db"
	"github.com/handcar/handcar-backend/pkg/db/models"
	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
	"github.com/handcar/handcar-backend/pkg/logger"
	"github.com/handcar/handcar-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// Service exposes cart persistence operations.
type Service interface {
	Add(ctx context.Context, customerID, productID uuid.UUID, qty int) (*ItemDTO, error)
	UpdateQuantity(ctx context.Context, customerID, itemID uuid.UUID, qty int) (*ItemDTO, error)
	Remove(ctx context.Context, customerID, itemID uuid.UUID) error
	List(ctx context.Context, customerID uuid.UUID) (*CartDTO, error)
	Lines(ctx context.Context, customerID uuid.UUID) ([]inventory.Line, error)
	Clear(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) error
}

type service struct {
	repo     *Repository
	tx       txRunner
	products productLoader
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, tx txRunner, products productLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, products: products, logg: logg}, nil
}

// Add increments the existing line for productID or creates one.
func (s *service) Add(ctx context.Context, customerID, productID uuid.UUID, qty int) (*ItemDTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	if err := checkQuantity(qty); err != nil {
		return nil, err
	}
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var item *models.CartItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, ferr := repo.FindByProduct(ctx, customerID, productID)
		switch {
		case ferr == nil:
			if existing.Quantity > inventory.MaxQuantity-qty {
				return quantityTooLarge()
			}
		case !db.IsNotFound(ferr):
			return ferr
		}
		var ierr error
		item, ierr = repo.Increment(ctx, customerID, productID, qty)
		return ierr
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}

	dto := toItemDTO(*item, product)
	return &dto, nil
}

func (s *service) UpdateQuantity(ctx context.Context, customerID, itemID uuid.UUID, qty int) (*ItemDTO, error) {
	if err := checkQuantity(qty); err != nil {
		return nil, err
	}
	item, err := s.repo.FindOwned(ctx, customerID, itemID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if err := s.repo.UpdateQuantity(ctx, item.ID, qty); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	item.Quantity = qty

	product, err := s.loadProduct(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	dto := toItemDTO(*item, product)
	return &dto, nil
}

func (s *service) Remove(ctx context.Context, customerID, itemID uuid.UUID) error {
	removed, err := s.repo.DeleteOwned(ctx, customerID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

// List prices every line at the current list price. Lines whose product was removed from
// the catalogue are skipped.
func (s *service) List(ctx context.Context, customerID uuid.UUID) (*CartDTO, error) {
	items, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	catalogue, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}

	out := &CartDTO{Items: make([]ItemDTO, 0, len(items))}
	total := decimal.Zero
	for _, item := range items {
		product, ok := catalogue[item.ProductID]
		if !ok {
			continue
		}
		dto := toItemDTO(item, product)
		total = total.Add(dto.LineTotal.Decimal)
		out.Items = append(out.Items, dto)
	}
	out.TotalPrice = types.NewMoney(total)
	return out, nil
}

// Lines returns the persisted cart as ledger lines.
func (s *service) Lines(ctx context.Context, customerID uuid.UUID) ([]inventory.Line, error) {
	items, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	lines := make([]inventory.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, inventory.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines, nil
}

// Clear empties the cart inside the caller's transaction.
func (s *service) Clear(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	return s.repo.WithTx(tx).DeleteByCustomer(ctx, customerID)
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (models.Product, error) {
	found, err := s.products.FindByIDs(ctx, []uuid.UUID{productID})
	if err != nil {
		return models.Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	product, ok := found[productID]
	if !ok {
		return models.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func toItemDTO(item models.CartItem, product models.Product) ItemDTO {
	lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
	return ItemDTO{
		ID:              item.ID,
		ProductID:       item.ProductID,
		Name:            product.Name,
		UnitPrice:       types.NewMoney(product.Price),
		DiscountedPrice: types.NewMoney(product.DiscountedPrice()),
		Quantity:        item.Quantity,
		LineTotal:       types.NewMoney(lineTotal),
		InStock:         product.Stock >= item.Quantity,
	}
}

func checkQuantity(qty int) error {
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if qty > inventory.MaxQuantity {
		return quantityTooLarge()
	}
	return nil
}

func quantityTooLarge() *pkgerrors.Error {
	return pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must not exceed %d", inventory.MaxQuantity).
		WithDetails(map[string]any{"max": inventory.MaxQuantity})
}
