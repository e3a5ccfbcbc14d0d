package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/pkg/db/models"
)

// ListFilter narrows catalogue queries. Zero values are ignored.
type ListFilter struct {
	Category  string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	MinRating *float64
	Query     string
}

// Repository wires together product persistence and the stock primitives used by the ledger.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs returns the products that exist; missing ids are simply absent.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// List applies the SQL-side filters. Rating filters are applied by the service after decoration.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if term := strings.ToLower(strings.TrimSpace(filter.Query)); term != "" {
		like := "%" + term + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}

	var rows []models.Product
	err := query.
		Order("promoted DESC").
		Order("is_bestseller DESC").
		Order("created_at DESC").
		Order("id").
		Find(&rows).Error
	return rows, err
}

// LoadStock reads the current stock and version of ids inside tx.
func (r *Repository) LoadStock(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := tx.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id").
		Find(&rows).Error
	return rows, err
}

// DecrementIfVersion applies the compare-and-set decrement. It reports false when the row
// changed since it was read or no longer holds qty units.
func (r *Repository) DecrementIfVersion(ctx context.Context, tx *gorm.DB, id uuid.UUID, version, qty int) (bool, error) {
	res := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND version = ? AND stock >= ?", id, version, qty).
		Updates(map[string]any{
			"stock":   gorm.Expr("stock - ?", qty),
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
