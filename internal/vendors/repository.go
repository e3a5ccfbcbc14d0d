package vendors

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/pkg/db/models"
)

// ListFilter narrows vendor listings. Zero values are ignored.
type ListFilter struct {
	CategoryID *uuid.UUID
	Query      string
}

// Repository persists vendors and their service categories.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

// Save writes every column of vendor, including cleared nullable ones.
func (r *Repository) Save(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).Save(vendor).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// FindByIDs returns vendors in ids order; unknown ids are skipped.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Vendor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Vendor
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Vendor, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	out := make([]models.Vendor, 0, len(rows))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			out = append(out, row)
			delete(byID, id)
		}
	}
	return out, nil
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Vendor, error) {
	query := r.db.WithContext(ctx).Model(&models.Vendor{})
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if term := strings.ToLower(strings.TrimSpace(filter.Query)); term != "" {
		like := "%" + term + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(COALESCE(address, '')) LIKE ?)", like, like)
	}
	var rows []models.Vendor
	err := query.Order("name").Order("id").Find(&rows).Error
	return rows, err
}

func (r *Repository) CreateCategory(ctx context.Context, category *models.ServiceCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *Repository) ListCategories(ctx context.Context) ([]models.ServiceCategory, error) {
	var rows []models.ServiceCategory
	err := r.db.WithContext(ctx).Order("name").Find(&rows).Error
	return rows, err
}

func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ServiceCategory{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
