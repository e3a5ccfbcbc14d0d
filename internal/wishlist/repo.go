package wishlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/handcar/handcar-backend/pkg/db/models"
)

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddItem inserts the customer-product pair and ignores duplicates. It reports whether
// a row was written and returns the stored item either way.
func (r *Repository) AddItem(ctx context.Context, customerID, productID uuid.UUID) (models.WishlistItem, bool, error) {
	item := models.WishlistItem{CustomerID: customerID, ProductID: productID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(&item)
	if res.Error != nil {
		return models.WishlistItem{}, false, res.Error
	}
	created := res.RowsAffected > 0

	var stored models.WishlistItem
	err := r.db.WithContext(ctx).
		First(&stored, "customer_id = ? AND product_id = ?", customerID, productID).Error
	return stored, created, err
}

// RemoveItem deletes the item only when customerID owns it.
func (r *Repository) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", itemID, customerID).
		Delete(&models.WishlistItem{})
	return res.RowsAffected > 0, res.Error
}

// ListItems returns the customer's items, newest first.
func (r *Repository) ListItems(ctx context.Context, customerID uuid.UUID) ([]models.WishlistItem, error) {
	var rows []models.WishlistItem
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}
