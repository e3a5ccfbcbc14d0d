package addresses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/pkg/db/models"
)

// Repository persists address book entries.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Create(address).Error
}

// FindOwned loads an entry only when it belongs to customerID.
func (r *Repository) FindOwned(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", addressID, customerID).
		First(&address).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// ListByCustomer returns the default entry first, then newest first.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("is_default DESC, created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// ClearDefault unsets the default flag on every entry of the customer.
func (r *Repository) ClearDefault(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("customer_id = ? AND is_default", customerID).
		Update("is_default", false).Error
}

func (r *Repository) MarkDefault(ctx context.Context, addressID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("id = ?", addressID).
		Update("is_default", true).Error
}

// DeleteOwned removes the entry and reports whether a row matched.
func (r *Repository) DeleteOwned(ctx context.Context, customerID, addressID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", addressID, customerID).
		Delete(&models.Address{})
	return res.RowsAffected > 0, res.Error
}
