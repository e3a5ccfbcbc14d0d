package interactions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/pkg/db/models"
	"github.com/handcar/handcar-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, log *models.InteractionLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InteractionLog, error) {
	var log models.InteractionLog
	if err := r.db.WithContext(ctx).First(&log, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// ListByVendorStatus returns the vendor's logs in status, oldest first.
func (r *Repository) ListByVendorStatus(ctx context.Context, vendorID uuid.UUID, status enums.InteractionStatus) ([]models.InteractionLog, error) {
	var rows []models.InteractionLog
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND status = ?", vendorID, status).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// Decide moves a PENDING log owned by vendorID to status. It reports false when no
// row matched, leaving the caller to work out why.
func (r *Repository) Decide(ctx context.Context, vendorID, logID uuid.UUID, status enums.InteractionStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InteractionLog{}).
		Where("id = ? AND vendor_id = ? AND status = ?", logID, vendorID, enums.InteractionStatusPending).
		Updates(map[string]any{"status": status, "updated_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
