package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/pkg/enums"
)

// InteractionLog records a customer reaching out to a vendor and the vendor's answer.
type InteractionLog struct {
	ID         uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	VendorID   uuid.UUID               `gorm:"column:vendor_id;type:uuid;not null;index:interaction_logs_vendor_status_idx"`
	CustomerID uuid.UUID               `gorm:"column:customer_id;type:uuid;not null"`
	Action     enums.InteractionAction `gorm:"column:action;type:text;not null"`
	Status     enums.InteractionStatus `gorm:"column:status;type:text;not null;default:'PENDING';index:interaction_logs_vendor_status_idx"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *InteractionLog) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
