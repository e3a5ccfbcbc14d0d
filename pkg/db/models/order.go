package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/pkg/enums"
)

// Order is an accepted purchase. Snapshot holds the encoded line items, coupon and totals
// and is never interpreted by the database.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID  uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index:orders_customer_id_idx"`
	ContactName string            `gorm:"column:contact_name;not null"`
	Contact     string            `gorm:"column:contact;not null"`
	Address     string            `gorm:"column:address;not null"`
	AddressID   *uuid.UUID        `gorm:"column:address_id;type:uuid"`
	Snapshot    []byte            `gorm:"column:snapshot;type:bytea;not null"`
	TotalPrice  decimal.Decimal   `gorm:"column:total_price;type:numeric(10,2);not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending';index:orders_status_idx"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
