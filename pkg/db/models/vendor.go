package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vendor is a service provider. Coordinates are resolved from Address once and kept
// until the address changes.
type Vendor struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name           string     `gorm:"column:name;not null"`
	Phone          string     `gorm:"column:phone;not null;default:''"`
	WhatsApp       string     `gorm:"column:whatsapp;not null;default:''"`
	Email          *string    `gorm:"column:email;uniqueIndex:vendors_email_key"`
	Address        *string    `gorm:"column:address"`
	Latitude       *float64   `gorm:"column:latitude"`
	Longitude      *float64   `gorm:"column:longitude"`
	CategoryID     *uuid.UUID `gorm:"column:category_id;type:uuid;index:vendors_category_id_idx"`
	ServiceDetails string     `gorm:"column:service_details;not null;default:''"`
	Rate           *int       `gorm:"column:rate"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *Vendor) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
