package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ServiceCategory struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:service_categories_name_key"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (c *ServiceCategory) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
