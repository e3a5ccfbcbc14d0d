package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/pkg/enums"
)

// Subscriber is a customer's recurring service plan. A customer has at most one.
type Subscriber struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID     uuid.UUID              `gorm:"column:customer_id;type:uuid;not null;uniqueIndex:subscribers_customer_id_key"`
	Email          string                 `gorm:"column:email;not null"`
	Address        string                 `gorm:"column:address;not null;default:''"`
	Latitude       *float64               `gorm:"column:latitude"`
	Longitude      *float64               `gorm:"column:longitude"`
	ServiceType    string                 `gorm:"column:service_type;not null"`
	Plan           enums.SubscriptionPlan `gorm:"column:plan;type:text;not null"`
	DurationMonths int                    `gorm:"column:duration_months;not null"`
	StartDate      time.Time              `gorm:"column:start_date;not null"`
	EndDate        time.Time              `gorm:"column:end_date;not null"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Subscriber) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// SubscriberVendor is one entry of a subscriber's vendor assignment set.
type SubscriberVendor struct {
	SubscriberID uuid.UUID `gorm:"column:subscriber_id;type:uuid;primaryKey"`
	VendorID     uuid.UUID `gorm:"column:vendor_id;type:uuid;primaryKey;index:subscriber_vendors_vendor_id_idx"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
