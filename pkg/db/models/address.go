package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/pkg/enums"
)

// DefaultAddressCountry is stored when an entry names no country.
const DefaultAddressCountry = "United Arab Emirates"

// Address is an entry in a customer's delivery address book.
type Address struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID       uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index:addresses_customer_id_idx"`
	Name             string            `gorm:"column:name;not null"`
	Phone            string            `gorm:"column:phone;not null"`
	Country          string            `gorm:"column:country;not null;default:'United Arab Emirates'"`
	Street           string            `gorm:"column:street;not null"`
	BuildingName     string            `gorm:"column:building_name;not null"`
	FloorApartmentNo string            `gorm:"column:floor_apartment_no;not null"`
	Landmark         *string           `gorm:"column:landmark"`
	City             string            `gorm:"column:city;not null"`
	AreaDistrict     string            `gorm:"column:area_district;not null"`
	AddressType      enums.AddressType `gorm:"column:address_type;type:text;not null;default:'Home'"`
	IsDefault        bool              `gorm:"column:is_default;not null;default:false"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
