package addresses

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/pkg/enums"
)

// AddInput is a new address book entry.
type AddInput struct {
	CustomerID       uuid.UUID
	Name             string
	Phone            string
	Country          string
	Street           string
	BuildingName     string
	FloorApartmentNo string
	Landmark         *string
	City             string
	AreaDistrict     string
	AddressType      string
	IsDefault        bool
}

// AddressDTO is an address book entry as returned to its owner.
type AddressDTO struct {
	ID               uuid.UUID         `json:"id"`
	Name             string            `json:"name"`
	Phone            string            `json:"phoneNumber"`
	Country          string            `json:"country"`
	Street           string            `json:"street"`
	BuildingName     string            `json:"buildingName"`
	FloorApartmentNo string            `json:"floorApartmentNo"`
	Landmark         *string           `json:"landmark,omitempty"`
	City             string            `json:"city"`
	AreaDistrict     string            `json:"areaDistrict"`
	AddressType      enums.AddressType `json:"addressType"`
	IsDefault        bool              `json:"isDefault"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// Line renders the entry as the single delivery line stored on orders.
func (a AddressDTO) Line() string {
	parts := []string{a.FloorApartmentNo, a.BuildingName, a.Street}
	if a.Landmark != nil && *a.Landmark != "" {
		parts = append(parts, "near "+*a.Landmark)
	}
	parts = append(parts, a.AreaDistrict, a.City, a.Country)

	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, ", ")
}
