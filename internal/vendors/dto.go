package vendors

import (
	"time"

	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/internal/ratings"
	"github.com/handcar/handcar-backend/pkg/db/models"
	"github.com/handcar/handcar-backend/pkg/geo"
	"github.com/handcar/handcar-backend/pkg/types"
)

// VendorDTO is the public vendor view. DistanceKm is set only by location queries.
type VendorDTO struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone"`
	WhatsApp       string     `json:"whatsapp"`
	Email          *string    `json:"email,omitempty"`
	Address        *string    `json:"address,omitempty"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	CategoryID     *uuid.UUID `json:"categoryId,omitempty"`
	ServiceDetails string     `json:"serviceDetails"`
	Rate           *int       `json:"rate,omitempty"`
	AverageRating  float64    `json:"averageRating"`
	TotalReviews   int64      `json:"totalReviews"`
	DistanceKm     *float64   `json:"distanceKm,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type CreateVendorInput struct {
	Name           string
	Phone          string
	WhatsApp       string
	Email          *string
	Address        *string
	Latitude       *float64
	Longitude      *float64
	CategoryID     *uuid.UUID
	ServiceDetails string
	Rate           *int
}

// UpdateVendorInput is a partial edit; nil fields are left untouched. CategoryID
// distinguishes an explicit null (clear) from absence.
type UpdateVendorInput struct {
	Name           *string
	Phone          *string
	WhatsApp       *string
	Email          *string
	Address        *string
	Latitude       *float64
	Longitude      *float64
	CategoryID     types.NullableUUID
	ServiceDetails *string
	Rate           *int
}

// SearchInput is the public nearby search. Lat and Lon must be given together.
type SearchInput struct {
	Lat      *float64
	Lon      *float64
	RadiusKm *float64
	Query    string
}

// SearchResult reports Fallback when the list is not restricted by distance.
type SearchResult struct {
	Vendors  []VendorDTO `json:"vendors"`
	Fallback bool        `json:"fallback"`
	RadiusKm float64     `json:"radiusKm"`
}

type CategoryDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func pointOf(v models.Vendor) geo.Point {
	return geo.Point{Lat: v.Latitude, Lon: v.Longitude}
}

func toDTO(v models.Vendor, summary ratings.Summary) VendorDTO {
	return VendorDTO{
		ID:             v.ID,
		Name:           v.Name,
		Phone:          v.Phone,
		WhatsApp:       v.WhatsApp,
		Email:          v.Email,
		Address:        v.Address,
		Latitude:       v.Latitude,
		Longitude:      v.Longitude,
		CategoryID:     v.CategoryID,
		ServiceDetails: v.ServiceDetails,
		Rate:           v.Rate,
		AverageRating:  summary.Average,
		TotalReviews:   summary.Count,
		CreatedAt:      v.CreatedAt,
	}
}

func toCategoryDTO(c models.ServiceCategory) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}
