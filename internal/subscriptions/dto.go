package subscriptions

import (
	"time"

	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/internal/vendors"
	"github.com/handcar/handcar-backend/pkg/enums"
)

type CreateInput struct {
	CustomerID     uuid.UUID
	Email          string
	Address        string
	ServiceType    string
	Plan           string
	DurationMonths int
	StartDate      string
	VendorIDs      []uuid.UUID
}

// UpdateInput is a partial edit. VendorIDs always replaces the assignment set; an
// empty slice clears it.
type UpdateInput struct {
	Email          *string
	Address        *string
	ServiceType    *string
	Plan           *string
	DurationMonths *int
	StartDate      *string
	VendorIDs      []uuid.UUID
}

type SubscriberDTO struct {
	ID             uuid.UUID              `json:"id"`
	CustomerID     uuid.UUID              `json:"customerId"`
	Email          string                 `json:"email"`
	Address        string                 `json:"address"`
	Latitude       *float64               `json:"latitude,omitempty"`
	Longitude      *float64               `json:"longitude,omitempty"`
	ServiceType    string                 `json:"serviceType"`
	Plan           enums.SubscriptionPlan `json:"plan"`
	DurationMonths int                    `json:"durationMonths"`
	StartDate      string                 `json:"startDate"`
	EndDate        string                 `json:"endDate"`
	VendorIDs      []uuid.UUID            `json:"vendorIds"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// VendorSummary is the contact card shown to a subscriber.
type VendorSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Phone    string    `json:"phone"`
	WhatsApp string    `json:"whatsapp"`
	Email    *string   `json:"email,omitempty"`
}

type Status struct {
	Subscribed bool            `json:"subscribed"`
	Subscriber *SubscriberDTO  `json:"subscriber,omitempty"`
	Vendors    []VendorSummary `json:"vendors"`
}

type Suggestion struct {
	Latitude  float64             `json:"latitude"`
	Longitude float64             `json:"longitude"`
	RadiusKm  float64             `json:"radiusKm"`
	Vendors   []vendors.VendorDTO `json:"vendors"`
}
