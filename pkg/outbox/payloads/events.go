package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/pkg/enums"
)

// OrderPlacedEvent signals a committed order.
type OrderPlacedEvent struct {
	OrderID    uuid.UUID `json:"orderId"`
	CustomerID uuid.UUID `json:"customerId"`
	TotalPrice string    `json:"totalPrice"`
	ItemCount  int       `json:"itemCount"`
}

// OrderConfirmedEvent carries the rendered invoice for the mail sender.
type OrderConfirmedEvent struct {
	OrderID         uuid.UUID `json:"orderId"`
	CustomerID      uuid.UUID `json:"customerId"`
	ContactName     string    `json:"contactName"`
	Contact         string    `json:"contact"`
	InvoiceFilename string    `json:"invoiceFilename"`
	InvoiceBase64   string    `json:"invoiceBase64"`
	ConfirmedAt     time.Time `json:"confirmedAt"`
}

// OrderStatusChangedEvent is emitted on every accepted transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"orderId"`
	CustomerID uuid.UUID         `json:"customerId"`
	From       enums.OrderStatus `json:"from"`
	To         enums.OrderStatus `json:"to"`
}

type SubscriberCreatedEvent struct {
	SubscriberID uuid.UUID              `json:"subscriberId"`
	CustomerID   uuid.UUID              `json:"customerId"`
	Email        string                 `json:"email"`
	Plan         enums.SubscriptionPlan `json:"plan"`
	VendorIDs    []uuid.UUID            `json:"vendorIds"`
}

// VendorInteractionLoggedEvent tells the vendor a customer reached out.
type VendorInteractionLoggedEvent struct {
	LogID       uuid.UUID               `json:"logId"`
	VendorID    uuid.UUID               `json:"vendorId"`
	VendorName  string                  `json:"vendorName"`
	VendorEmail *string                 `json:"vendorEmail,omitempty"`
	CustomerID  uuid.UUID               `json:"customerId"`
	Action      enums.InteractionAction `json:"action"`
}
