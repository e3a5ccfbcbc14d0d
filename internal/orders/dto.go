package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/internal/inventory"
	"github.com/handcar/handcar-backend/pkg/db/models"
	"github.com/handcar/handcar-backend/pkg/enums"
	"github.com/handcar/handcar-backend/pkg/outbox"
	"github.com/handcar/handcar-backend/pkg/pagination"
	"github.com/handcar/handcar-backend/pkg/types"
)

// CouponInput is an already-validated coupon. Its discount is trusted as a flat amount.
type CouponInput struct {
	Code           string
	Name           string
	DiscountAmount types.Money
}

// PlaceOrderInput carries the checkout request. Lines default to the persisted cart.
// With AddressID set, the address book entry supplies the delivery line and fills
// blank contact fields.
type PlaceOrderInput struct {
	CustomerID  uuid.UUID
	ContactName string
	Contact     string
	Address     string
	AddressID   *uuid.UUID
	Lines       []inventory.Line
	Coupon      *CouponInput
}

// OrderDTO is the order view decoded from its snapshot.
type OrderDTO struct {
	OrderID     uuid.UUID             `json:"orderId"`
	CustomerID  uuid.UUID             `json:"customerId"`
	ContactName string                `json:"contactName"`
	Contact     string                `json:"contact"`
	Address     string                `json:"address"`
	AddressID   *uuid.UUID            `json:"addressId,omitempty"`
	Status      enums.OrderStatus     `json:"status"`
	Items       []types.SnapshotLine  `json:"items"`
	Coupon      *types.SnapshotCoupon `json:"coupon,omitempty"`
	Subtotal    types.Money           `json:"subtotal"`
	Discount    types.Money           `json:"discount"`
	TotalPrice  types.Money           `json:"totalPrice"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// ListAllInput filters the admin order listing.
type ListAllInput struct {
	Status *enums.OrderStatus
	pagination.Params
}

// OrderList is a page of orders plus the cursor for the next page.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// Actor is who requested a status change.
type Actor = outbox.ActorRef

func toDTO(order models.Order) (OrderDTO, error) {
	snapshot, err := types.DecodeOrderSnapshot(order.Snapshot)
	if err != nil {
		return OrderDTO{}, err
	}
	return OrderDTO{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		ContactName: order.ContactName,
		Contact:     order.Contact,
		Address:     order.Address,
		AddressID:   order.AddressID,
		Status:      order.Status,
		Items:       snapshot.Items,
		Coupon:      snapshot.Coupon,
		Subtotal:    snapshot.Subtotal,
		Discount:    snapshot.Discount,
		TotalPrice:  types.NewMoney(order.TotalPrice),
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}, nil
}
