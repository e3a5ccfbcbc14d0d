package cart

import (
	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/pkg/types"
)

// ItemDTO is one priced cart line.
type ItemDTO struct {
	ID              uuid.UUID   `json:"id"`
	ProductID       uuid.UUID   `json:"productId"`
	Name            string      `json:"name"`
	UnitPrice       types.Money `json:"unitPrice"`
	DiscountedPrice types.Money `json:"discountedPrice"`
	Quantity        int         `json:"quantity"`
	LineTotal       types.Money `json:"lineTotal"`
	InStock         bool        `json:"inStock"`
}

// CartDTO is the customer's cart with its list-price total. The final order total is
// computed at placement time.
type CartDTO struct {
	Items      []ItemDTO   `json:"items"`
	TotalPrice types.Money `json:"totalPrice"`
}
