package wishlist

import (
	"time"

	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/pkg/types"
)

// ItemDTO is a wishlist row with the product summary it points at.
type ItemDTO struct {
	ID              uuid.UUID   `json:"id"`
	ProductID       uuid.UUID   `json:"productId"`
	Name            string      `json:"name"`
	Price           types.Money `json:"price"`
	DiscountedPrice types.Money `json:"discountedPrice"`
	InStock         bool        `json:"inStock"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// AddResult reports whether Add wrote a new row.
type AddResult struct {
	Item    ItemDTO `json:"item"`
	Created bool    `json:"created"`
}
