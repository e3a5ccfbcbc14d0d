package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/internal/ratings"
	"github.com/handcar/handcar-backend/pkg/db/models"
	"github.com/handcar/handcar-backend/pkg/types"
)

// ProductDTO is the catalogue view returned to clients.
type ProductDTO struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	Description        string      `json:"description"`
	Category           string      `json:"category"`
	Price              types.Money `json:"price"`
	DiscountPercentage int         `json:"discountPercentage"`
	DiscountedPrice    types.Money `json:"discountedPrice"`
	Stock              int         `json:"stock"`
	IsBestseller       bool        `json:"isBestseller"`
	Promoted           bool        `json:"promoted"`
	AverageRating      float64     `json:"averageRating"`
	TotalReviews       int64       `json:"totalReviews"`
	CreatedAt          time.Time   `json:"createdAt"`
}

// CreateProductInput describes an admin catalogue entry.
type CreateProductInput struct {
	Name               string
	Description        string
	Category           string
	Price              types.Money
	DiscountPercentage int
	Stock              int
	IsBestseller       bool
	Promoted           bool
}

func toDTO(p models.Product, summary ratings.Summary) ProductDTO {
	return ProductDTO{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		Category:           p.Category,
		Price:              types.NewMoney(p.Price),
		DiscountPercentage: p.DiscountPercentage,
		DiscountedPrice:    types.NewMoney(p.DiscountedPrice()),
		Stock:              p.Stock,
		IsBestseller:       p.IsBestseller,
		Promoted:           p.Promoted,
		AverageRating:      summary.Average,
		TotalReviews:       summary.Count,
		CreatedAt:          p.CreatedAt,
	}
}
