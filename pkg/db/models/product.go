package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// Product is an item of the catalogue. Version is bumped by every stock decrement.
type Product struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name               string          `gorm:"column:name;not null"`
	Description        string          `gorm:"column:description;not null;default:''"`
	Category           string          `gorm:"column:category;not null;default:'';index:products_category_idx"`
	Price              decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	DiscountPercentage int             `gorm:"column:discount_percentage;not null;default:0"`
	Stock              int             `gorm:"column:stock;not null;default:0"`
	Version            int             `gorm:"column:version;not null;default:0"`
	IsBestseller       bool            `gorm:"column:is_bestseller;not null;default:false"`
	Promoted           bool            `gorm:"column:promoted;not null;default:false"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// DiscountedPrice applies the percentage discount and rounds to cents.
func (p Product) DiscountedPrice() decimal.Decimal {
	if p.DiscountPercentage <= 0 {
		return p.Price.Round(2)
	}
	cut := p.Price.Mul(decimal.NewFromInt(int64(p.DiscountPercentage))).Div(hundred)
	return p.Price.Sub(cut).Round(2)
}
