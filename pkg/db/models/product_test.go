package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProductDiscountedPrice(t *testing.T) {
	cases := []struct {
		price    string
		discount int
		want     string
	}{
		{"100.00", 0, "100.00"},
		{"100.00", 15, "85.00"},
		{"19.99", 10, "17.99"},
		{"50.00", 100, "0.00"},
	}
	for _, tc := range cases {
		p := Product{Price: decimal.RequireFromString(tc.price), DiscountPercentage: tc.discount}
		assert.Equal(t, tc.want, p.DiscountedPrice().StringFixed(2), "price=%s discount=%d", tc.price, tc.discount)
	}
}
