package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	OrderSnapshotVersion = 1
	DefaultCurrency      = "AED"
)

// SnapshotLine is a copied line item; it never references the live product row.
type SnapshotLine struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice Money  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	LineTotal Money  `json:"lineTotal"`
}

// SnapshotCoupon is the client-supplied coupon payload as it was accepted.
type SnapshotCoupon struct {
	Code           string `json:"code"`
	Name           string `json:"name,omitempty"`
	DiscountAmount Money  `json:"discountAmount"`
}

// OrderSnapshot is the audit record persisted with every order.
type OrderSnapshot struct {
	Version  int             `json:"version"`
	Currency string          `json:"currency"`
	Items    []SnapshotLine  `json:"items"`
	Coupon   *SnapshotCoupon `json:"coupon,omitempty"`
	Subtotal Money           `json:"subtotal"`
	Discount Money           `json:"discount"`
	Total    Money           `json:"total"`
}

// NewOrderSnapshot prices lines and applies a flat coupon discount. Text
// fields are coerced to valid UTF-8 so the encoded form decodes back to itself.
func NewOrderSnapshot(lines []SnapshotLine, coupon *SnapshotCoupon) OrderSnapshot {
	subtotal := decimal.Zero
	items := make([]SnapshotLine, len(lines))
	for i, line := range lines {
		total := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		line.Name = validText(line.Name)
		line.LineTotal = NewMoney(total)
		items[i] = line
		subtotal = subtotal.Add(line.LineTotal.Decimal)
	}

	discount := decimal.Zero
	if coupon != nil {
		coupon = &SnapshotCoupon{
			Code:           validText(coupon.Code),
			Name:           validText(coupon.Name),
			DiscountAmount: coupon.DiscountAmount,
		}
		discount = coupon.DiscountAmount.Decimal
	}

	return OrderSnapshot{
		Version:  OrderSnapshotVersion,
		Currency: DefaultCurrency,
		Items:    items,
		Coupon:   coupon,
		Subtotal: NewMoney(subtotal),
		Discount: NewMoney(discount),
		Total:    NewMoney(subtotal.Sub(discount)),
	}
}

func validText(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// Encode returns the canonical byte form. Struct field order fixes key order.
func (s OrderSnapshot) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encode order snapshot: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func DecodeOrderSnapshot(raw []byte) (OrderSnapshot, error) {
	var s OrderSnapshot
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return OrderSnapshot{}, fmt.Errorf("decode order snapshot: %w", err)
	}
	if s.Version != OrderSnapshotVersion {
		return OrderSnapshot{}, fmt.Errorf("decode order snapshot: unsupported version %d", s.Version)
	}
	return s, nil
}
