package types

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a two-decimal amount that always serialises as a quoted fixed-point string.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(2)}
}

func MustMoney(value string) Money {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return NewMoney(d)
}

func (m Money) String() string {
	return m.Decimal.StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	raw := bytes.Trim(data, `"`)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fmt.Errorf("money: empty value")
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	*m = NewMoney(d)
	return nil
}
