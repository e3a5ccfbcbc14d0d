package enums

import "fmt"

// OrderStatus is the fulfilment state of an order. Values only move forward.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
)

// orderStatusSequence is ordered; a status may only advance to its successor.
var orderStatusSequence = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
}

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsValid() bool {
	return s.rank() >= 0
}

func (s OrderStatus) rank() int {
	for i, candidate := range orderStatusSequence {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Next returns the only status s may transition into.
func (s OrderStatus) Next() (OrderStatus, bool) {
	r := s.rank()
	if r < 0 || r == len(orderStatusSequence)-1 {
		return "", false
	}
	return orderStatusSequence[r+1], true
}

// CanTransitionTo reports whether moving from s to target is a single forward step.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	next, ok := s.Next()
	return ok && next == target
}

// OrderStatuses lists every status in lifecycle order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatusSequence))
	copy(out, orderStatusSequence)
	return out
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	status := OrderStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid order status %q", value)
	}
	return status, nil
}
