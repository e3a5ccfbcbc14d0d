package enums

import "fmt"

// OutboxAggregateType names the entity an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder       OutboxAggregateType = "order"
	AggregateSubscriber  OutboxAggregateType = "subscriber"
	AggregateInteraction OutboxAggregateType = "interaction"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateSubscriber,
	AggregateInteraction,
}

func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType is the routing key consumers switch on.
type OutboxEventType string

const (
	EventOrderPlaced             OutboxEventType = "order_placed"
	EventOrderConfirmed          OutboxEventType = "order_confirmed"
	EventOrderStatusChanged      OutboxEventType = "order_status_changed"
	EventSubscriberCreated       OutboxEventType = "subscriber_created"
	EventVendorInteractionLogged OutboxEventType = "vendor_interaction_logged"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderPlaced,
	EventOrderConfirmed,
	EventOrderStatusChanged,
	EventSubscriberCreated,
	EventVendorInteractionLogged,
}

func (e OutboxEventType) String() string {
	return string(e)
}

func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
