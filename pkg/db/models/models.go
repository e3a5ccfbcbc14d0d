package models

// All lists every persisted model, in dependency order.
func All() []any {
	return []any{
		&ServiceCategory{},
		&Product{},
		&CartItem{},
		&WishlistItem{},
		&Address{},
		&Order{},
		&Vendor{},
		&Subscriber{},
		&SubscriberVendor{},
		&Rating{},
		&InteractionLog{},
		&OutboxEvent{},
	}
}
