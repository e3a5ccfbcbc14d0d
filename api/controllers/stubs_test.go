package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/internal/addresses"
	"github.com/handcar/handcar-backend/internal/interactions"
	"github.com/handcar/handcar-backend/internal/orders"
	"github.com/handcar/handcar-backend/internal/ratings"
	"github.com/handcar/handcar-backend/internal/vendors"
	"github.com/handcar/handcar-backend/internal/wishlist"
)

type stubVendors struct {
	vendors.Service
	searchFn func(ctx context.Context, input vendors.SearchInput) (*vendors.SearchResult, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*vendors.VendorDTO, error)
}

func (s stubVendors) Search(ctx context.Context, input vendors.SearchInput) (*vendors.SearchResult, error) {
	return s.searchFn(ctx, input)
}

func (s stubVendors) Get(ctx context.Context, id uuid.UUID) (*vendors.VendorDTO, error) {
	return s.getFn(ctx, id)
}

type stubRatings struct {
	ratings.Service
	addFn func(ctx context.Context, input ratings.AddRatingInput) (*ratings.RatingDTO, error)
}

func (s stubRatings) AddRating(ctx context.Context, input ratings.AddRatingInput) (*ratings.RatingDTO, error) {
	return s.addFn(ctx, input)
}

func (s stubRatings) Average(ctx context.Context, subject ratings.Subject) (ratings.Summary, error) {
	return ratings.Summary{Average: 4.5, Count: 2}, nil
}

func (s stubRatings) List(ctx context.Context, subject ratings.Subject) ([]ratings.RatingDTO, error) {
	return nil, nil
}

type stubWishlist struct {
	wishlist.Service
	created bool
}

func (s stubWishlist) Add(ctx context.Context, customerID, productID uuid.UUID) (*wishlist.AddResult, error) {
	return &wishlist.AddResult{Item: wishlist.ItemDTO{ID: uuid.New(), ProductID: productID}, Created: s.created}, nil
}

type stubAddresses struct {
	addresses.Service
	addFn    func(ctx context.Context, input addresses.AddInput) (*addresses.AddressDTO, error)
	deleteFn func(ctx context.Context, customerID, addressID uuid.UUID) error
}

func (s stubAddresses) Add(ctx context.Context, input addresses.AddInput) (*addresses.AddressDTO, error) {
	return s.addFn(ctx, input)
}

func (s stubAddresses) Delete(ctx context.Context, customerID, addressID uuid.UUID) error {
	return s.deleteFn(ctx, customerID, addressID)
}

type stubOrders struct {
	orders.Service
	placeFn  func(ctx context.Context, input orders.PlaceOrderInput) (*orders.OrderDTO, error)
	listFn   func(ctx context.Context, input orders.ListAllInput) (*orders.OrderList, error)
	statusFn func(ctx context.Context, id uuid.UUID, status string, actor *orders.Actor) (*orders.OrderDTO, error)
}

func (s stubOrders) PlaceOrder(ctx context.Context, input orders.PlaceOrderInput) (*orders.OrderDTO, error) {
	return s.placeFn(ctx, input)
}

func (s stubOrders) ListAll(ctx context.Context, input orders.ListAllInput) (*orders.OrderList, error) {
	return s.listFn(ctx, input)
}

func (s stubOrders) UpdateStatus(ctx context.Context, id uuid.UUID, status string, actor *orders.Actor) (*orders.OrderDTO, error) {
	return s.statusFn(ctx, id, status, actor)
}

type stubInteractions struct {
	interactions.Service
	decideFn func(ctx context.Context, vendorID, logID uuid.UUID, decision string) (*interactions.LogDTO, error)
}

func (s stubInteractions) UpdateStatus(ctx context.Context, vendorID, logID uuid.UUID, decision string) (*interactions.LogDTO, error) {
	return s.decideFn(ctx, vendorID, logID, decision)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
