package subscriptions

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/internal/ratings"
	"github.com/handcar/handcar-backend/internal/vendors"
	"github.com/handcar/handcar-backend/pkg/db"
	"github.com/handcar/handcar-backend/pkg/db/dbtest"
	"github.com/handcar/handcar-backend/pkg/db/models"
	"github.com/handcar/handcar-backend/pkg/enums"
	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
	"github.com/handcar/handcar-backend/pkg/geo"
	"github.com/handcar/handcar-backend/pkg/logger"
	"github.com/handcar/handcar-backend/pkg/outbox"
	"github.com/handcar/handcar-backend/pkg/outbox/payloads"
)

type fakeGeocoder struct {
	points map[string]geo.Point
	calls  []string
}

func (f *fakeGeocoder) Resolve(_ context.Context, address string) (geo.Point, error) {
	f.calls = append(f.calls, address)
	p, ok := f.points[address]
	if !ok {
		return geo.Point{}, pkgerrors.New(pkgerrors.CodeGeocoding, "address could not be geocoded")
	}
	return p, nil
}

type harness struct {
	svc     Service
	vendors vendors.Service
	gc      *fakeGeocoder
	conn    *gorm.DB
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	client := dbtest.Client(t)
	conn := client.DB()
	logg := logger.Nop()
	gc := &fakeGeocoder{points: map[string]geo.Point{
		"Dubai Marina":       geo.NewPoint(25.2, 55.3),
		"Jumeirah Lakes":     geo.NewPoint(25.3, 55.4),
		"Abu Dhabi Corniche": geo.NewPoint(24.47, 54.35),
	}}

	ratingSvc, err := ratings.NewService(ratings.NewRepository(conn), logg)
	require.NoError(t, err)
	vendorSvc, err := vendors.NewService(vendors.ServiceParams{
		Repo:     vendors.NewRepository(conn),
		Geocoder: gc,
		Ratings:  ratingSvc,
		Logger:   logg,
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		DB:       client,
		Geocoder: gc,
		Vendors:  vendorSvc,
		Outbox:   outbox.NewService(outbox.NewRepository(conn), logg),
		Logger:   logg,
	})
	require.NoError(t, err)
	return &harness{svc: svc, vendors: vendorSvc, gc: gc, conn: conn}
}

func (h *harness) vendor(t *testing.T, name, address string) uuid.UUID {
	t.Helper()
	v, err := h.vendors.Create(context.Background(), vendors.CreateVendorInput{Name: name, Address: &address})
	require.NoError(t, err)
	return v.ID
}

func validInput(customer uuid.UUID, vendorIDs ...uuid.UUID) CreateInput {
	return CreateInput{
		CustomerID:     customer,
		Email:          "Omar@Example.com",
		Address:        "Dubai Marina",
		ServiceType:    "car wash",
		Plan:           "premium",
		DurationMonths: 6,
		StartDate:      "2024-01-01",
		VendorIDs:      vendorIDs,
	}
}

func TestCreateAssignsExistingVendorsAndEmits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.vendor(t, "Marina Motors", "Dubai Marina")
	b := h.vendor(t, "Lakes Garage", "Jumeirah Lakes")
	customer := uuid.New()

	sub, err := h.svc.Create(ctx, validInput(customer, a, uuid.New(), b, a))
	require.NoError(t, err)

	assert.Equal(t, "omar@example.com", sub.Email)
	assert.Equal(t, "2024-01-01", sub.StartDate)
	assert.Equal(t, "2024-06-29", sub.EndDate)
	assert.Equal(t, enums.SubscriptionPlanPremium, sub.Plan)
	require.NotNil(t, sub.Latitude)
	assert.Equal(t, 25.2, *sub.Latitude)
	assert.Equal(t, []uuid.UUID{a, b}, sub.VendorIDs)

	var links int64
	require.NoError(t, h.conn.Model(&models.SubscriberVendor{}).Where("subscriber_id = ?", sub.ID).Count(&links).Error)
	assert.EqualValues(t, 2, links)

	var events []models.OutboxEvent
	require.NoError(t, h.conn.Where("event_type = ?", enums.EventSubscriberCreated).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, sub.ID, events[0].AggregateID)
	envelope, err := outbox.ParseEnvelope(events[0].Payload)
	require.NoError(t, err)
	var data payloads.SubscriberCreatedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, customer, data.CustomerID)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, data.VendorIDs)
}

func TestCreateAcceptsCustomPlanAndShortTerm(t *testing.T) {
	h := newHarness(t)
	input := validInput(uuid.New())
	input.Plan = "Gold"
	input.DurationMonths = 3

	sub, err := h.svc.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, enums.SubscriptionPlan("Gold"), sub.Plan)
	assert.Equal(t, 3, sub.DurationMonths)
	assert.Equal(t, "2024-03-31", sub.EndDate)
}

func TestCreateRejectsSecondSubscription(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	customer := uuid.New()

	_, err := h.svc.Create(ctx, validInput(customer))
	require.NoError(t, err)

	_, err = h.svc.Create(ctx, validInput(customer))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	var n int64
	require.NoError(t, h.conn.Model(&models.Subscriber{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestCreateUniqueIndexBackstopsDuplicates(t *testing.T) {
	h := newHarness(t)
	customer := uuid.New()
	require.NoError(t, h.conn.Create(&models.Subscriber{
		CustomerID:  customer,
		Email:       "a@example.com",
		ServiceType: "wash",
		Plan:        enums.SubscriptionPlanBasic,
	}).Error)

	err := h.conn.Create(&models.Subscriber{
		CustomerID:  customer,
		Email:       "b@example.com",
		ServiceType: "wash",
		Plan:        enums.SubscriptionPlanBasic,
	}).Error
	assert.True(t, db.IsUniqueViolation(err, uniqueCustomerConstraint), "got %v", err)
}

func TestCreateValidation(t *testing.T) {
	h := newHarness(t)
	customer := uuid.New()

	cases := map[string]func(*CreateInput){
		"missing email":   func(in *CreateInput) { in.Email = " " },
		"bad email":       func(in *CreateInput) { in.Email = "not-an-email" },
		"missing service": func(in *CreateInput) { in.ServiceType = "" },
		"missing address": func(in *CreateInput) { in.Address = "" },
		"unknown plan":    func(in *CreateInput) { in.Plan = "platinum" },
		"bad duration":    func(in *CreateInput) { in.DurationMonths = 9 },
		"bad start date":  func(in *CreateInput) { in.StartDate = "2024/01/01" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput(customer)
			mutate(&in)
			_, err := h.svc.Create(context.Background(), in)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
	assert.Empty(t, h.gc.calls)
}

func TestCreateGeocodingFailureWritesNothing(t *testing.T) {
	h := newHarness(t)
	in := validInput(uuid.New())
	in.Address = "Atlantis"

	_, err := h.svc.Create(context.Background(), in)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeGeocoding), "got %v", err)

	var n int64
	require.NoError(t, h.conn.Model(&models.Subscriber{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, h.conn.Model(&models.OutboxEvent{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestUpdateReplacesVendorsAndRecomputesTerms(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.vendor(t, "Marina Motors", "Dubai Marina")
	b := h.vendor(t, "Lakes Garage", "Jumeirah Lakes")

	sub, err := h.svc.Create(ctx, validInput(uuid.New(), a))
	require.NoError(t, err)
	h.gc.calls = nil

	same := "Dubai Marina"
	months := 12
	updated, err := h.svc.Update(ctx, sub.ID, UpdateInput{
		Address:        &same,
		DurationMonths: &months,
		VendorIDs:      []uuid.UUID{b},
	})
	require.NoError(t, err)
	assert.Empty(t, h.gc.calls, "unchanged address must not be geocoded")
	assert.Equal(t, "2024-12-26", updated.EndDate)
	assert.Equal(t, []uuid.UUID{b}, updated.VendorIDs)

	moved := "Jumeirah Lakes"
	updated, err = h.svc.Update(ctx, sub.ID, UpdateInput{Address: &moved, VendorIDs: []uuid.UUID{}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Jumeirah Lakes"}, h.gc.calls)
	require.NotNil(t, updated.Latitude)
	assert.Equal(t, 25.3, *updated.Latitude)
	assert.Empty(t, updated.VendorIDs)

	got, err := h.svc.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Empty(t, got.VendorIDs)
	assert.Equal(t, "Jumeirah Lakes", got.Address)
	assert.Equal(t, 12, got.DurationMonths)
}

func TestUpdateValidationLeavesRecordUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.vendor(t, "Marina Motors", "Dubai Marina")
	sub, err := h.svc.Create(ctx, validInput(uuid.New(), a))
	require.NoError(t, err)

	bad := "gold"
	_, err = h.svc.Update(ctx, sub.ID, UpdateInput{Plan: &bad})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	got, err := h.svc.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SubscriptionPlanPremium, got.Plan)
	assert.Equal(t, []uuid.UUID{a}, got.VendorIDs)

	_, err = h.svc.Update(ctx, uuid.New(), UpdateInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestGetForCustomerStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	customer := uuid.New()

	status, err := h.svc.GetForCustomer(ctx, customer)
	require.NoError(t, err)
	assert.False(t, status.Subscribed)
	assert.Nil(t, status.Subscriber)
	assert.Empty(t, status.Vendors)

	b := h.vendor(t, "Lakes Garage", "Jumeirah Lakes")
	a := h.vendor(t, "Marina Motors", "Dubai Marina")
	_, err = h.svc.Create(ctx, validInput(customer, a, b))
	require.NoError(t, err)

	status, err = h.svc.GetForCustomer(ctx, customer)
	require.NoError(t, err)
	assert.True(t, status.Subscribed)
	require.NotNil(t, status.Subscriber)
	require.Len(t, status.Vendors, 2)
	assert.Equal(t, "Lakes Garage", status.Vendors[0].Name)
	assert.Equal(t, "Marina Motors", status.Vendors[1].Name)
}

func TestDeleteRemovesAssignments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.vendor(t, "Marina Motors", "Dubai Marina")
	sub, err := h.svc.Create(ctx, validInput(uuid.New(), a))
	require.NoError(t, err)

	require.NoError(t, h.svc.Delete(ctx, sub.ID))

	var links int64
	require.NoError(t, h.conn.Model(&models.SubscriberVendor{}).Count(&links).Error)
	assert.Zero(t, links)

	_, err = h.svc.Get(ctx, sub.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
	err = h.svc.Delete(ctx, sub.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestListForVendorFiltersByEmail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.vendor(t, "Marina Motors", "Dubai Marina")
	b := h.vendor(t, "Lakes Garage", "Jumeirah Lakes")

	first := validInput(uuid.New(), a)
	first.Email = "sara@handcar.ae"
	second := validInput(uuid.New(), a, b)
	second.Email = "omar@example.com"
	_, err := h.svc.Create(ctx, first)
	require.NoError(t, err)
	_, err = h.svc.Create(ctx, second)
	require.NoError(t, err)

	all, err := h.svc.ListForVendor(ctx, a, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := h.svc.ListForVendor(ctx, a, "HANDCAR")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "sara@handcar.ae", filtered[0].Email)

	onlyB, err := h.svc.ListForVendor(ctx, b, "")
	require.NoError(t, err)
	require.Len(t, onlyB, 1)
	assert.Equal(t, "omar@example.com", onlyB[0].Email)
}

func TestSuggestVendorsUsesSubscriptionRadius(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	near := h.vendor(t, "Marina Motors", "Dubai Marina")
	mid := h.vendor(t, "Lakes Garage", "Jumeirah Lakes")
	h.vendor(t, "Corniche Care", "Abu Dhabi Corniche")

	got, err := h.svc.SuggestVendors(ctx, "Dubai Marina")
	require.NoError(t, err)
	assert.Equal(t, DefaultRadiusKm, got.RadiusKm)
	require.Len(t, got.Vendors, 2)
	assert.Equal(t, near, got.Vendors[0].ID)
	assert.Equal(t, mid, got.Vendors[1].ID)
	require.NotNil(t, got.Vendors[1].DistanceKm)
	assert.InDelta(t, 15.0, *got.Vendors[1].DistanceKm, 0.2)

	_, err = h.svc.SuggestVendors(ctx, "Atlantis")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeGeocoding), "got %v", err)
	_, err = h.svc.SuggestVendors(ctx, "  ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}
