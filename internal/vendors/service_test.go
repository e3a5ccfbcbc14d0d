package vendors

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handcar/handcar-backend/internal/ratings"
	"github.com/handcar/handcar-backend/pkg/db/dbtest"
	"github.com/handcar/handcar-backend/pkg/enums"
	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
	"github.com/handcar/handcar-backend/pkg/geo"
	"github.com/handcar/handcar-backend/pkg/logger"
	"github.com/handcar/handcar-backend/pkg/types"
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

func newTestService(t *testing.T) (Service, *fakeGeocoder, ratings.Service) {
	t.Helper()
	conn := dbtest.Open(t)
	ratingSvc, err := ratings.NewService(ratings.NewRepository(conn), logger.Nop())
	require.NoError(t, err)
	gc := &fakeGeocoder{points: map[string]geo.Point{
		"Dubai Marina":       geo.NewPoint(25.2, 55.3),
		"Jumeirah Lakes":     geo.NewPoint(25.3, 55.4),
		"Abu Dhabi Corniche": geo.NewPoint(24.47, 54.35),
	}}
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		Geocoder: gc,
		Ratings:  ratingSvc,
		Logger:   logger.Nop(),
	})
	require.NoError(t, err)
	return svc, gc, ratingSvc
}

func ptr[T any](v T) *T { return &v }

func mustVendor(t *testing.T, svc Service, name string, address *string) *VendorDTO {
	t.Helper()
	v, err := svc.Create(context.Background(), CreateVendorInput{Name: name, Phone: "+971500000000", Address: address})
	require.NoError(t, err)
	return v
}

func TestCreateGeocodesAddress(t *testing.T) {
	svc, gc, _ := newTestService(t)

	v := mustVendor(t, svc, "Marina Motors", ptr("  Dubai Marina "))
	require.NotNil(t, v.Latitude)
	assert.Equal(t, 25.2, *v.Latitude)
	assert.Equal(t, []string{"Dubai Marina"}, gc.calls)

	explicit, err := svc.Create(context.Background(), CreateVendorInput{
		Name: "Given Coords", Address: ptr("Somewhere"), Latitude: ptr(1.0), Longitude: ptr(2.0),
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, *explicit.Latitude)
	assert.Len(t, gc.calls, 1, "explicit coordinates skip the geocoder")

	_, err = svc.Create(context.Background(), CreateVendorInput{Name: "Lost", Address: ptr("Atlantis")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeGeocoding), "got %v", err)
}

func TestCreateValidatesReferencesAndUniqueness(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateVendorInput{Name: " "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = svc.Create(ctx, CreateVendorInput{Name: "X", CategoryID: ptr(uuid.New())})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = svc.Create(ctx, CreateVendorInput{Name: "X", Latitude: ptr(10.0)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	category, err := svc.CreateCategory(ctx, "Mechanic")
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, "Mechanic")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	_, err = svc.Create(ctx, CreateVendorInput{Name: "A", Email: ptr("Shop@Example.com"), CategoryID: &category.ID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateVendorInput{Name: "B", Email: ptr("shop@example.com")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Mechanic", categories[0].Name)
}

func TestUpdateReGeocodesOnlyWhenAddressChanges(t *testing.T) {
	svc, gc, _ := newTestService(t)
	ctx := context.Background()
	v := mustVendor(t, svc, "Lake Garage", ptr("Dubai Marina"))
	gc.calls = nil

	updated, err := svc.Update(ctx, v.ID, UpdateVendorInput{Phone: ptr("+971511111111"), Address: ptr("Dubai Marina")})
	require.NoError(t, err)
	assert.Empty(t, gc.calls)
	assert.Equal(t, "+971511111111", updated.Phone)

	updated, err = svc.Update(ctx, v.ID, UpdateVendorInput{Address: ptr("Jumeirah Lakes")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Jumeirah Lakes"}, gc.calls)
	assert.Equal(t, 25.3, *updated.Latitude)

	updated, err = svc.Update(ctx, v.ID, UpdateVendorInput{Address: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.Address)
	assert.Nil(t, updated.Latitude)

	_, err = svc.Update(ctx, uuid.New(), UpdateVendorInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestUpdateClearsCategoryOnExplicitNull(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	category, err := svc.CreateCategory(ctx, "Tyres")
	require.NoError(t, err)
	v, err := svc.Create(ctx, CreateVendorInput{Name: "Tyre Hub", CategoryID: &category.ID})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, v.ID, UpdateVendorInput{Name: ptr("Tyre Hub 2")})
	require.NoError(t, err)
	require.NotNil(t, updated.CategoryID)

	updated, err = svc.Update(ctx, v.ID, UpdateVendorInput{CategoryID: types.NullableUUID{Valid: true}})
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)
}

func TestSearchWithinRadius(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	a := mustVendor(t, svc, "A", ptr("Dubai Marina"))
	b := mustVendor(t, svc, "B", ptr("Jumeirah Lakes"))
	mustVendor(t, svc, "Far", ptr("Abu Dhabi Corniche"))
	mustVendor(t, svc, "Unlocated", nil)

	result, err := svc.Search(ctx, SearchInput{Lat: ptr(25.2), Lon: ptr(55.3)})
	require.NoError(t, err)
	assert.False(t, result.Fallback)
	assert.Equal(t, 20.0, result.RadiusKm)
	require.Len(t, result.Vendors, 2)
	assert.Equal(t, a.ID, result.Vendors[0].ID)
	assert.Equal(t, 0.0, *result.Vendors[0].DistanceKm)
	assert.Equal(t, b.ID, result.Vendors[1].ID)
	assert.InDelta(t, 15.0, *result.Vendors[1].DistanceKm, 0.2)
}

func TestSearchFallsBackObservably(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	mustVendor(t, svc, "Far", ptr("Abu Dhabi Corniche"))
	mustVendor(t, svc, "Unlocated", nil)

	result, err := svc.Search(ctx, SearchInput{})
	require.NoError(t, err)
	assert.True(t, result.Fallback)
	assert.Len(t, result.Vendors, 2)
	for _, v := range result.Vendors {
		assert.Nil(t, v.DistanceKm)
	}

	result, err = svc.Search(ctx, SearchInput{Lat: ptr(25.2), Lon: ptr(55.3), RadiusKm: ptr(5.0)})
	require.NoError(t, err)
	assert.True(t, result.Fallback)
	require.Len(t, result.Vendors, 2)
	assert.Equal(t, "Far", result.Vendors[0].Name)
	require.NotNil(t, result.Vendors[0].DistanceKm, "distance is still reported when known")
	assert.Nil(t, result.Vendors[1].DistanceKm)

	result, err = svc.Search(ctx, SearchInput{Query: "far"})
	require.NoError(t, err)
	assert.Len(t, result.Vendors, 1)
}

func TestSearchValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for name, input := range map[string]SearchInput{
		"lat only":        {Lat: ptr(1.0)},
		"out of range":    {Lat: ptr(91.0), Lon: ptr(0.0)},
		"negative radius": {Lat: ptr(1.0), Lon: ptr(1.0), RadiusKm: ptr(-1.0)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Search(ctx, input)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestFindNearbyHasNoFallback(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	mustVendor(t, svc, "Far", ptr("Abu Dhabi Corniche"))

	got, err := svc.FindNearby(ctx, geo.NewPoint(25.2, 55.3), 50)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.FindNearby(ctx, geo.NewPoint(25.2, 55.3), 200)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestGetIncludesVendorRating(t *testing.T) {
	svc, _, ratingSvc := newTestService(t)
	ctx := context.Background()
	v := mustVendor(t, svc, "Rated", nil)

	_, err := ratingSvc.AddRating(ctx, ratings.AddRatingInput{
		SubjectType: enums.RatingSubjectVendor, SubjectID: v.ID, CustomerID: uuid.New(), Value: 4,
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.AverageRating)
	assert.Equal(t, int64(1), got.TotalReviews)
}
