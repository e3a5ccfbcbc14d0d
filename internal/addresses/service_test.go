package addresses

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/pkg/db/dbtest"
	"github.com/handcar/handcar-backend/pkg/db/models"
	"github.com/handcar/handcar-backend/pkg/enums"
	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
	"github.com/handcar/handcar-backend/pkg/logger"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client := dbtest.Client(t)
	conn := client.DB()
	svc, err := NewService(NewRepository(conn), client, logger.Nop())
	require.NoError(t, err)
	return svc, conn
}

func homeInput(customer uuid.UUID, name string) AddInput {
	return AddInput{
		CustomerID:       customer,
		Name:             name,
		Phone:            "+971 50 123 4567",
		Street:           "Al Marsa St",
		BuildingName:     "Marina Heights",
		FloorApartmentNo: "12B",
		City:             "dubai",
		AreaDistrict:     "Dubai Marina",
	}
}

func defaults(t *testing.T, conn *gorm.DB, customer uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.Address{}).Where("customer_id = ? AND is_default", customer).Count(&n).Error)
	return n
}

func TestAddNormalizesEntry(t *testing.T) {
	svc, _ := newTestService(t)
	landmark := "  next to the metro "
	input := homeInput(uuid.New(), " Sara ")
	input.Landmark = &landmark

	got, err := svc.Add(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "Sara", got.Name)
	assert.Equal(t, "Dubai", got.City)
	assert.Equal(t, models.DefaultAddressCountry, got.Country)
	assert.Equal(t, enums.AddressTypeHome, got.AddressType)
	require.NotNil(t, got.Landmark)
	assert.Equal(t, "next to the metro", *got.Landmark)
	assert.Equal(t, "12B, Marina Heights, Al Marsa St, near next to the metro, Dubai Marina, Dubai, United Arab Emirates", got.Line())
}

func TestAddRejectsIncompleteEntries(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	customer := uuid.New()

	missing := homeInput(customer, "")
	missing.Street = " "
	_, err := svc.Add(ctx, missing)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, map[string]any{"missing": []string{"name", "street"}}, typed.Details())

	badCity := homeInput(customer, "Sara")
	badCity.City = "Doha"
	_, err = svc.Add(ctx, badCity)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	badType := homeInput(customer, "Sara")
	badType.AddressType = "Warehouse"
	_, err = svc.Add(ctx, badType)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = svc.Add(ctx, homeInput(uuid.Nil, "Sara"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "got %v", err)
}

func TestDefaultIsExclusive(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	customer := uuid.New()

	first := homeInput(customer, "Home")
	first.IsDefault = true
	home, err := svc.Add(ctx, first)
	require.NoError(t, err)

	second := homeInput(customer, "Office")
	second.AddressType = "office"
	second.IsDefault = true
	office, err := svc.Add(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), defaults(t, conn, customer))

	list, err := svc.List(ctx, customer)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, office.ID, list[0].ID)
	assert.True(t, list[0].IsDefault)

	picked, err := svc.SetDefault(ctx, customer, home.ID)
	require.NoError(t, err)
	assert.True(t, picked.IsDefault)
	assert.Equal(t, int64(1), defaults(t, conn, customer))

	list, err = svc.List(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, home.ID, list[0].ID)
}

func TestEntriesAreScopedToOwner(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()
	input := homeInput(owner, "Sara")
	input.IsDefault = true
	address, err := svc.Add(ctx, input)
	require.NoError(t, err)

	_, err = svc.Get(ctx, other, address.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
	_, err = svc.SetDefault(ctx, other, address.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
	err = svc.Delete(ctx, other, address.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
	assert.Equal(t, int64(1), defaults(t, conn, owner))

	require.NoError(t, svc.Delete(ctx, owner, address.ID))
	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}
