package addresses

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/pkg/db"
	"github.com/handcar/handcar-backend/pkg/db/models"
	"github.com/handcar/handcar-backend/pkg/enums"
	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
	"github.com/handcar/handcar-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages a customer's delivery address book. At most one entry per
// customer is the default.
type Service interface {
	Add(ctx context.Context, input AddInput) (*AddressDTO, error)
	List(ctx context.Context, customerID uuid.UUID) ([]AddressDTO, error)
	Get(ctx context.Context, customerID, addressID uuid.UUID) (*AddressDTO, error)
	SetDefault(ctx context.Context, customerID, addressID uuid.UUID) (*AddressDTO, error)
	Delete(ctx context.Context, customerID, addressID uuid.UUID) error
}

type service struct {
	repo *Repository
	tx   txRunner
	logg *logger.Logger
}

func NewService(repo *Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) Add(ctx context.Context, input AddInput) (*AddressDTO, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity required")
	}
	address, err := newAddress(input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if address.IsDefault {
			if err := repo.ClearDefault(ctx, input.CustomerID); err != nil {
				return err
			}
		}
		return repo.Create(ctx, address)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add address")
	}

	s.logg.Info(s.logg.WithField(ctx, "address_id", address.ID.String()), "address added")
	dto := toDTO(*address)
	return &dto, nil
}

func (s *service) List(ctx context.Context, customerID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, customerID, addressID uuid.UUID) (*AddressDTO, error) {
	address, err := s.findOwned(ctx, s.repo, customerID, addressID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(*address)
	return &dto, nil
}

// SetDefault clears the previous default and marks addressID in one transaction.
func (s *service) SetDefault(ctx context.Context, customerID, addressID uuid.UUID) (*AddressDTO, error) {
	var address *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		address, err = s.findOwned(ctx, repo, customerID, addressID)
		if err != nil {
			return err
		}
		if err := repo.ClearDefault(ctx, customerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
		}
		if err := repo.MarkDefault(ctx, address.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark default address")
		}
		address.IsDefault = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toDTO(*address)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, customerID, addressID uuid.UUID) error {
	removed, err := s.repo.DeleteOwned(ctx, customerID, addressID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

func (s *service) findOwned(ctx context.Context, repo *Repository, customerID, addressID uuid.UUID) (*models.Address, error) {
	address, err := repo.FindOwned(ctx, customerID, addressID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return address, nil
}

func newAddress(input AddInput) (*models.Address, error) {
	required := []struct{ field, value string }{
		{"name", input.Name},
		{"phoneNumber", input.Phone},
		{"street", input.Street},
		{"buildingName", input.BuildingName},
		{"floorApartmentNo", input.FloorApartmentNo},
		{"areaDistrict", input.AreaDistrict},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}

	city, err := enums.ParseDeliveryCity(input.City)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "city is not a delivery city").
			WithDetails(map[string]any{"allowed": enums.DeliveryCities})
	}
	kind, err := enums.ParseAddressType(input.AddressType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "addressType must be Home or Office")
	}
	country := strings.TrimSpace(input.Country)
	if country == "" {
		country = models.DefaultAddressCountry
	}
	var landmark *string
	if input.Landmark != nil {
		if trimmed := strings.TrimSpace(*input.Landmark); trimmed != "" {
			landmark = &trimmed
		}
	}

	return &models.Address{
		CustomerID:       input.CustomerID,
		Name:             strings.TrimSpace(input.Name),
		Phone:            strings.TrimSpace(input.Phone),
		Country:          country,
		Street:           strings.TrimSpace(input.Street),
		BuildingName:     strings.TrimSpace(input.BuildingName),
		FloorApartmentNo: strings.TrimSpace(input.FloorApartmentNo),
		Landmark:         landmark,
		City:             city,
		AreaDistrict:     strings.TrimSpace(input.AreaDistrict),
		AddressType:      kind,
		IsDefault:        input.IsDefault,
	}, nil
}

func toDTO(a models.Address) AddressDTO {
	return AddressDTO{
		ID:               a.ID,
		Name:             a.Name,
		Phone:            a.Phone,
		Country:          a.Country,
		Street:           a.Street,
		BuildingName:     a.BuildingName,
		FloorApartmentNo: a.FloorApartmentNo,
		Landmark:         a.Landmark,
		City:             a.City,
		AreaDistrict:     a.AreaDistrict,
		AddressType:      a.AddressType,
		IsDefault:        a.IsDefault,
		CreatedAt:        a.CreatedAt,
	}
}
