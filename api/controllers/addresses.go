package controllers

import (
	"net/http"

	"github.com/handcar/handcar-backend/api/responses"
	"github.com/handcar/handcar-backend/api/validators"
	"github.com/handcar/handcar-backend/internal/addresses"
	"github.com/handcar/handcar-backend/pkg/logger"
)

// required fields are reported together by the address book
type addAddressPayload struct {
	Name             string  `json:"name" validate:"omitempty,max=255"`
	PhoneNumber      string  `json:"phoneNumber" validate:"omitempty,phone"`
	Country          string  `json:"country" validate:"omitempty,max=100"`
	Street           string  `json:"street" validate:"omitempty,max=255"`
	BuildingName     string  `json:"buildingName" validate:"omitempty,max=255"`
	FloorApartmentNo string  `json:"floorApartmentNo" validate:"omitempty,max=50"`
	Landmark         *string `json:"landmark" validate:"omitempty,max=255"`
	City             string  `json:"city" validate:"omitempty,max=50"`
	AreaDistrict     string  `json:"areaDistrict" validate:"omitempty,max=100"`
	AddressType      string  `json:"addressType" validate:"omitempty,max=10"`
	IsDefault        bool    `json:"isDefault"`
}

func AddressAdd(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		customerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload addAddressPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		address, err := svc.Add(ctx, addresses.AddInput{
			CustomerID:       customerID,
			Name:             payload.Name,
			Phone:            payload.PhoneNumber,
			Country:          payload.Country,
			Street:           payload.Street,
			BuildingName:     payload.BuildingName,
			FloorApartmentNo: payload.FloorApartmentNo,
			Landmark:         payload.Landmark,
			City:             payload.City,
			AreaDistrict:     payload.AreaDistrict,
			AddressType:      payload.AddressType,
			IsDefault:        payload.IsDefault,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, address)
	}
}

// AddressList returns the default entry first.
func AddressList(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		customerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		list, err := svc.List(ctx, customerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"addresses":  list,
			"totalCount": len(list),
		})
	}
}

func AddressSetDefault(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		customerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		addressID, err := urlUUID(r, "addressID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		address, err := svc.SetDefault(ctx, customerID, addressID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, address)
	}
}

func AddressDelete(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		customerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		addressID, err := urlUUID(r, "addressID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Delete(ctx, customerID, addressID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
