package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/api/responses"
	"github.com/handcar/handcar-backend/api/validators"
	"github.com/handcar/handcar-backend/internal/ratings"
	"github.com/handcar/handcar-backend/internal/vendors"
	"github.com/handcar/handcar-backend/pkg/enums"
	"github.com/handcar/handcar-backend/pkg/logger"
	"github.com/handcar/handcar-backend/pkg/types"
)

const maxQueryLen = 100

type createVendorPayload struct {
	Name           string   `json:"name" validate:"required,max=200"`
	Phone          string   `json:"phone" validate:"omitempty,phone"`
	WhatsApp       string   `json:"whatsapp" validate:"omitempty,phone"`
	Email          *string  `json:"email" validate:"omitempty,email"`
	Address        *string  `json:"address" validate:"omitempty,max=500"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	CategoryID     *string  `json:"categoryId" validate:"omitempty,uuid"`
	ServiceDetails string   `json:"serviceDetails"`
	Rate           *int     `json:"rate"`
}

type updateVendorPayload struct {
	Name           *string            `json:"name" validate:"omitempty,max=200"`
	Phone          *string            `json:"phone" validate:"omitempty,phone"`
	WhatsApp       *string            `json:"whatsapp" validate:"omitempty,phone"`
	Email          *string            `json:"email" validate:"omitempty,email"`
	Address        *string            `json:"address" validate:"omitempty,max=500"`
	Latitude       *float64           `json:"latitude"`
	Longitude      *float64           `json:"longitude"`
	CategoryID     types.NullableUUID `json:"categoryId"`
	ServiceDetails *string            `json:"serviceDetails"`
	Rate           *int               `json:"rate"`
}

type categoryPayload struct {
	Name string `json:"name" validate:"required,max=100"`
}

type ratingView struct {
	ratings.Summary
	Reviews []ratings.RatingDTO `json:"reviews"`
}

// VendorsNearby is the public vendor search. It falls back to the full directory and
// says so in the payload.
func VendorsNearby(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		lat, err := validators.ParseQueryFloat(r, "lat")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		lon, err := validators.ParseQueryFloat(r, "lon")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		radius, err := validators.ParseQueryFloat(r, "radius_km")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Search(ctx, vendors.SearchInput{
			Lat:      lat,
			Lon:      lon,
			RadiusKm: radius,
			Query:    validators.SanitizeString(r.URL.Query().Get("q"), maxQueryLen),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func VendorDetail(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := urlUUID(r, "vendorID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		vendor, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendor)
	}
}

// VendorRating checks the vendor exists before aggregating so unknown ids are 404s.
func VendorRating(svc vendors.Service, ratingSvc ratings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := urlUUID(r, "vendorID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if _, err := svc.Get(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		writeRating(w, r, ratingSvc, ratings.Subject{Type: enums.RatingSubjectVendor, ID: id}, logg)
	}
}

func writeRating(w http.ResponseWriter, r *http.Request, svc ratings.Service, subject ratings.Subject, logg *logger.Logger) {
	ctx := r.Context()
	summary, err := svc.Average(ctx, subject)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	reviews, err := svc.List(ctx, subject)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	if reviews == nil {
		reviews = []ratings.RatingDTO{}
	}
	responses.WriteSuccess(w, ratingView{Summary: summary, Reviews: reviews})
}

func ServiceCategoryList(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

func AdminCreateServiceCategory(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload categoryPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		category, err := svc.CreateCategory(ctx, payload.Name)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

func AdminCreateVendor(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload createVendorPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var categoryID *uuid.UUID
		if payload.CategoryID != nil {
			ids, err := parseUUIDs([]string{*payload.CategoryID}, "categoryId")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			categoryID = &ids[0]
		}

		vendor, err := svc.Create(ctx, vendors.CreateVendorInput{
			Name:           payload.Name,
			Phone:          payload.Phone,
			WhatsApp:       payload.WhatsApp,
			Email:          payload.Email,
			Address:        payload.Address,
			Latitude:       payload.Latitude,
			Longitude:      payload.Longitude,
			CategoryID:     categoryID,
			ServiceDetails: payload.ServiceDetails,
			Rate:           payload.Rate,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, vendor)
	}
}

func AdminUpdateVendor(svc vendors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := urlUUID(r, "vendorID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload updateVendorPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		vendor, err := svc.Update(ctx, id, vendors.UpdateVendorInput{
			Name:           payload.Name,
			Phone:          payload.Phone,
			WhatsApp:       payload.WhatsApp,
			Email:          payload.Email,
			Address:        payload.Address,
			Latitude:       payload.Latitude,
			Longitude:      payload.Longitude,
			CategoryID:     payload.CategoryID,
			ServiceDetails: payload.ServiceDetails,
			Rate:           payload.Rate,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendor)
	}
}
