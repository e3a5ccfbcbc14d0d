package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/api/responses"
	"github.com/handcar/handcar-backend/api/validators"
	"github.com/handcar/handcar-backend/internal/subscriptions"
	"github.com/handcar/handcar-backend/pkg/logger"
)

type createSubscriptionPayload struct {
	Email          string   `json:"email" validate:"required,max=254"`
	Address        string   `json:"address" validate:"required,max=500"`
	ServiceType    string   `json:"serviceType" validate:"required,max=100"`
	Plan           string   `json:"plan" validate:"required,max=100"`
	DurationMonths int      `json:"durationMonths" validate:"required,min=1,max=120"`
	StartDate      string   `json:"startDate" validate:"required"`
	VendorIDs      []string `json:"vendorIds"`
}

type updateSubscriptionPayload struct {
	Email          *string  `json:"email" validate:"omitempty,max=254"`
	Address        *string  `json:"address" validate:"omitempty,max=500"`
	ServiceType    *string  `json:"serviceType" validate:"omitempty,max=100"`
	Plan           *string  `json:"plan" validate:"omitempty,max=100"`
	DurationMonths *int     `json:"durationMonths" validate:"omitempty,min=1,max=120"`
	StartDate      *string  `json:"startDate"`
	VendorIDs      []string `json:"vendorIds"`
}

type nearbyVendorsPayload struct {
	Address string `json:"address" validate:"required,max=500"`
}

func SubscriptionCreate(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		customerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload createSubscriptionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		vendorIDs, err := parseUUIDs(payload.VendorIDs, "vendorIds")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sub, err := svc.Create(ctx, subscriptions.CreateInput{
			CustomerID:     customerID,
			Email:          payload.Email,
			Address:        payload.Address,
			ServiceType:    payload.ServiceType,
			Plan:           payload.Plan,
			DurationMonths: payload.DurationMonths,
			StartDate:      payload.StartDate,
			VendorIDs:      vendorIDs,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sub)
	}
}

func SubscriptionMe(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		customerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status, err := svc.GetForCustomer(ctx, customerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

func SubscriptionNearbyVendors(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload nearbyVendorsPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		suggestion, err := svc.SuggestVendors(ctx, payload.Address)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, suggestion)
	}
}

func VendorSubscribers(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		vendorID, err := requireVendorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		search := validators.SanitizeString(r.URL.Query().Get("search"), maxQueryLen)
		list, err := svc.ListForVendor(ctx, vendorID, search)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if list == nil {
			list = []subscriptions.SubscriberDTO{}
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminSubscriptionGet(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := urlUUID(r, "subscriptionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		sub, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, sub)
	}
}

// AdminSubscriptionUpdate replaces the vendor assignment with exactly the ids sent.
func AdminSubscriptionUpdate(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := urlUUID(r, "subscriptionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload updateSubscriptionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var vendorIDs []uuid.UUID
		if len(payload.VendorIDs) > 0 {
			vendorIDs, err = parseUUIDs(payload.VendorIDs, "vendorIds")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		sub, err := svc.Update(ctx, id, subscriptions.UpdateInput{
			Email:          payload.Email,
			Address:        payload.Address,
			ServiceType:    payload.ServiceType,
			Plan:           payload.Plan,
			DurationMonths: payload.DurationMonths,
			StartDate:      payload.StartDate,
			VendorIDs:      vendorIDs,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, sub)
	}
}

func AdminSubscriptionDelete(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := urlUUID(r, "subscriptionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Delete(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
