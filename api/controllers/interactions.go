package controllers

import (
	"net/http"

	"github.com/handcar/handcar-backend/api/responses"
	"github.com/handcar/handcar-backend/api/validators"
	"github.com/handcar/handcar-backend/internal/interactions"
	"github.com/handcar/handcar-backend/pkg/logger"
)

type interactionPayload struct {
	VendorID string `json:"vendorId" validate:"required,uuid"`
	Action   string `json:"action" validate:"required"`
}

type interactionDecisionPayload struct {
	Status string `json:"status" validate:"required"`
}

func InteractionLog(svc interactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		customerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload interactionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ids, err := parseUUIDs([]string{payload.VendorID}, "vendorId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		entry, err := svc.Log(ctx, customerID, ids[0], payload.Action)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

func VendorPendingInteractions(svc interactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		vendorID, err := requireVendorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		pending, err := svc.PendingForVendor(ctx, vendorID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if pending == nil {
			pending = []interactions.LogDTO{}
		}
		responses.WriteSuccess(w, pending)
	}
}

func VendorInteractionDecision(svc interactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		vendorID, err := requireVendorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		logID, err := urlUUID(r, "logID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload interactionDecisionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		entry, err := svc.UpdateStatus(ctx, vendorID, logID, payload.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}
