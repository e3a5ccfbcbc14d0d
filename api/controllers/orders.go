package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/api/middleware"
	"github.com/handcar/handcar-backend/api/responses"
	"github.com/handcar/handcar-backend/api/validators"
	"github.com/handcar/handcar-backend/internal/inventory"
	"github.com/handcar/handcar-backend/internal/orders"
	"github.com/handcar/handcar-backend/pkg/enums"
	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
	"github.com/handcar/handcar-backend/pkg/logger"
	"github.com/handcar/handcar-backend/pkg/pagination"
	"github.com/handcar/handcar-backend/pkg/types"
)

type orderLinePayload struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=10000"`
}

type couponPayload struct {
	Code           string      `json:"code" validate:"required,max=64"`
	Name           string      `json:"name" validate:"max=200"`
	DiscountAmount types.Money `json:"discountAmount"`
}

type placeOrderPayload struct {
	ContactName string             `json:"contactName" validate:"omitempty,max=200"`
	Contact     string             `json:"contact" validate:"omitempty,max=64"`
	Address     string             `json:"address" validate:"omitempty,max=500"`
	AddressID   string             `json:"addressId" validate:"omitempty,uuid"`
	Items       []orderLinePayload `json:"items" validate:"omitempty,dive"`
	Coupon      *couponPayload     `json:"coupon"`
	// recomputed server side
	TotalPrice json.RawMessage `json:"totalPrice,omitempty"`
}

type orderStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

func OrderPlace(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		customerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload placeOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := orders.PlaceOrderInput{
			CustomerID:  customerID,
			ContactName: payload.ContactName,
			Contact:     payload.Contact,
			Address:     payload.Address,
		}
		if payload.AddressID != "" {
			ids, err := parseUUIDs([]string{payload.AddressID}, "addressId")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.AddressID = &ids[0]
		}
		for _, item := range payload.Items {
			ids, err := parseUUIDs([]string{item.ProductID}, "items.productId")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.Lines = append(input.Lines, inventory.Line{ProductID: ids[0], Quantity: item.Quantity})
		}
		if payload.Coupon != nil {
			input.Coupon = &orders.CouponInput{
				Code:           payload.Coupon.Code,
				Name:           payload.Coupon.Name,
				DiscountAmount: payload.Coupon.DiscountAmount,
			}
		}
		if len(payload.TotalPrice) > 0 && logg != nil {
			logg.Debug(ctx, "client totalPrice ignored")
		}

		order, err := svc.PlaceOrder(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		customerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		list, err := svc.ListForCustomer(ctx, customerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if list == nil {
			list = []orders.OrderDTO{}
		}
		responses.WriteSuccess(w, list)
	}
}

func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		customerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := urlUUID(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		order, err := svc.Get(ctx, orderID, customerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func AdminOrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := orders.ListAllInput{
			Params: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(strings.ToLower(raw))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").
					WithDetails(map[string]any{"field": "status", "allowed": enums.OrderStatuses()}))
				return
			}
			input.Status = &status
		}

		page, err := svc.ListAll(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		adminID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := urlUUID(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload orderStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(ctx, orderID, payload.Status, actorFromContext(r, adminID))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func actorFromContext(r *http.Request, userID uuid.UUID) *orders.Actor {
	return &orders.Actor{UserID: userID, Role: middleware.RoleFromContext(r.Context())}
}
