package controllers

import (
	"net/http"
	"strings"

	"github.com/handcar/handcar-backend/api/responses"
	"github.com/handcar/handcar-backend/api/validators"
	"github.com/handcar/handcar-backend/internal/products"
	"github.com/handcar/handcar-backend/internal/ratings"
	"github.com/handcar/handcar-backend/pkg/enums"
	"github.com/handcar/handcar-backend/pkg/logger"
	"github.com/handcar/handcar-backend/pkg/types"
)

type createProductPayload struct {
	Name               string      `json:"name" validate:"required,max=200"`
	Description        string      `json:"description" validate:"max=2000"`
	Category           string      `json:"category" validate:"required,max=100"`
	Price              types.Money `json:"price"`
	DiscountPercentage int         `json:"discountPercentage" validate:"min=0,max=100"`
	Stock              int         `json:"stock" validate:"min=0"`
	IsBestseller       bool        `json:"isBestseller"`
	Promoted           bool        `json:"promoted"`
}

func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		minPrice, err := validators.ParseQueryDecimal(r, "min_price")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		maxPrice, err := validators.ParseQueryDecimal(r, "max_price")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		minRating, err := validators.ParseQueryFloat(r, "min_rating")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := svc.List(ctx, products.ListFilter{
			Category:  strings.TrimSpace(r.URL.Query().Get("category")),
			MinPrice:  minPrice,
			MaxPrice:  maxPrice,
			MinRating: minRating,
			Query:     validators.SanitizeString(r.URL.Query().Get("q"), maxQueryLen),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if list == nil {
			list = []products.ProductDTO{}
		}
		responses.WriteSuccess(w, list)
	}
}

func ProductDetail(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := urlUUID(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		product, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductRating(svc products.Service, ratingSvc ratings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := urlUUID(r, "productID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if _, err := svc.Get(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		writeRating(w, r, ratingSvc, ratings.Subject{Type: enums.RatingSubjectProduct, ID: id}, logg)
	}
}

func AdminCreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload createProductPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		product, err := svc.Create(ctx, products.CreateProductInput{
			Name:               payload.Name,
			Description:        payload.Description,
			Category:           payload.Category,
			Price:              payload.Price,
			DiscountPercentage: payload.DiscountPercentage,
			Stock:              payload.Stock,
			IsBestseller:       payload.IsBestseller,
			Promoted:           payload.Promoted,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}
