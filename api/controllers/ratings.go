package controllers

import (
	"net/http"
	"strings"

	"github.com/handcar/handcar-backend/api/responses"
	"github.com/handcar/handcar-backend/api/validators"
	"github.com/handcar/handcar-backend/internal/ratings"
	"github.com/handcar/handcar-backend/pkg/enums"
	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
	"github.com/handcar/handcar-backend/pkg/logger"
)

type ratingPayload struct {
	SubjectType string  `json:"subjectType" validate:"required"`
	SubjectID   string  `json:"subjectId" validate:"required,uuid"`
	Value       int     `json:"value" validate:"required,min=1,max=5"`
	Comment     *string `json:"comment" validate:"omitempty,max=2000"`
}

func RatingCreate(svc ratings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		customerID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload ratingPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		subjectType, err := enums.ParseRatingSubject(strings.ToLower(strings.TrimSpace(payload.SubjectType)))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subjectType").
				WithDetails(map[string]any{"field": "subjectType"}))
			return
		}
		ids, err := parseUUIDs([]string{payload.SubjectID}, "subjectId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rating, err := svc.AddRating(ctx, ratings.AddRatingInput{
			SubjectType: subjectType,
			SubjectID:   ids[0],
			CustomerID:  customerID,
			Value:       payload.Value,
			Comment:     payload.Comment,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rating)
	}
}
