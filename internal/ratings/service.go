package ratings

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/pkg/db"
	"github.com/handcar/handcar-backend/pkg/db/models"
	"github.com/handcar/handcar-backend/pkg/enums"
	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
	"github.com/handcar/handcar-backend/pkg/logger"
)

const (
	MinValue = 1
	MaxValue = 5

	uniqueRatingConstraint = "ratings_subject_customer_key"
)

// Subject identifies the product or vendor being rated.
type Subject struct {
	Type enums.RatingSubject
	ID   uuid.UUID
}

// Summary is the presented aggregate: mean rounded to one decimal.
type Summary struct {
	Average float64 `json:"averageRating"`
	Count   int64   `json:"totalReviews"`
}

type AddRatingInput struct {
	SubjectType enums.RatingSubject
	SubjectID   uuid.UUID
	CustomerID  uuid.UUID
	Value       int
	Comment     *string
}

type RatingDTO struct {
	ID          uuid.UUID           `json:"id"`
	SubjectType enums.RatingSubject `json:"subjectType"`
	SubjectID   uuid.UUID           `json:"subjectId"`
	CustomerID  uuid.UUID           `json:"customerId"`
	Value       int                 `json:"value"`
	Comment     *string             `json:"comment,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// Service records ratings and serves their aggregates.
type Service interface {
	AddRating(ctx context.Context, input AddRatingInput) (*RatingDTO, error)
	Average(ctx context.Context, subject Subject) (Summary, error)
	AverageMany(ctx context.Context, subjectType enums.RatingSubject, ids []uuid.UUID) (map[uuid.UUID]Summary, error)
	List(ctx context.Context, subject Subject) ([]RatingDTO, error)
}

type ratingRepository interface {
	Create(ctx context.Context, rating *models.Rating) error
	Aggregate(ctx context.Context, subjectType enums.RatingSubject, subjectID uuid.UUID) (float64, int64, error)
	AggregateMany(ctx context.Context, subjectType enums.RatingSubject, subjectIDs []uuid.UUID) (map[uuid.UUID]Totals, error)
	List(ctx context.Context, subjectType enums.RatingSubject, subjectID uuid.UUID) ([]models.Rating, error)
	SubjectExists(ctx context.Context, subjectType enums.RatingSubject, subjectID uuid.UUID) (bool, error)
}

type service struct {
	repo ratingRepository
	logg *logger.Logger
}

func NewService(repo ratingRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ratings repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// AddRating inserts a new rating. A second rating by the same customer for the same
// subject is rejected by the unique index, never overwritten.
func (s *service) AddRating(ctx context.Context, input AddRatingInput) (*RatingDTO, error) {
	if !input.SubjectType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subjectType must be product or vendor")
	}
	if input.SubjectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subjectId is required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity required")
	}
	if input.Value < MinValue || input.Value > MaxValue {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "rating value must be between %d and %d", MinValue, MaxValue).
			WithDetails(map[string]int{"value": input.Value})
	}

	exists, err := s.repo.SubjectExists(ctx, input.SubjectType, input.SubjectID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check rating subject")
	}
	if !exists {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "%s not found", input.SubjectType)
	}

	rating := &models.Rating{
		SubjectType: input.SubjectType,
		SubjectID:   input.SubjectID,
		CustomerID:  input.CustomerID,
		Value:       input.Value,
		Comment:     trimComment(input.Comment),
	}
	if err := s.repo.Create(ctx, rating); err != nil {
		if db.IsUniqueViolation(err, uniqueRatingConstraint) {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "you have already rated this %s", input.SubjectType)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create rating")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"subject_type": input.SubjectType.String(),
		"subject_id":   input.SubjectID.String(),
	})
	s.logg.Info(ctx, "rating recorded")

	dto := toDTO(*rating)
	return &dto, nil
}

func (s *service) Average(ctx context.Context, subject Subject) (Summary, error) {
	if !subject.Type.IsValid() {
		return Summary{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid rating subject")
	}
	avg, count, err := s.repo.Aggregate(ctx, subject.Type, subject.ID)
	if err != nil {
		return Summary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate ratings")
	}
	return summarize(avg, count), nil
}

// AverageMany returns a summary for every requested id, zero-valued when unrated.
func (s *service) AverageMany(ctx context.Context, subjectType enums.RatingSubject, ids []uuid.UUID) (map[uuid.UUID]Summary, error) {
	if !subjectType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid rating subject")
	}
	totals, err := s.repo.AggregateMany(ctx, subjectType, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate ratings")
	}
	out := make(map[uuid.UUID]Summary, len(ids))
	for _, id := range ids {
		t := totals[id]
		out[id] = summarize(t.Average, t.Total)
	}
	return out, nil
}

func (s *service) List(ctx context.Context, subject Subject) ([]RatingDTO, error) {
	if !subject.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid rating subject")
	}
	rows, err := s.repo.List(ctx, subject.Type, subject.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ratings")
	}
	out := make([]RatingDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

func summarize(avg float64, count int64) Summary {
	if count == 0 {
		return Summary{}
	}
	return Summary{Average: math.Round(avg*10) / 10, Count: count}
}

func trimComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toDTO(r models.Rating) RatingDTO {
	return RatingDTO{
		ID:          r.ID,
		SubjectType: r.SubjectType,
		SubjectID:   r.SubjectID,
		CustomerID:  r.CustomerID,
		Value:       r.Value,
		Comment:     r.Comment,
		CreatedAt:   r.CreatedAt,
	}
}
