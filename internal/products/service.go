package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/internal/ratings"
	"github.com/handcar/handcar-backend/pkg/db"
	"github.com/handcar/handcar-backend/pkg/db/models"
	"github.com/handcar/handcar-backend/pkg/enums"
	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
	"github.com/handcar/handcar-backend/pkg/logger"
)

// Service exposes catalogue reads and admin writes.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, filter ListFilter) ([]ProductDTO, error)
}

type productRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
}

type ratingSummarizer interface {
	Average(ctx context.Context, subject ratings.Subject) (ratings.Summary, error)
	AverageMany(ctx context.Context, subjectType enums.RatingSubject, ids []uuid.UUID) (map[uuid.UUID]ratings.Summary, error)
}

type service struct {
	repo    productRepository
	ratings ratingSummarizer
	logg    *logger.Logger
}

func NewService(repo productRepository, ratings ratingSummarizer, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if ratings == nil {
		return nil, fmt.Errorf("ratings service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, ratings: ratings, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.DiscountPercentage < 0 || input.DiscountPercentage > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discountPercentage must be between 0 and 100")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}

	product := &models.Product{
		Name:               name,
		Description:        strings.TrimSpace(input.Description),
		Category:           strings.TrimSpace(input.Category),
		Price:              input.Price.Decimal,
		DiscountPercentage: input.DiscountPercentage,
		Stock:              input.Stock,
		IsBestseller:       input.IsBestseller,
		Promoted:           input.Promoted,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	s.logg.Info(s.logg.WithField(ctx, "product_id", product.ID.String()), "product created")
	dto := toDTO(*product, ratings.Summary{})
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	summary, err := s.ratings.Average(ctx, ratings.Subject{Type: enums.RatingSubjectProduct, ID: product.ID})
	if err != nil {
		return nil, err
	}
	dto := toDTO(*product, summary)
	return &dto, nil
}

// List returns the filtered catalogue with discount and rating decoration.
func (s *service) List(ctx context.Context, filter ListFilter) ([]ProductDTO, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minPrice must not exceed maxPrice")
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	summaries, err := s.ratings.AverageMany(ctx, enums.RatingSubjectProduct, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		summary := summaries[row.ID]
		if filter.MinRating != nil && summary.Average < *filter.MinRating {
			continue
		}
		out = append(out, toDTO(row, summary))
	}
	return out, nil
}
