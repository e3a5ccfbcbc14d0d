package ratings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/pkg/db/models"
	"github.com/handcar/handcar-backend/pkg/enums"
)

// Repository persists ratings and computes aggregates in SQL.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, rating *models.Rating) error {
	return r.db.WithContext(ctx).Create(rating).Error
}

// Totals is the raw aggregate for one subject.
type Totals struct {
	SubjectID uuid.UUID
	Average   float64
	Total     int64
}

// Aggregate returns the raw mean and count for one subject. Zero ratings yield (0, 0).
func (r *Repository) Aggregate(ctx context.Context, subjectType enums.RatingSubject, subjectID uuid.UUID) (float64, int64, error) {
	var row Totals
	err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Select("COALESCE(AVG(value), 0) AS average, COUNT(*) AS total").
		Where("subject_type = ? AND subject_id = ?", subjectType, subjectID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Average, row.Total, nil
}

// AggregateMany returns aggregates keyed by subject id; subjects without ratings are absent.
func (r *Repository) AggregateMany(ctx context.Context, subjectType enums.RatingSubject, subjectIDs []uuid.UUID) (map[uuid.UUID]Totals, error) {
	out := make(map[uuid.UUID]Totals, len(subjectIDs))
	if len(subjectIDs) == 0 {
		return out, nil
	}
	var rows []Totals
	err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Select("subject_id, AVG(value) AS average, COUNT(*) AS total").
		Where("subject_type = ? AND subject_id IN ?", subjectType, subjectIDs).
		Group("subject_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.SubjectID] = row
	}
	return out, nil
}

func (r *Repository) List(ctx context.Context, subjectType enums.RatingSubject, subjectID uuid.UUID) ([]models.Rating, error) {
	var rows []models.Rating
	err := r.db.WithContext(ctx).
		Where("subject_type = ? AND subject_id = ?", subjectType, subjectID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// SubjectExists checks the referenced product or vendor row.
func (r *Repository) SubjectExists(ctx context.Context, subjectType enums.RatingSubject, subjectID uuid.UUID) (bool, error) {
	var model any
	switch subjectType {
	case enums.RatingSubjectProduct:
		model = &models.Product{}
	case enums.RatingSubjectVendor:
		model = &models.Vendor{}
	default:
		return false, fmt.Errorf("unknown rating subject %q", subjectType)
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", subjectID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
