package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/pkg/enums"
)

// Rating is a single customer review. One per customer and subject.
type Rating struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SubjectType enums.RatingSubject `gorm:"column:subject_type;type:text;not null;uniqueIndex:ratings_subject_customer_key"`
	SubjectID   uuid.UUID           `gorm:"column:subject_id;type:uuid;not null;uniqueIndex:ratings_subject_customer_key"`
	CustomerID  uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;uniqueIndex:ratings_subject_customer_key"`
	Value       int                 `gorm:"column:value;not null"`
	Comment     *string             `gorm:"column:comment"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (r *Rating) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
