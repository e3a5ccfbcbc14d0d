package cron

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/pkg/logger"
)

const (
	JobOutboxRetention    = "outbox-retention"
	JobOutboxParkedReport = "outbox-parked-report"

	defaultOutboxRetentionDays = 30
)

type outboxMaintenanceRepo interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
	CountParked(tx *gorm.DB, maxAttempts int) (int64, error)
}

type OutboxMaintenanceParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Repository    outboxMaintenanceRepo
	RetentionDays int
	// MaxAttempts is the publisher's limit; rows at or past it are parked.
	MaxAttempts int
}

// OutboxMaintenance owns the cron jobs that keep the outbox table small and
// surface events the publisher stopped retrying.
type OutboxMaintenance struct {
	logg        *logger.Logger
	db          txRunner
	repo        outboxMaintenanceRepo
	retention   time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewOutboxMaintenance(params OutboxMaintenanceParams) (*OutboxMaintenance, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.DB == nil:
		return nil, errors.New("db runner required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository required")
	case params.MaxAttempts <= 0:
		return nil, errors.New("max attempts must be positive")
	}
	days := params.RetentionDays
	if days <= 0 {
		days = defaultOutboxRetentionDays
	}
	return &OutboxMaintenance{
		logg:        params.Logger,
		db:          params.DB,
		repo:        params.Repository,
		retention:   time.Duration(days) * 24 * time.Hour,
		maxAttempts: params.MaxAttempts,
		now:         time.Now,
	}, nil
}

func (m *OutboxMaintenance) Jobs() []Job {
	return []Job{
		JobFunc(JobOutboxRetention, m.purgePublished),
		JobFunc(JobOutboxParkedReport, m.reportParked),
	}
}

// purgePublished deletes published rows older than the retention window.
// Pending and parked rows stay.
func (m *OutboxMaintenance) purgePublished(ctx context.Context) error {
	cutoff := m.now().UTC().Add(-m.retention)
	var deleted int64
	err := m.db.WithTx(ctx, func(tx *gorm.DB) (err error) {
		deleted, err = m.repo.DeletePublishedBefore(tx, cutoff)
		return err
	})
	if err != nil {
		return err
	}
	m.logg.Info(m.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "published outbox rows purged")
	return nil
}

func (m *OutboxMaintenance) reportParked(ctx context.Context) error {
	var parked int64
	err := m.db.WithTx(ctx, func(tx *gorm.DB) (err error) {
		parked, err = m.repo.CountParked(tx, m.maxAttempts)
		return err
	})
	if err != nil {
		return err
	}
	logCtx := m.logg.WithFields(ctx, map[string]any{
		"parked":       parked,
		"max_attempts": m.maxAttempts,
	})
	if parked == 0 {
		m.logg.Debug(logCtx, "no parked outbox rows")
		return nil
	}
	m.logg.Warn(logCtx, "outbox rows waiting for manual replay")
	return nil
}
