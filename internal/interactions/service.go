package interactions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/pkg/db"
	"github.com/handcar/handcar-backend/pkg/db/models"
	"github.com/handcar/handcar-backend/pkg/enums"
	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
	"github.com/handcar/handcar-backend/pkg/logger"
	"github.com/handcar/handcar-backend/pkg/outbox"
	"github.com/handcar/handcar-backend/pkg/outbox/payloads"
)

// LogDTO is one customer request as a vendor sees it.
type LogDTO struct {
	ID         uuid.UUID               `json:"id"`
	VendorID   uuid.UUID               `json:"vendorId"`
	CustomerID uuid.UUID               `json:"customerId"`
	Action     enums.InteractionAction `json:"action"`
	Status     enums.InteractionStatus `json:"status"`
	CreatedAt  time.Time               `json:"createdAt"`
	UpdatedAt  time.Time               `json:"updatedAt"`
}

type Service interface {
	Log(ctx context.Context, customerID, vendorID uuid.UUID, action string) (*LogDTO, error)
	PendingForVendor(ctx context.Context, vendorID uuid.UUID) ([]LogDTO, error)
	UpdateStatus(ctx context.Context, vendorID, logID uuid.UUID, decision string) (*LogDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type vendorLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, events ...outbox.DomainEvent) error
}

type ServiceParams struct {
	Repo    *Repository
	DB      txRunner
	Vendors vendorLoader
	Outbox  outboxPublisher
	Logger  *logger.Logger
}

type service struct {
	repo    *Repository
	db      txRunner
	vendors vendorLoader
	outbox  outboxPublisher
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("interactions repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Vendors == nil {
		return nil, fmt.Errorf("vendor loader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		db:      params.DB,
		vendors: params.Vendors,
		outbox:  params.Outbox,
		logg:    params.Logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Log records that the customer contacted the vendor and queues the vendor notification.
func (s *service) Log(ctx context.Context, customerID, vendorID uuid.UUID, action string) (*LogDTO, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity required")
	}
	parsed, err := enums.ParseInteractionAction(strings.ToUpper(strings.TrimSpace(action)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "action must be CALL or WHATSAPP")
	}
	vendor, err := s.vendors.FindByID(ctx, vendorID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}

	entry := models.InteractionLog{
		ID:         uuid.New(),
		VendorID:   vendor.ID,
		CustomerID: customerID,
		Action:     parsed,
		Status:     enums.InteractionStatusPending,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, &entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create interaction log")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVendorInteractionLogged,
			AggregateType: enums.AggregateInteraction,
			AggregateID:   entry.ID,
			Actor:         &outbox.ActorRef{UserID: customerID, Role: enums.RoleCustomer.String()},
			Data: payloads.VendorInteractionLoggedEvent{
				LogID:       entry.ID,
				VendorID:    vendor.ID,
				VendorName:  vendor.Name,
				VendorEmail: vendor.Email,
				CustomerID:  customerID,
				Action:      parsed,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit interaction logged")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"log_id":    entry.ID.String(),
		"vendor_id": vendor.ID.String(),
		"action":    string(parsed),
	}), "vendor interaction logged")
	dto := toDTO(entry)
	return &dto, nil
}

func (s *service) PendingForVendor(ctx context.Context, vendorID uuid.UUID) ([]LogDTO, error) {
	rows, err := s.repo.ListByVendorStatus(ctx, vendorID, enums.InteractionStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending interactions")
	}
	out := make([]LogDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

// UpdateStatus records the owning vendor's answer. Only PENDING logs can be decided.
func (s *service) UpdateStatus(ctx context.Context, vendorID, logID uuid.UUID, decision string) (*LogDTO, error) {
	status, err := enums.ParseInteractionDecision(strings.ToUpper(strings.TrimSpace(decision)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "status must be ACCEPTED or DECLINED")
	}

	ok, err := s.repo.Decide(ctx, vendorID, logID, status, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update interaction")
	}

	current, err := s.repo.FindByID(ctx, logID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "interaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load interaction")
	}
	if !ok {
		if current.VendorID != vendorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "interaction belongs to another vendor")
		}
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "interaction already %s", current.Status).
			WithDetails(map[string]any{"current": current.Status, "requested": status})
	}
	dto := toDTO(*current)
	return &dto, nil
}

func toDTO(l models.InteractionLog) LogDTO {
	return LogDTO{
		ID:         l.ID,
		VendorID:   l.VendorID,
		CustomerID: l.CustomerID,
		Action:     l.Action,
		Status:     l.Status,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}
