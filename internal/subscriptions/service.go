package subscriptions

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/internal/vendors"
	"github.com/handcar/handcar-backend/pkg/db"
	"github.com/handcar/handcar-backend/pkg/db/models"
	"github.com/handcar/handcar-backend/pkg/enums"
	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
	"github.com/handcar/handcar-backend/pkg/geo"
	"github.com/handcar/handcar-backend/pkg/logger"
	"github.com/handcar/handcar-backend/pkg/outbox"
	"github.com/handcar/handcar-backend/pkg/outbox/payloads"
)

const (
	DefaultRadiusKm = 50.0

	uniqueCustomerConstraint = "subscribers_customer_id_key"
)

// Service runs the subscription lifecycle and the vendor assignment set.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*SubscriberDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*SubscriberDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*SubscriberDTO, error)
	GetForCustomer(ctx context.Context, customerID uuid.UUID) (*Status, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListForVendor(ctx context.Context, vendorID uuid.UUID, emailSearch string) ([]SubscriberDTO, error)
	SuggestVendors(ctx context.Context, address string) (*Suggestion, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type geocoder interface {
	Resolve(ctx context.Context, address string) (geo.Point, error)
}

type nearbyFinder interface {
	FindNearby(ctx context.Context, origin geo.Point, radiusKm float64) ([]vendors.VendorDTO, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, events ...outbox.DomainEvent) error
}

type ServiceParams struct {
	Repo     *Repository
	DB       txRunner
	Geocoder geocoder
	Vendors  nearbyFinder
	Outbox   outboxPublisher
	Logger   *logger.Logger
	RadiusKm float64
}

type service struct {
	repo     *Repository
	db       txRunner
	geocoder geocoder
	vendors  nearbyFinder
	outbox   outboxPublisher
	logg     *logger.Logger
	radiusKm float64
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Geocoder == nil {
		return nil, fmt.Errorf("geocoder required")
	}
	if params.Vendors == nil {
		return nil, fmt.Errorf("vendors service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	radius := params.RadiusKm
	if radius <= 0 {
		radius = DefaultRadiusKm
	}
	return &service{
		repo:     params.Repo,
		db:       params.DB,
		geocoder: params.Geocoder,
		vendors:  params.Vendors,
		outbox:   params.Outbox,
		logg:     params.Logger,
		radiusKm: radius,
	}, nil
}

// Create registers the customer's only subscription. The address is geocoded before
// any transaction opens.
func (s *service) Create(ctx context.Context, input CreateInput) (*SubscriberDTO, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity required")
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	serviceType := strings.TrimSpace(input.ServiceType)
	if serviceType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serviceType is required")
	}
	address := strings.TrimSpace(input.Address)
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}
	t, err := parseTerms(input.Plan, input.DurationMonths, input.StartDate)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByCustomer(ctx, input.CustomerID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "customer already has a subscription")
	} else if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscriber")
	}

	point, err := s.geocoder.Resolve(ctx, address)
	if err != nil {
		return nil, err
	}

	sub := models.Subscriber{
		ID:             uuid.New(),
		CustomerID:     input.CustomerID,
		Email:          email,
		Address:        address,
		Latitude:       point.Lat,
		Longitude:      point.Lon,
		ServiceType:    serviceType,
		Plan:           t.Plan,
		DurationMonths: t.DurationMonths,
		StartDate:      t.StartDate,
		EndDate:        t.EndDate,
	}
	var assigned []uuid.UUID
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, &sub); err != nil {
			if db.IsUniqueViolation(err, uniqueCustomerConstraint) {
				return pkgerrors.New(pkgerrors.CodeConflict, "customer already has a subscription")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscriber")
		}
		ids, err := repo.ReplaceVendors(ctx, sub.ID, input.VendorIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign vendors")
		}
		assigned = ids

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubscriberCreated,
			AggregateType: enums.AggregateSubscriber,
			AggregateID:   sub.ID,
			Actor:         &outbox.ActorRef{UserID: sub.CustomerID, Role: enums.RoleCustomer.String()},
			Data: payloads.SubscriberCreatedEvent{
				SubscriberID: sub.ID,
				CustomerID:   sub.CustomerID,
				Email:        sub.Email,
				Plan:         sub.Plan,
				VendorIDs:    ids,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
		}
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"subscriber_id": sub.ID.String(),
		"customer_id":   sub.CustomerID.String(),
		"vendors":       len(assigned),
	}), "subscriber created")
	dto := toDTO(sub, assigned)
	return &dto, nil
}

// Update applies a partial edit and replaces the vendor set wholesale.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*SubscriberDTO, error) {
	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		sub.Email = email
	}
	if input.ServiceType != nil {
		serviceType := strings.TrimSpace(*input.ServiceType)
		if serviceType == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "serviceType must not be empty")
		}
		sub.ServiceType = serviceType
	}

	plan := sub.Plan.String()
	if input.Plan != nil {
		plan = *input.Plan
	}
	months := sub.DurationMonths
	if input.DurationMonths != nil {
		months = *input.DurationMonths
	}
	start := sub.StartDate.UTC().Format(DateLayout)
	if input.StartDate != nil {
		start = *input.StartDate
	}
	t, err := parseTerms(plan, months, start)
	if err != nil {
		return nil, err
	}
	sub.Plan, sub.DurationMonths = t.Plan, t.DurationMonths
	sub.StartDate, sub.EndDate = t.StartDate, t.EndDate

	if input.Address != nil {
		address := strings.TrimSpace(*input.Address)
		if address == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "address must not be empty")
		}
		if address != sub.Address {
			point, err := s.geocoder.Resolve(ctx, address)
			if err != nil {
				return nil, err
			}
			sub.Address = address
			sub.Latitude, sub.Longitude = point.Lat, point.Lon
		}
	}

	var assigned []uuid.UUID
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Save(ctx, sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscriber")
		}
		ids, err := repo.ReplaceVendors(ctx, sub.ID, input.VendorIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign vendors")
		}
		assigned = ids
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toDTO(*sub, assigned)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*SubscriberDTO, error) {
	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ids, err := s.repo.VendorIDs(ctx, sub.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assigned vendors")
	}
	dto := toDTO(*sub, ids)
	return &dto, nil
}

// GetForCustomer reports whether the customer is subscribed and to whom they are assigned.
func (s *service) GetForCustomer(ctx context.Context, customerID uuid.UUID) (*Status, error) {
	sub, err := s.repo.FindByCustomer(ctx, customerID)
	if err != nil {
		if db.IsNotFound(err) {
			return &Status{Vendors: []VendorSummary{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscriber")
	}
	rows, err := s.repo.AssignedVendors(ctx, sub.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assigned vendors")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	summaries := make([]VendorSummary, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
		summaries = append(summaries, toVendorSummary(row))
	}
	dto := toDTO(*sub, ids)
	return &Status{Subscribed: true, Subscriber: &dto, Vendors: summaries}, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	var deleted bool
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = s.repo.WithTx(tx).Delete(ctx, id)
		return err
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete subscriber")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "subscriber not found")
	}
	s.logg.Info(s.logg.WithField(ctx, "subscriber_id", id.String()), "subscriber deleted")
	return nil
}

func (s *service) ListForVendor(ctx context.Context, vendorID uuid.UUID, emailSearch string) ([]SubscriberDTO, error) {
	rows, err := s.repo.ListForVendor(ctx, vendorID, emailSearch)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscribers")
	}
	out := make([]SubscriberDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row, nil))
	}
	return out, nil
}

// SuggestVendors geocodes address and lists vendors within the subscription radius.
func (s *service) SuggestVendors(ctx context.Context, address string) (*Suggestion, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}
	point, err := s.geocoder.Resolve(ctx, address)
	if err != nil {
		return nil, err
	}
	found, err := s.vendors.FindNearby(ctx, point, s.radiusKm)
	if err != nil {
		return nil, err
	}
	if found == nil {
		found = []vendors.VendorDTO{}
	}
	return &Suggestion{
		Latitude:  *point.Lat,
		Longitude: *point.Lon,
		RadiusKm:  s.radiusKm,
		Vendors:   found,
	}, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Subscriber, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscriber not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscriber")
	}
	return sub, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email is invalid")
	}
	return email, nil
}
