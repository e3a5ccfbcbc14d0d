package vendors

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
	"github.com/handcar/handcar-backend/pkg/geo"
	"github.com/handcar/handcar-backend/pkg/logger"
)

const (
	DefaultSearchRadiusKm = 20.0

	uniqueEmailConstraint    = "vendors_email_key"
	uniqueCategoryConstraint = "service_categories_name_key"
)

// Service manages the vendor directory and its location queries.
type Service interface {
	Create(ctx context.Context, input CreateVendorInput) (*VendorDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateVendorInput) (*VendorDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*VendorDTO, error)
	List(ctx context.Context, filter ListFilter) ([]VendorDTO, error)
	FindNearby(ctx context.Context, origin geo.Point, radiusKm float64) ([]VendorDTO, error)
	Search(ctx context.Context, input SearchInput) (*SearchResult, error)
	CreateCategory(ctx context.Context, name string) (*CategoryDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
}

type geocoder interface {
	Resolve(ctx context.Context, address string) (geo.Point, error)
}

type ratingSummarizer interface {
	Average(ctx context.Context, subject ratings.Subject) (ratings.Summary, error)
	AverageMany(ctx context.Context, subjectType enums.RatingSubject, ids []uuid.UUID) (map[uuid.UUID]ratings.Summary, error)
}

type ServiceParams struct {
	Repo           *Repository
	Geocoder       geocoder
	Ratings        ratingSummarizer
	Logger         *logger.Logger
	SearchRadiusKm float64
}

type service struct {
	repo         *Repository
	geocoder     geocoder
	ratings      ratingSummarizer
	logg         *logger.Logger
	searchRadius float64
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("vendors repository required")
	}
	if params.Geocoder == nil {
		return nil, fmt.Errorf("geocoder required")
	}
	if params.Ratings == nil {
		return nil, fmt.Errorf("ratings service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	radius := params.SearchRadiusKm
	if radius <= 0 {
		radius = DefaultSearchRadiusKm
	}
	return &service{
		repo:         params.Repo,
		geocoder:     params.Geocoder,
		ratings:      params.Ratings,
		logg:         params.Logger,
		searchRadius: radius,
	}, nil
}

// Create stores a vendor. An address without coordinates is geocoded first so the
// record never needs another lookup until the address changes.
func (s *service) Create(ctx context.Context, input CreateVendorInput) (*VendorDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := validateRate(input.Rate); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	vendor := &models.Vendor{
		Name:           name,
		Phone:          strings.TrimSpace(input.Phone),
		WhatsApp:       strings.TrimSpace(input.WhatsApp),
		Email:          normalizeEmail(input.Email),
		Address:        trimmedOrNil(input.Address),
		CategoryID:     input.CategoryID,
		ServiceDetails: strings.TrimSpace(input.ServiceDetails),
		Rate:           input.Rate,
	}
	point, err := s.locate(ctx, vendor.Address, input.Latitude, input.Longitude)
	if err != nil {
		return nil, err
	}
	vendor.Latitude, vendor.Longitude = point.Lat, point.Lon

	if err := s.repo.Create(ctx, vendor); err != nil {
		if db.IsUniqueViolation(err, uniqueEmailConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a vendor with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor")
	}

	s.logg.Info(s.logg.WithField(ctx, "vendor_id", vendor.ID.String()), "vendor created")
	dto := toDTO(*vendor, ratings.Summary{})
	return &dto, nil
}

// Update applies a partial edit. Coordinates are re-resolved only when the address
// string changes or the stored coordinates are missing.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateVendorInput) (*VendorDTO, error) {
	vendor, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		vendor.Name = name
	}
	if input.Phone != nil {
		vendor.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.WhatsApp != nil {
		vendor.WhatsApp = strings.TrimSpace(*input.WhatsApp)
	}
	if input.Email != nil {
		vendor.Email = normalizeEmail(input.Email)
	}
	if input.ServiceDetails != nil {
		vendor.ServiceDetails = strings.TrimSpace(*input.ServiceDetails)
	}
	if input.Rate != nil {
		if err := validateRate(input.Rate); err != nil {
			return nil, err
		}
		vendor.Rate = input.Rate
	}
	if input.CategoryID.Valid {
		if err := s.checkCategory(ctx, input.CategoryID.Value); err != nil {
			return nil, err
		}
	}
	vendor.CategoryID = input.CategoryID.Apply(vendor.CategoryID)

	addressChanged := false
	if input.Address != nil {
		next := trimmedOrNil(input.Address)
		addressChanged = !sameString(vendor.Address, next)
		vendor.Address = next
	}
	switch {
	case input.Latitude != nil || input.Longitude != nil:
		point, err := explicitPoint(input.Latitude, input.Longitude)
		if err != nil {
			return nil, err
		}
		vendor.Latitude, vendor.Longitude = point.Lat, point.Lon
	case addressChanged || !pointOf(*vendor).Valid():
		point, err := s.locate(ctx, vendor.Address, nil, nil)
		if err != nil {
			return nil, err
		}
		vendor.Latitude, vendor.Longitude = point.Lat, point.Lon
	}

	if err := s.repo.Save(ctx, vendor); err != nil {
		if db.IsUniqueViolation(err, uniqueEmailConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a vendor with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vendor")
	}
	return s.decorateOne(ctx, *vendor)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*VendorDTO, error) {
	vendor, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.decorateOne(ctx, *vendor)
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]VendorDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}
	return s.decorate(ctx, rows, nil)
}

// FindNearby returns the vendors within radiusKm of origin, nearest first. It never
// falls back; callers decide what an empty result means.
func (s *service) FindNearby(ctx context.Context, origin geo.Point, radiusKm float64) ([]VendorDTO, error) {
	if !origin.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid latitude and longitude are required")
	}
	if radiusKm <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "radius must be positive")
	}
	rows, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}
	matched, distances := match(origin, rows, radiusKm)
	return s.decorate(ctx, matched, distances)
}

// Search is the public lookup. Without coordinates, or when nothing lies within the
// radius, it returns the whole (text-filtered) directory flagged as a fallback.
func (s *service) Search(ctx context.Context, input SearchInput) (*SearchResult, error) {
	radius := s.searchRadius
	if input.RadiusKm != nil {
		if *input.RadiusKm <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "radius_km must be positive")
		}
		radius = *input.RadiusKm
	}
	if (input.Lat == nil) != (input.Lon == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lat and lon must be provided together")
	}
	origin := geo.Point{Lat: input.Lat, Lon: input.Lon}
	hasOrigin := input.Lat != nil
	if hasOrigin && !origin.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lat or lon out of range")
	}

	rows, err := s.repo.List(ctx, ListFilter{Query: input.Query})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}

	result := &SearchResult{RadiusKm: radius}
	if hasOrigin {
		matched, distances := match(origin, rows, radius)
		if len(matched) > 0 {
			result.Vendors, err = s.decorate(ctx, matched, distances)
			if err != nil {
				return nil, err
			}
			return result, nil
		}
	}

	result.Fallback = true
	var distances map[uuid.UUID]float64
	if hasOrigin {
		distances = make(map[uuid.UUID]float64, len(rows))
		for _, row := range rows {
			if p := pointOf(row); p.Valid() {
				distances[row.ID] = geo.RoundKm(geo.DistanceKm(origin, p))
			}
		}
	}
	result.Vendors, err = s.decorate(ctx, rows, distances)
	if err != nil {
		return nil, err
	}
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"has_origin": hasOrigin,
		"radius_km":  radius,
		"vendors":    len(rows),
	}), "vendor search fell back to full list")
	return result, nil
}

func (s *service) CreateCategory(ctx context.Context, name string) (*CategoryDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	category := &models.ServiceCategory{Name: name}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, uniqueCategoryConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "service category already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create service category")
	}
	dto := toCategoryDTO(*category)
	return &dto, nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list service categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCategoryDTO(row))
	}
	return out, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return vendor, nil
}

func (s *service) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	ok, err := s.repo.CategoryExists(ctx, *id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check service category")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "service category does not exist").
			WithDetails(map[string]string{"categoryId": id.String()})
	}
	return nil
}

// locate prefers explicit coordinates and otherwise geocodes address. No address and
// no coordinates leaves the vendor unlocated.
func (s *service) locate(ctx context.Context, address *string, lat, lon *float64) (geo.Point, error) {
	if lat != nil || lon != nil {
		return explicitPoint(lat, lon)
	}
	if address == nil {
		return geo.Point{}, nil
	}
	return s.geocoder.Resolve(ctx, *address)
}

func (s *service) decorateOne(ctx context.Context, vendor models.Vendor) (*VendorDTO, error) {
	summary, err := s.ratings.Average(ctx, ratings.Subject{Type: enums.RatingSubjectVendor, ID: vendor.ID})
	if err != nil {
		return nil, err
	}
	dto := toDTO(vendor, summary)
	return &dto, nil
}

func (s *service) decorate(ctx context.Context, rows []models.Vendor, distances map[uuid.UUID]float64) ([]VendorDTO, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	summaries, err := s.ratings.AverageMany(ctx, enums.RatingSubjectVendor, ids)
	if err != nil {
		return nil, err
	}
	out := make([]VendorDTO, 0, len(rows))
	for _, row := range rows {
		dto := toDTO(row, summaries[row.ID])
		if d, ok := distances[row.ID]; ok {
			dto.DistanceKm = &d
		}
		out = append(out, dto)
	}
	return out, nil
}

func match(origin geo.Point, rows []models.Vendor, radiusKm float64) ([]models.Vendor, map[uuid.UUID]float64) {
	candidates := make([]geo.Candidate[models.Vendor], 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, geo.Candidate[models.Vendor]{Item: row, Point: pointOf(row)})
	}
	matches := geo.FindWithinRadius(origin, candidates, radiusKm)
	vendors := make([]models.Vendor, 0, len(matches))
	distances := make(map[uuid.UUID]float64, len(matches))
	for _, m := range matches {
		vendors = append(vendors, m.Item)
		distances[m.Item.ID] = geo.RoundKm(m.DistanceKm)
	}
	return vendors, distances
}

func explicitPoint(lat, lon *float64) (geo.Point, error) {
	if lat == nil || lon == nil {
		return geo.Point{}, pkgerrors.New(pkgerrors.CodeValidation, "latitude and longitude must be provided together")
	}
	point := geo.NewPoint(*lat, *lon)
	if !point.Valid() {
		return geo.Point{}, pkgerrors.New(pkgerrors.CodeValidation, "latitude or longitude out of range")
	}
	return point, nil
}

func validateRate(rate *int) error {
	if rate != nil && *rate < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rate must not be negative")
	}
	return nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	trimmed := strings.ToLower(strings.TrimSpace(*email))
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
