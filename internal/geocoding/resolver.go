package geocoding

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
	"github.com/handcar/handcar-backend/pkg/geo"
	"github.com/handcar/handcar-backend/pkg/logger"
	"github.com/handcar/handcar-backend/pkg/maps"
	"github.com/handcar/handcar-backend/pkg/metrics"
)

const (
	defaultTimeout    = 5 * time.Second
	defaultRetryDelay = 200 * time.Millisecond
	tracerName        = "github.com/handcar/handcar-backend/internal/geocoding"
)

type provider interface {
	Geocode(ctx context.Context, address string) (maps.Coordinates, error)
}

type ResolverParams struct {
	Provider provider
	Store    Store
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	// Timeout bounds the provider attempt and its single retry together.
	Timeout    time.Duration
	RetryDelay time.Duration
}

// Resolver turns free-text addresses into coordinates, consulting Store first.
// It is safe for concurrent use when Store is.
type Resolver struct {
	provider   provider
	store      Store
	logg       *logger.Logger
	metrics    *metrics.Metrics
	timeout    time.Duration
	retryDelay time.Duration
}

func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Provider == nil {
		return nil, errors.New("geocoding provider is required")
	}
	if params.Store == nil {
		return nil, errors.New("geocode store is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	delay := params.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	return &Resolver{
		provider:   params.Provider,
		store:      params.Store,
		logg:       params.Logger,
		metrics:    params.Metrics,
		timeout:    timeout,
		retryDelay: delay,
	}, nil
}

// Resolve returns the coordinates for address. Provider failures, empty results
// and timeouts surface as GEOCODING_ERROR.
func (r *Resolver) Resolve(ctx context.Context, address string) (geo.Point, error) {
	query := strings.Join(strings.Fields(address), " ")
	if query == "" {
		return geo.Point{}, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}
	key := NormalizeAddress(query)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "geocoding.Resolve")
	defer span.End()

	point, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "geocode cache read failed")
	}
	if ok && point.Valid() {
		span.SetAttributes(attribute.Bool("geocode.cache_hit", true))
		r.metrics.IncGeocode("hit")
		return point, nil
	}
	span.SetAttributes(attribute.Bool("geocode.cache_hit", false))

	coords, err := r.lookup(ctx, query)
	if err != nil {
		r.metrics.IncGeocode("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "geocode failed")
		r.logg.Warn(r.logg.WithFields(ctx, map[string]any{"address": query, "error": err.Error()}), "geocode failed")
		return geo.Point{}, pkgerrors.Wrap(pkgerrors.CodeGeocoding, err, "address could not be geocoded").
			WithDetails(map[string]string{"address": query})
	}
	r.metrics.IncGeocode("miss")

	point = geo.NewPoint(coords.Latitude, coords.Longitude)
	if !point.Valid() {
		r.metrics.IncGeocode("error")
		return geo.Point{}, pkgerrors.New(pkgerrors.CodeGeocoding, "geocoder returned out of range coordinates").
			WithDetails(map[string]string{"address": query})
	}
	if err := r.store.Set(ctx, key, point); err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "geocode cache write failed")
	}
	return point, nil
}

// lookup calls the provider at most twice; the second attempt only follows a transient failure.
func (r *Resolver) lookup(ctx context.Context, query string) (maps.Coordinates, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var coords maps.Coordinates
	backoff := retry.WithMaxRetries(1, retry.NewConstant(r.retryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, err := r.provider.Geocode(ctx, query)
		if err != nil {
			if maps.IsTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		coords = c
		return nil
	})
	if err != nil {
		return maps.Coordinates{}, err
	}
	return coords, nil
}
