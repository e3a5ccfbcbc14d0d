package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
)

const (
	defaultBaseURL        = "https://api.opencagedata.com"
	geocodePath           = "/geocode/v1/json"
	responseBodyReadLimit = 1024
	defaultHTTPTimeout    = 10 * time.Second
)

var (
	errAPIKeyRequired = errors.New("geocoding api key is required")

	// ErrNoResults means the provider answered but could not place the address.
	ErrNoResults = errors.New("geocoding returned no results")
)

// Coordinates is the first match returned for a query.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Client wraps the OpenCage forward geocoding API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the provider base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{
			Timeout:   defaultHTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Geocode resolves a free-text address into coordinates.
func (c *Client) Geocode(ctx context.Context, address string) (Coordinates, error) {
	if c == nil {
		return Coordinates{}, pkgerrors.New(pkgerrors.CodeDependency, "geocoding client not configured")
	}
	query := strings.TrimSpace(address)
	if query == "" {
		return Coordinates{}, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("key", c.apiKey)
	params.Set("limit", "1")
	params.Set("no_annotations", "1")
	endpoint := strings.TrimRight(c.baseURL, "/") + geocodePath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Coordinates{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build geocode request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Coordinates{}, pkgerrors.Wrap(pkgerrors.CodeDependency, &transientError{err: err}, "execute geocode request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		statusErr := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			statusErr = &transientError{err: statusErr}
		}
		return Coordinates{}, pkgerrors.Wrap(pkgerrors.CodeDependency, statusErr, "geocode request failed")
	}

	var apiResp struct {
		Results []struct {
			Geometry struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return Coordinates{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode geocode response")
	}
	if len(apiResp.Results) == 0 {
		return Coordinates{}, ErrNoResults
	}

	first := apiResp.Results[0].Geometry
	return Coordinates{Latitude: first.Lat, Longitude: first.Lng}, nil
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// IsTransient reports whether a Geocode failure is worth retrying: network errors,
// provider 5xx and rate limiting. Cancellation and deadline expiry are not.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var te *transientError
	return errors.As(err, &te)
}
