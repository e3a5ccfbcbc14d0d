package maps

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient("test-key", WithBaseURL("http://geo.test"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestGeocodeRequestAndFirstResult(t *testing.T) {
	var captured *http.Request
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return jsonResponse(http.StatusOK, `{"results":[{"geometry":{"lat":25.2048,"lng":55.2708}},{"geometry":{"lat":1,"lng":1}}]}`), nil
	})

	coords, err := client.Geocode(context.Background(), "  Burj Khalifa, Dubai ")
	if err != nil {
		t.Fatalf("geocode: %v", err)
	}
	if captured.URL.Path != "/geocode/v1/json" {
		t.Fatalf("unexpected path %q", captured.URL.Path)
	}
	q := captured.URL.Query()
	if q.Get("q") != "Burj Khalifa, Dubai" || q.Get("key") != "test-key" || q.Get("limit") != "1" {
		t.Fatalf("unexpected query %v", q)
	}
	if coords.Latitude != 25.2048 || coords.Longitude != 55.2708 {
		t.Fatalf("unexpected coordinates %+v", coords)
	}
}

func TestGeocodeNoResults(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"results":[]}`), nil
	})
	_, err := client.Geocode(context.Background(), "nowhere")
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
	if IsTransient(err) {
		t.Fatalf("no results must not be transient")
	}
}

func TestGeocodeErrorClassification(t *testing.T) {
	cases := []struct {
		name      string
		rt        roundTripFunc
		transient bool
	}{
		{
			name:      "transport",
			rt:        func(*http.Request) (*http.Response, error) { return nil, errors.New("connection reset") },
			transient: true,
		},
		{
			name:      "server error",
			rt:        func(*http.Request) (*http.Response, error) { return jsonResponse(http.StatusBadGateway, "bad gateway"), nil },
			transient: true,
		},
		{
			name:      "rate limited",
			rt:        func(*http.Request) (*http.Response, error) { return jsonResponse(http.StatusTooManyRequests, "slow down"), nil },
			transient: true,
		},
		{
			name:      "invalid key",
			rt:        func(*http.Request) (*http.Response, error) { return jsonResponse(http.StatusUnauthorized, "bad key"), nil },
			transient: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestClient(t, tc.rt).Geocode(context.Background(), "Dubai Marina")
			if err == nil {
				t.Fatalf("expected error")
			}
			if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
				t.Fatalf("expected dependency code, got %v", err)
			}
			if IsTransient(err) != tc.transient {
				t.Fatalf("transient = %v, want %v", IsTransient(err), tc.transient)
			}
		})
	}
}

func TestGeocodeRequiresAddressAndKey(t *testing.T) {
	if _, err := NewClient(" "); err == nil {
		t.Fatalf("expected api key error")
	}
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		t.Fatalf("no request expected")
		return nil, nil
	})
	if _, err := client.Geocode(context.Background(), "   "); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
