package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/handcar/handcar-backend/api/responses"
	"github.com/handcar/handcar-backend/api/validators"
	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
	"github.com/handcar/handcar-backend/pkg/logger"
	pkgredis "github.com/handcar/handcar-backend/pkg/redis"
)

const (
	IdempotencyKeyHeader   = "Idempotency-Key"
	IdempotentReplayHeader = "Idempotent-Replayed"

	maxIdempotencyKeyLen = 255

	// placementIdempotencyTTL covers order placement, where a replayed request must
	// never create a second order.
	placementIdempotencyTTL = 7 * 24 * time.Hour

	// idempotencyLease holds the key while the first request is still running.
	idempotencyLease = 30 * time.Second
)

type idempotencyRule struct {
	method string
	match  func(path string) bool
	ttl    time.Duration // zero means the configured default
}

var idempotencyRules = []idempotencyRule{
	{method: http.MethodPost, match: pathIs("/api/v1/orders"), ttl: placementIdempotencyTTL},
	{method: http.MethodPost, match: pathIs("/api/v1/subscriptions")},
	{method: http.MethodPost, match: pathIs("/api/v1/ratings")},
	{method: http.MethodPost, match: pathIs("/api/v1/interactions")},
	{method: http.MethodPatch, match: pathAround("/api/v1/admin/orders/", "/status")},
}

// IdempotencyStore is the slice of the redis client the middleware needs.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// storedResponse is a finished response, or a reservation while Status is zero.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body,omitempty"`
	RequestHash string `json:"request_hash"`
}

func (s storedResponse) pending() bool { return s.Status == 0 }

// Idempotency makes the routes in idempotencyRules safe to retry with the same
// Idempotency-Key: the first response is stored per user, method and path and
// replayed afterwards. A 5xx response releases the key so the client can retry.
func Idempotency(store IdempotencyStore, defaultTTL time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := ruleFor(r.Method, normalizedPath(r))
			ttl := rule.ttl
			if ttl == 0 {
				ttl = defaultTTL
			}
			if !ok || store == nil || ttl <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			g := &idempotencyGuard{store: store, ttl: ttl, logg: logg}
			g.serve(w, r, next)
		})
	}
}

type idempotencyGuard struct {
	store IdempotencyStore
	ttl   time.Duration
	logg  *logger.Logger
}

func (g *idempotencyGuard) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	ctx := r.Context()
	clientKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	switch {
	case clientKey == "":
		g.fail(ctx, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
		return
	case len(clientKey) > maxIdempotencyKeyLen:
		g.fail(ctx, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header too long").
			WithDetails(map[string]any{"max": maxIdempotencyKeyLen}))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, validators.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			g.fail(ctx, w, pkgerrors.New(pkgerrors.CodeValidation, "request body too large").
				WithDetails(map[string]any{"limitBytes": tooLarge.Limit}))
			return
		}
		g.fail(ctx, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	hash := hashBody(body)
	key := g.store.IdempotencyKey(strings.Join([]string{UserIDFromContext(ctx), r.Method, normalizedPath(r)}, "|"), clientKey)

	reservation, _ := json.Marshal(storedResponse{RequestHash: hash})
	reserved, err := g.store.SetNX(ctx, key, string(reservation), idempotencyLease)
	if err != nil {
		g.fail(ctx, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
		return
	}
	if !reserved {
		g.replay(ctx, w, key, hash)
		return
	}

	capture := &responseCapture{ResponseWriter: w}
	next.ServeHTTP(capture, r)
	status := capture.statusCode()

	if status >= http.StatusInternalServerError {
		if err := g.store.Del(ctx, key); err != nil {
			g.logError(ctx, "release idempotency key", err)
		}
		return
	}
	record, _ := json.Marshal(storedResponse{
		Status:      status,
		ContentType: capture.Header().Get("Content-Type"),
		Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
		RequestHash: hash,
	})
	if err := g.store.Set(ctx, key, string(record), g.ttl); err != nil {
		g.logError(ctx, "persist idempotency record", err)
	}
}

func (g *idempotencyGuard) replay(ctx context.Context, w http.ResponseWriter, key, hash string) {
	raw, err := g.store.Get(ctx, key)
	if err != nil && !pkgredis.IsMiss(err) {
		g.fail(ctx, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read idempotency record"))
		return
	}
	if raw == "" {
		// reservation expired between SETNX and GET
		g.fail(ctx, w, inProgress())
		return
	}

	var record storedResponse
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		g.fail(ctx, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.RequestHash != hash {
		g.fail(ctx, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body").
			WithDetails(map[string]string{"reason": "body_mismatch"}))
		return
	}
	if record.pending() {
		g.fail(ctx, w, inProgress())
		return
	}

	body, err := base64.StdEncoding.DecodeString(record.Body)
	if err != nil {
		g.fail(ctx, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency body"))
		return
	}
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set(IdempotentReplayHeader, "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(body)
}

func inProgress() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this Idempotency-Key is still in progress").
		WithDetails(map[string]string{"reason": "in_progress"})
}

func (g *idempotencyGuard) fail(ctx context.Context, w http.ResponseWriter, err error) {
	responses.WriteError(ctx, g.logg, w, err)
}

func (g *idempotencyGuard) logError(ctx context.Context, msg string, err error) {
	if g.logg == nil {
		return
	}
	g.logg.Error(ctx, msg, err)
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.RawStdEncoding.EncodeToString(sum[:])
}

// normalizedPath is used instead of the chi pattern, which is not resolved yet
// while group middleware runs.
func normalizedPath(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	path := r.URL.Path
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

func ruleFor(method, path string) (idempotencyRule, bool) {
	if path == "" {
		return idempotencyRule{}, false
	}
	for _, rule := range idempotencyRules {
		if rule.method == method && rule.match(path) {
			return rule, true
		}
	}
	return idempotencyRule{}, false
}

func pathIs(want string) func(string) bool {
	return func(path string) bool { return path == want }
}

func pathAround(prefix, suffix string) func(string) bool {
	return func(path string) bool {
		return len(path) > len(prefix)+len(suffix) &&
			strings.HasPrefix(path, prefix) && strings.HasSuffix(path, suffix)
	}
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
