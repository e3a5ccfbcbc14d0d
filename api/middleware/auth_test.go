package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/pkg/auth"
	"github.com/handcar/handcar-backend/pkg/config"
	"github.com/handcar/handcar-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsForeignIssuer(t *testing.T) {
	foreign := testJWTConfig()
	foreign.Issuer = "someone-else"
	token := mintTestToken(t, foreign, enums.RoleCustomer, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	Auth(testJWTConfig(), nil)(okHandler()).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthSeedsVendorClaims(t *testing.T) {
	cfg := testJWTConfig()
	vendorID := uuid.New()
	token := mintTestToken(t, cfg, enums.RoleVendor, &vendorID)

	var captured struct {
		user   string
		role   string
		vendor string
	}
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.user = UserIDFromContext(r.Context())
		captured.role = RoleFromContext(r.Context())
		captured.vendor = VendorIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.user == "" {
		t.Fatal("expected user id in context")
	}
	if captured.role != enums.RoleVendor.String() {
		t.Fatalf("expected role vendor got %s", captured.role)
	}
	if captured.vendor != vendorID.String() {
		t.Fatalf("expected vendor %s got %s", vendorID, captured.vendor)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name   string
		role   string
		vendor string
		want   enums.Role
		status int
	}{
		{"anonymous", "", "", enums.RoleCustomer, http.StatusUnauthorized},
		{"wrong role", enums.RoleCustomer.String(), "", enums.RoleAdmin, http.StatusForbidden},
		{"vendor without id", enums.RoleVendor.String(), "", enums.RoleVendor, http.StatusForbidden},
		{"vendor", enums.RoleVendor.String(), uuid.NewString(), enums.RoleVendor, http.StatusOK},
		{"customer", enums.RoleCustomer.String(), "", enums.RoleCustomer, http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := req.Context()
		if tt.role != "" {
			ctx = WithUserID(ctx, uuid.NewString())
			ctx = WithRole(ctx, tt.role)
		}
		if tt.vendor != "" {
			ctx = WithVendorID(ctx, tt.vendor)
		}
		resp := httptest.NewRecorder()
		RequireRole(tt.want, nil)(okHandler()).ServeHTTP(resp, req.WithContext(ctx))
		if resp.Code != tt.status {
			t.Fatalf("%s: expected %d got %d", tt.name, tt.status, resp.Code)
		}
	}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, role enums.Role, vendorID *uuid.UUID) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{
		UserID:   uuid.New(),
		Role:     role,
		VendorID: vendorID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
