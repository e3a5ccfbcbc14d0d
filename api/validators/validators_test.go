package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
)

type ratingPayload struct {
	SubjectType string `json:"subjectType" validate:"required,oneof=product vendor"`
	SubjectID   string `json:"subjectId" validate:"required,uuid"`
	Value       int    `json:"value" validate:"min=1,max=5"`
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"subjectType":"shop","subjectId":"x","value":9}`))
	var dest ratingPayload
	err := DecodeJSONBody(req, &dest)

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	for _, field := range []string{"subjectType", "subjectId", "value"} {
		if details[field] == "" {
			t.Fatalf("missing detail for %s: %v", field, details)
		}
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"subjectType":"vendor","totalPrice":"1.00"}`))
	var dest ratingPayload
	if err := DecodeJSONBody(req, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryFloat(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?lat=25.2&lon=abc", nil)

	lat, err := ParseQueryFloat(req, "lat")
	if err != nil || lat == nil || *lat != 25.2 {
		t.Fatalf("unexpected lat %v err %v", lat, err)
	}
	if _, err := ParseQueryFloat(req, "lon"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	missing, err := ParseQueryFloat(req, "radius_km")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for absent key, got %v %v", missing, err)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	if _, err := ParseQueryInt(req, "limit", 20, 1, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected out of range error, got %v", err)
	}
	got, err := ParseQueryInt(httptest.NewRequest(http.MethodGet, "/", nil), "limit", 20, 1, 100)
	if err != nil || got != 20 {
		t.Fatalf("expected default 20, got %d %v", got, err)
	}
}

func TestDecodeJSONBodyRejectsEmptyAndTrailingBodies(t *testing.T) {
	cases := map[string]string{
		"empty":    ``,
		"trailing": `{"subjectType":"vendor","subjectId":"7d7f8a4e-4a35-4c0c-9a7a-6f1f3e1d2c3b","value":3} {}`,
		"too big":  `{"subjectType":"` + strings.Repeat("a", MaxBodyBytes) + `"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			var dest ratingPayload
			if err := DecodeJSONBody(req, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestPhoneValidation(t *testing.T) {
	type vendorPayload struct {
		Phone string `json:"phone" validate:"omitempty,phone"`
	}
	valid := []string{"", "+971 50 123 4567", "(04) 555-1234", "0501234567"}
	invalid := []string{"call me", "+12", "12345678901234567", "+971-50-ABC"}

	for _, phone := range valid {
		if err := validate.Struct(vendorPayload{Phone: phone}); err != nil {
			t.Fatalf("expected %q to be valid: %v", phone, err)
		}
	}
	for _, phone := range invalid {
		if err := validate.Struct(vendorPayload{Phone: phone}); err == nil {
			t.Fatalf("expected %q to be rejected", phone)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  brake   pads\n front ", 0); got != "brake pads front" {
		t.Fatalf("unexpected collapse result %q", got)
	}
	arabic := "\u0645\u0631\u0622\u0629 \u062c\u0627\u0646\u0628\u064a\u0629"
	if got := SanitizeString(arabic, 4); got != "\u0645\u0631\u0622\u0629" {
		t.Fatalf("expected rune-safe truncation, got %q", got)
	}
	if got := SanitizeString("tyres", 10); got != "tyres" {
		t.Fatalf("unexpected %q", got)
	}
}
