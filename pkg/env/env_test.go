package env

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("HANDCAR_ENV_TEST", "  console ")
	if got := Get("HANDCAR_ENV_TEST", "json"); got != "console" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	t.Setenv("HANDCAR_ENV_TEST", "   ")
	if got := Get("HANDCAR_ENV_TEST", "json"); got != "json" {
		t.Fatalf("expected fallback for blank value, got %q", got)
	}
}
