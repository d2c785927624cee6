package apperrors

import (
	"errors"
	"net/http"
	"testing"
)

func TestNewCopiesRegistryEntry(t *testing.T) {
	a := New(NotFoundOpportunity)
	b := New(NotFoundOpportunity)

	a.Issues = append(a.Issues, "something")
	if len(b.Issues) != 0 {
		t.Fatalf("mutating one instance leaked into another")
	}

	if a.Code != NotFoundOpportunity {
		t.Fatalf("Code = %q, want %q", a.Code, NotFoundOpportunity)
	}
	if a.StatusCode != http.StatusNotFound {
		t.Fatalf("StatusCode = %d, want 404", a.StatusCode)
	}
	if a.Category != CategoryNotFound {
		t.Fatalf("Category = %q, want not_found", a.Category)
	}
}

func TestNewUnknownCodeFallsBackToServerInternal(t *testing.T) {
	e := New("NO_SUCH_CODE")
	if e.Code != ServerInternal {
		t.Fatalf("Code = %q, want %q", e.Code, ServerInternal)
	}
	if e.StatusCode != http.StatusInternalServerError {
		t.Fatalf("StatusCode = %d, want 500", e.StatusCode)
	}
}

func TestByCodeUnknownReturnsNil(t *testing.T) {
	if e := ByCode("NO_SUCH_CODE"); e != nil {
		t.Fatalf("expected nil for unknown code, got %v", e)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	e := Wrap(ServerDatabase, cause)

	if !errors.Is(e, cause) {
		t.Fatalf("wrapped error should match its cause")
	}
	if !errors.Is(e, New(ServerDatabase)) {
		t.Fatalf("wrapped error should match its registry entry by code")
	}
}

func TestFromStatus(t *testing.T) {
	cases := []struct {
		status int
		code   string
	}{
		{http.StatusUnauthorized, AuthTokenInvalid},
		{http.StatusForbidden, AuthTokenInvalid},
		{http.StatusNotFound, NotFoundRoute},
		{http.StatusTooManyRequests, RateLimitExceeded},
		{http.StatusGatewayTimeout, NetworkUpstreamTimeout},
		{http.StatusBadGateway, NetworkUpstreamUnavailable},
		{http.StatusInternalServerError, NetworkUpstreamUnavailable},
		{http.StatusBadRequest, ValidationInvalidFormat},
		{http.StatusOK, ServerInternal},
	}

	for _, tc := range cases {
		if got := FromStatus(tc.status); got.Code != tc.code {
			t.Errorf("FromStatus(%d) = %q, want %q", tc.status, got.Code, tc.code)
		}
	}
}

func TestEveryCategoryHasCodes(t *testing.T) {
	counts := map[Category]int{}
	for _, code := range Codes() {
		counts[ByCode(code).Category]++
	}

	for _, cat := range []Category{
		CategoryAuth, CategoryValidation, CategoryNetwork, CategoryServer,
		CategoryPermission, CategoryNotFound, CategoryRateLimit,
	} {
		if counts[cat] < 2 {
			t.Errorf("category %q has %d codes, want at least 2", cat, counts[cat])
		}
	}
}

func TestEveryEntryCarriesUserMessageAndStatus(t *testing.T) {
	for _, code := range Codes() {
		e := ByCode(code)
		if e.UserMessage == "" {
			t.Errorf("%s has no user message", code)
		}
		if e.StatusCode < 400 || e.StatusCode > 599 {
			t.Errorf("%s has implausible status %d", code, e.StatusCode)
		}
	}
}
