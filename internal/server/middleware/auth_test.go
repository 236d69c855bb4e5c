package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Auth("s3cret", "/api/health")(ok)

	tests := []struct {
		name   string
		path   string
		header string
		value  string
		want   int
	}{
		{"bearer", "/api/ledger", "Authorization", "Bearer s3cret", http.StatusNoContent},
		{"api key header", "/api/ledger", "X-API-Key", "s3cret", http.StatusNoContent},
		{"wrong key", "/api/ledger", "X-API-Key", "nope", http.StatusUnauthorized},
		{"missing key", "/api/ledger", "", "", http.StatusUnauthorized},
		{"open path", "/api/health", "", "", http.StatusNoContent},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if tt.header != "" {
			r.Header.Set(tt.header, tt.value)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != tt.want {
			t.Errorf("%s: status %d, want %d", tt.name, w.Code, tt.want)
		}
	}
}

func TestAuthDisabledWithoutKey(t *testing.T) {
	h := Auth("")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/pass/trigger", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status %d", w.Code)
	}
}
