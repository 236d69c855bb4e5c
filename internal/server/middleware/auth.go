package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Auth guards the ledger and trigger routes with a shared key, sent either as
// "Authorization: Bearer <key>" or "X-API-Key: <key>". An empty apiKey turns
// the check off. Paths in open (health, metrics) always pass.
func Auth(apiKey string, open ...string) func(http.Handler) http.Handler {
	unguarded := make(map[string]struct{}, len(open))
	for _, p := range open {
		unguarded[p] = struct{}{}
	}
	want := []byte(apiKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := unguarded[r.URL.Path]; apiKey == "" || ok {
				next.ServeHTTP(w, r)
				return
			}
			switch key := requestKey(r); {
			case key == "":
				deny(w, "missing api key")
			case subtle.ConstantTimeCompare([]byte(key), want) != 1:
				deny(w, "invalid api key")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func requestKey(r *http.Request) string {
	if scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func deny(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
