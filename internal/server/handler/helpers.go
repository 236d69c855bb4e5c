package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parsePage reads ?limit and ?offset for the ledger listing. Bad values fall
// back to the first page of defaultPageSize entries.
func parsePage(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit = min(queryInt(q.Get("limit"), defaultPageSize, 1), maxPageSize)
	offset = queryInt(q.Get("offset"), 0, 0)
	return limit, offset
}

func queryInt(raw string, fallback, floor int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < floor {
		return fallback
	}
	return n
}
