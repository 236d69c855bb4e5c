package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alanyoungcy/polypaper/internal/domain"
	"github.com/alanyoungcy/polypaper/internal/pipeline"
	"github.com/alanyoungcy/polypaper/internal/server/handler"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type staticLedger []domain.LedgerEntry

func (s staticLedger) Load(context.Context) ([]domain.LedgerEntry, error) { return s, nil }
func (s staticLedger) Save(context.Context, []domain.LedgerEntry) error { return nil }

type fixedReport struct{ rep pipeline.PassReport }

func (f fixedReport) LastReport() (pipeline.PassReport, bool) { return f.rep, f.rep.PassID != "" }

func newTestServer(t *testing.T, apiKey string, probes map[string]handler.Probe, trigger chan struct{}) *httptest.Server {
	t.Helper()
	ledger := staticLedger{
		{ID: "a", SizeCategory: domain.SizeConviction, Type: domain.TradeTypeCryptoFast, Signal: domain.SignalSell, Status: domain.TradeStatusOpen},
		{ID: "b", SizeCategory: domain.SizeMinimum, Type: domain.TradeTypeEvent, Signal: domain.SignalNeutral, Status: domain.TradeStatusOpen},
		{ID: "c", SizeCategory: domain.SizeStandard, Type: domain.TradeTypeEvent, Signal: domain.SignalBuy, Status: domain.TradeStatusOpen},
	}
	srv := NewServer(Config{Addr: ":0", APIKey: apiKey}, Handlers{
		Health: handler.NewHealthHandler(probes, discard),
		Status: handler.NewStatusHandler("loop", time.Now(), fixedReport{pipeline.PassReport{
			PassID:    "p1",
			Decisions: map[domain.DecisionKind]int{domain.DecisionTrade: 2},
		}}),
		Ledger:  handler.NewLedgerHandler(ledger, discard),
		Pass:    handler.NewPassHandler(trigger, discard),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { io.WriteString(w, "ok") }),
	}, discard)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, ts *httptest.Server, path string, want int) map[string]any {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		t.Fatalf("GET %s: status %d, want %d", path, resp.StatusCode, want)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return body
}

func TestLedgerEndpoints(t *testing.T) {
	ts := newTestServer(t, "", nil, make(chan struct{}, 1))

	page := getJSON(t, ts, "/api/ledger?limit=2&offset=1", http.StatusOK)
	entries := page["entries"].([]any)
	if page["total"] != 3.0 || len(entries) != 2 || entries[0].(map[string]any)["id"] != "b" {
		t.Fatalf("page = %v", page)
	}
	if empty := getJSON(t, ts, "/api/ledger?offset=10", http.StatusOK); len(empty["entries"].([]any)) != 0 {
		t.Fatalf("past-the-end page = %v", empty)
	}

	sum := getJSON(t, ts, "/api/ledger/summary", http.StatusOK)
	if sum["open"] != 3.0 || sum["bankroll_percent"] != 8.0 {
		t.Fatalf("summary = %v", sum)
	}
	if sum["by_type"].(map[string]any)["EVENT"] != 2.0 {
		t.Fatalf("by_type = %v", sum["by_type"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	ts := newTestServer(t, "", nil, make(chan struct{}, 1))
	body := getJSON(t, ts, "/api/status", http.StatusOK)
	last, ok := body["last_pass"].(map[string]any)
	if body["mode"] != "loop" || !ok || last["pass_id"] != "p1" {
		t.Fatalf("status = %v", body)
	}
}

func TestHealthProbes(t *testing.T) {
	ok := newTestServer(t, "", map[string]handler.Probe{
		"redis": func(context.Context) error { return nil },
	}, make(chan struct{}, 1))
	if body := getJSON(t, ok, "/api/health", http.StatusOK); body["status"] != "ok" {
		t.Fatalf("health = %v", body)
	}

	bad := newTestServer(t, "", map[string]handler.Probe{
		"redis":    func(context.Context) error { return nil },
		"postgres": func(context.Context) error { return errors.New("connection refused") },
	}, make(chan struct{}, 1))
	body := getJSON(t, bad, "/api/health", http.StatusServiceUnavailable)
	if body["checks"].(map[string]any)["postgres"] != "connection refused" {
		t.Fatalf("health = %v", body)
	}
}

func TestPassTriggerIsNonBlocking(t *testing.T) {
	trigger := make(chan struct{}, 1)
	ts := newTestServer(t, "", nil, trigger)

	for i, wantQueued := range []bool{true, false} {
		resp, err := ts.Client().Post(ts.URL+"/api/pass/trigger", "application/json", nil)
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		var body map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusAccepted || body["queued"] != wantQueued {
			t.Fatalf("request %d: status %d, body %v", i, resp.StatusCode, body)
		}
	}
	if len(trigger) != 1 {
		t.Fatalf("trigger holds %d requests, want 1", len(trigger))
	}
}

func TestAuthLeavesProbesOpen(t *testing.T) {
	ts := newTestServer(t, "secret", nil, make(chan struct{}, 1))

	getJSON(t, ts, "/api/health", http.StatusOK)
	getJSON(t, ts, "/api/ledger", http.StatusUnauthorized)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/ledger", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authorised request: status %d", resp.StatusCode)
	}

	resp, err = ts.Client().Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/metrics: status %d", resp.StatusCode)
	}
}
