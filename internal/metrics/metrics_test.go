package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCountersRegistered(t *testing.T) {
	FilterRejections.WithLabelValues("low_liquidity").Inc()
	Decisions.WithLabelValues("VETO").Inc()
	LedgerAppends.Inc()

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	want := map[string]bool{
		"polypaper_filter_rejections_total": false,
		"polypaper_decisions_total":         false,
		"polypaper_ledger_appends_total":    false,
	}
	for _, mf := range mfs {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("%s not registered", name)
		}
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	LedgerAppends.Inc()
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "polypaper_ledger_appends_total") {
		t.Fatal("ledger counter missing from exposition")
	}
}
