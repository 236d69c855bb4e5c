package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingSender struct {
	name   string
	err    error
	titles []string
	bodies []string
}

func (r *recordingSender) Send(_ context.Context, title, message string) error {
	r.titles = append(r.titles, title)
	r.bodies = append(r.bodies, message)
	return r.err
}

func (r *recordingSender) Name() string { return r.name }

func TestNotifyFiltersEvents(t *testing.T) {
	s := &recordingSender{name: "rec"}
	n := NewNotifier([]Sender{s}, []string{EventPaperTrade}, discard)
	if err := n.Notify(context.Background(), "other", "t", "m"); err != nil {
		t.Fatal(err)
	}
	if len(s.titles) != 0 {
		t.Fatal("filtered event was delivered")
	}
	if err := n.Notify(context.Background(), EventPaperTrade, "t", "m"); err != nil {
		t.Fatal(err)
	}
	if len(s.titles) != 1 {
		t.Fatal("allowed event not delivered")
	}
}

func TestDispatchContinuesPastFailures(t *testing.T) {
	boom := errors.New("boom")
	bad := &recordingSender{name: "bad", err: boom}
	good := &recordingSender{name: "good"}
	err := NewNotifier([]Sender{bad, good}, nil, discard).Notify(context.Background(), "x", "t", "m")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
	if len(good.titles) != 1 {
		t.Fatal("second sender skipped after first failed")
	}
}

func TestPaperTradeMessage(t *testing.T) {
	s := &recordingSender{name: "rec"}
	rsi := 75.5
	err := NewNotifier([]Sender{s}, nil, discard).PaperTrade(context.Background(), domain.LedgerEntry{
		MarketSlug: "btc-up", MarketTitle: "BTC up?", Signal: domain.SignalSell, RSI: &rsi,
		SizeCategory: domain.SizeConviction, WeightedScore: 91.2, EntryPrice: 0.53,
		Position: "Down", Type: domain.TradeTypeCryptoFast,
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.titles[0] != "Paper trade: SELL BTC up?" {
		t.Fatalf("title = %q", s.titles[0])
	}
	for _, want := range []string{"Down @ 0.5300", "91.20 (CONVICTION, 5% bankroll)", "RSI: 75.50", "CRYPTO_FAST"} {
		if !strings.Contains(s.bodies[0], want) {
			t.Errorf("body missing %q:\n%s", want, s.bodies[0])
		}
	}
}

func TestTelegramSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	if err := newTelegramSender(srv.URL, "TOKEN", "42").Send(context.Background(), "Title", "Body"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["chat_id"] != "42" || got["text"] != "*Title*\nBody" {
		t.Fatalf("payload = %v", got)
	}
}

func TestDiscordSendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad webhook", http.StatusNotFound)
	}))
	defer srv.Close()

	if err := NewDiscordSender(srv.URL).Send(context.Background(), "t", "m"); err == nil {
		t.Fatal("expected error on 404")
	}
}
