package redis

import "testing"

func TestKeys(t *testing.T) {
	if got := lockKey("ledger"); got != "lock:ledger" {
		t.Fatalf("lockKey = %q", got)
	}
	if got := candleKey("BTCUSDT", "1h", 20); got != "candles:BTCUSDT:1h:20" {
		t.Fatalf("candleKey = %q", got)
	}
}

func TestOptions(t *testing.T) {
	opts := options(ClientConfig{Addr: "cache:6379", DB: 2, PoolSize: 5})
	if opts.Addr != "cache:6379" || opts.DB != 2 || opts.PoolSize != 5 {
		t.Fatalf("options = %+v", opts)
	}
	if opts.ClientName != clientName {
		t.Fatalf("ClientName = %q", opts.ClientName)
	}
	if opts.TLSConfig != nil {
		t.Fatal("TLS set without TLSEnabled")
	}
	if tlsOpts := options(ClientConfig{TLSEnabled: true}); tlsOpts.TLSConfig == nil {
		t.Fatal("TLSEnabled did not set TLSConfig")
	}
}
