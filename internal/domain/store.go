package domain

import "context"

// LedgerStore persists the paper-trade ledger. Load reads the whole ordered
// sequence; Save rewrites it in full. Implementations must never drop or
// reorder entries that were loaded.
type LedgerStore interface {
	Load(ctx context.Context) ([]LedgerEntry, error)
	Save(ctx context.Context, entries []LedgerEntry) error
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
}
