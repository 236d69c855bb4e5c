package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// LedgerStore implements domain.LedgerStore over the paper_trades table.
// Rows are ordered by insertion sequence; Save only inserts rows whose ID is
// not already present, so persisted entries are never rewritten.
type LedgerStore struct {
	db DBTX
}

// NewLedgerStore creates a LedgerStore over db.
func NewLedgerStore(db DBTX) *LedgerStore {
	return &LedgerStore{db: db}
}

const ledgerSelectCols = `id, ts, market_slug, market_title, trade_type, signal, rsi,
	decision, size_category, weighted_score, entry_price, position, status`

func scanLedgerRows(rows pgx.Rows) ([]domain.LedgerEntry, error) {
	var out []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(
			&e.ID, &e.Timestamp, &e.MarketSlug, &e.MarketTitle, &e.Type, &e.Signal, &e.RSI,
			&e.Decision, &e.SizeCategory, &e.WeightedScore, &e.EntryPrice, &e.Position, &e.Status,
		); err != nil {
			return nil, err
		}
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Load returns every ledger entry in append order.
func (s *LedgerStore) Load(ctx context.Context) ([]domain.LedgerEntry, error) {
	rows, err := s.db.Query(ctx, `SELECT `+ledgerSelectCols+` FROM paper_trades ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load ledger: %w", err)
	}
	defer rows.Close()

	entries, err := scanLedgerRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan ledger: %w", err)
	}
	return entries, nil
}

// ledgerInsert never touches an existing row; re-saving the full ledger only
// adds the entries appended since the last save.
const ledgerInsert = `
	INSERT INTO paper_trades (
		id, ts, market_slug, market_title, trade_type, signal, rsi,
		decision, size_category, weighted_score, entry_price, position, status
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7,
		$8, $9, $10, $11, $12, $13
	) ON CONFLICT (id) DO NOTHING`

// Save writes entries in order inside one transaction.
func (s *LedgerStore) Save(ctx context.Context, entries []domain.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin ledger save: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, e := range entries {
		if _, err := tx.Exec(ctx, ledgerInsert,
			e.ID, e.Timestamp, e.MarketSlug, e.MarketTitle, string(e.Type), string(e.Signal), e.RSI,
			string(e.Decision), string(e.SizeCategory), e.WeightedScore, e.EntryPrice, e.Position, string(e.Status),
		); err != nil {
			return fmt.Errorf("postgres: save ledger entry %d (%s): %w", i, e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit ledger save: %w", err)
	}
	return nil
}

var _ domain.LedgerStore = (*LedgerStore)(nil)
