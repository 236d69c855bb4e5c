package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// AuditStore implements domain.AuditStore using PostgreSQL.
type AuditStore struct {
	db DBTX
}

// NewAuditStore creates an AuditStore writing through db.
func NewAuditStore(db DBTX) *AuditStore {
	return &AuditStore{db: db}
}

// Log appends a new audit entry with the given event name and detail map.
// The detail map is stored as JSONB.
func (s *AuditStore) Log(ctx context.Context, event string, detail map[string]any) error {
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("postgres: marshal audit detail: %w", err)
	}

	const query = `INSERT INTO audit_log (event, detail) VALUES ($1, $2)`
	if _, err := s.db.Exec(ctx, query, event, detailJSON); err != nil {
		return fmt.Errorf("postgres: log audit event %s: %w", event, err)
	}
	return nil
}

var _ domain.AuditStore = (*AuditStore)(nil)
