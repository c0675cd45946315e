package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paygrid/tx_engine_app/internal/core/domain"
	portsrepo "github.com/paygrid/tx_engine_app/internal/core/ports/repositories"
)

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new repository for the per-record audit trail.
func NewAuditRepository(pool *pgxpool.Pool) portsrepo.AuditWriter {
	return &auditRepository{pool: pool}
}

// SaveAuditEntries inserts the run's audit trail in one batch. Amounts are
// stored as exact numerics; reconciliation records carry a zero amount.
func (r *auditRepository) SaveAuditEntries(ctx context.Context, runID string, entries []domain.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO transaction_audit (run_id, tx_id, client_id, kind, amount, outcome, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

	batch := &pgx.Batch{}
	for _, entry := range entries {
		batch.Queue(query,
			runID,
			int64(entry.TxID),
			int32(entry.ClientID),
			string(entry.Type),
			entry.Amount,
			entry.Outcome,
			entry.RecordedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to save audit trail for run %s: %w", runID, err)
		}
	}
	return nil
}
