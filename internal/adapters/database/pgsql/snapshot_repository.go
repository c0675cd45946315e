package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paygrid/tx_engine_app/internal/core/domain"
	portsrepo "github.com/paygrid/tx_engine_app/internal/core/ports/repositories"
)

type snapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new repository for final account snapshots.
func NewSnapshotRepository(pool *pgxpool.Pool) portsrepo.SnapshotWriter {
	return &snapshotRepository{pool: pool}
}

// SaveSnapshots inserts every snapshot of a finished run in one batch.
func (r *snapshotRepository) SaveSnapshots(ctx context.Context, runID string, snapshots []domain.AccountSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO account_snapshots (run_id, client_id, available, held, total, locked, finalized_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		batch.Queue(query,
			runID,
			int32(snap.ClientID),
			snap.Available,
			snap.Held,
			snap.Total,
			snap.Locked,
			now,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range snapshots {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to save snapshots for run %s: %w", runID, err)
		}
	}
	return nil
}
