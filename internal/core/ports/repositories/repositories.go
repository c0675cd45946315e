package repositories

import (
	"context"

	"github.com/paygrid/tx_engine_app/internal/core/domain"
)

// SnapshotWriter persists the final per-client account snapshots of a
// processing run. The engine only ever writes; in-memory state stays
// authoritative.
type SnapshotWriter interface {
	// SaveSnapshots stores every snapshot under the given run identifier.
	SaveSnapshots(ctx context.Context, runID string, snapshots []domain.AccountSnapshot) error
}

// AuditWriter persists the per-record outcome trail of a processing run.
type AuditWriter interface {
	// SaveAuditEntries stores the audit trail under the given run identifier.
	SaveAuditEntries(ctx context.Context, runID string, entries []domain.AuditEntry) error
}

// RepositoryProvider bundles the repositories handed to the service layer.
// Fields are nil when persistence is not configured.
type RepositoryProvider struct {
	SnapshotRepo SnapshotWriter
	AuditRepo    AuditWriter
}
