package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/paygrid/tx_engine_app/internal/core/domain"
	portssvc "github.com/paygrid/tx_engine_app/internal/core/ports/services"
	"golang.org/x/sync/errgroup"
)

const laneBufferSize = 64

// shardedProcessorImpl partitions the stream across per-client lanes. Each
// lane owns its own ledger and dispute tracker, so lanes share no state and
// need no cross-lane locking; a record is always routed to the lane of its
// client id, which preserves arrival order per client. Transaction id dedup
// is per lane: a repeated id always belongs to the same client's stream, and
// routing pins that stream to one lane.
type shardedProcessorImpl struct {
	BaseService
	lanes           []portssvc.TxProcessorSvc
	sourceMalformed atomic.Int64
}

// NewShardedProcessor creates a processor fanning out over laneCount lanes.
func NewShardedProcessor(laneCount int) portssvc.TxProcessorSvc {
	if laneCount < 1 {
		laneCount = 1
	}
	lanes := make([]portssvc.TxProcessorSvc, laneCount)
	for i := range lanes {
		ledger := NewLedgerService()
		lanes[i] = NewStreamProcessor(ledger, NewDisputeTracker(ledger))
	}
	return &shardedProcessorImpl{lanes: lanes}
}

// Ensure shardedProcessorImpl implements the TxProcessorSvc interface
var _ portssvc.TxProcessorSvc = (*shardedProcessorImpl)(nil)

func (s *shardedProcessorImpl) laneFor(clientID uint16) portssvc.TxProcessorSvc {
	return s.lanes[int(clientID)%len(s.lanes)]
}

func (s *shardedProcessorImpl) Process(ctx context.Context, record domain.TransactionRecord) error {
	return s.laneFor(record.ClientID).Process(ctx, record)
}

// ProcessAll reads the source once and routes each record to its client's
// lane. Lane workers drain their channels concurrently; the dispatcher is
// the only reader of the source.
func (s *shardedProcessorImpl) ProcessAll(ctx context.Context, source portssvc.RecordSource) error {
	g, ctx := errgroup.WithContext(ctx)

	chans := make([]chan domain.TransactionRecord, len(s.lanes))
	for i := range chans {
		chans[i] = make(chan domain.TransactionRecord, laneBufferSize)
	}

	for i := range s.lanes {
		lane := s.lanes[i]
		ch := chans[i]
		g.Go(func() error {
			for record := range ch {
				// Rejections are counted inside the lane.
				_ = lane.Process(ctx, record)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, ch := range chans {
				close(ch)
			}
		}()
		for {
			record, err := source.Next(ctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				s.LogWarn(ctx, "Skipping unreadable record", slog.String("error", err.Error()))
				s.sourceMalformed.Add(1)
				continue
			}
			select {
			case chans[int(record.ClientID)%len(chans)] <- record:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	return g.Wait()
}

func (s *shardedProcessorImpl) Snapshots() []domain.AccountSnapshot {
	var snapshots []domain.AccountSnapshot
	for _, lane := range s.lanes {
		snapshots = append(snapshots, lane.Snapshots()...)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].ClientID < snapshots[j].ClientID
	})
	return snapshots
}

func (s *shardedProcessorImpl) Snapshot(clientID uint16) (domain.AccountSnapshot, error) {
	return s.laneFor(clientID).Snapshot(clientID)
}

func (s *shardedProcessorImpl) Stats() domain.RejectionStats {
	var stats domain.RejectionStats
	for _, lane := range s.lanes {
		stats = stats.Merge(lane.Stats())
	}
	stats.Malformed += s.sourceMalformed.Load()
	return stats
}

// AuditTrail concatenates the lane trails. Order is preserved within each
// client; cross-client interleaving reflects lane scheduling, not arrival.
func (s *shardedProcessorImpl) AuditTrail() []domain.AuditEntry {
	var trail []domain.AuditEntry
	for _, lane := range s.lanes {
		trail = append(trail, lane.AuditTrail()...)
	}
	return trail
}
