package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/paygrid/tx_engine_app/internal/apperrors"
	"github.com/paygrid/tx_engine_app/internal/core/domain"
	"github.com/paygrid/tx_engine_app/internal/core/services"
	"github.com/stretchr/testify/suite"
)

type ShardedProcessorTestSuite struct {
	suite.Suite
}

// workload builds an interleaved stream over clientCount clients where every
// client runs the same deposit, withdrawal and dispute lifecycle.
func workload(clientCount int) []sourceItem {
	var items []sourceItem
	nextTx := uint32(1)
	txFor := make(map[uint16][2]uint32)

	for c := 1; c <= clientCount; c++ {
		client := uint16(c)
		first, second := nextTx, nextTx+1
		nextTx += 2
		txFor[client] = [2]uint32{first, second}
		items = append(items,
			sourceItem{record: deposit(client, first, "100.0")},
			sourceItem{record: deposit(client, second, "40.0")},
		)
	}
	for c := 1; c <= clientCount; c++ {
		client := uint16(c)
		items = append(items,
			sourceItem{record: withdrawal(client, nextTx, "25.0")},
			sourceItem{record: reconciliation(domain.Dispute, client, txFor[client][1])},
		)
		nextTx++
	}
	return items
}

func (suite *ShardedProcessorTestSuite) TestMatchesSequentialProcessing() {
	const clients = 20
	ctx := context.Background()

	ledger := services.NewLedgerService()
	sequential := services.NewStreamProcessor(ledger, services.NewDisputeTracker(ledger))
	sharded := services.NewShardedProcessor(4)

	suite.Require().NoError(sequential.ProcessAll(ctx, &sliceSource{items: workload(clients)}))
	suite.Require().NoError(sharded.ProcessAll(ctx, &sliceSource{items: workload(clients)}))

	want := sequential.Snapshots()
	got := sharded.Snapshots()
	suite.Require().Len(got, clients)
	suite.Require().Len(got, len(want))
	for i := range want {
		suite.Equal(want[i].ClientID, got[i].ClientID)
		suite.True(want[i].Available.Equal(got[i].Available), "client %d available", want[i].ClientID)
		suite.True(want[i].Held.Equal(got[i].Held), "client %d held", want[i].ClientID)
		suite.Equal(want[i].Locked, got[i].Locked)
	}
	suite.Equal(sequential.Stats(), sharded.Stats())
}

func (suite *ShardedProcessorTestSuite) TestPerClientOrderPreserved() {
	ctx := context.Background()
	sharded := services.NewShardedProcessor(8)

	// A withdrawal before its covering deposit must bounce even when other
	// clients' records sit between the two.
	items := []sourceItem{
		{record: withdrawal(7, 1, "10.0")},
		{record: deposit(3, 2, "1.0")},
		{record: deposit(7, 3, "10.0")},
		{record: withdrawal(7, 4, "10.0")},
	}
	suite.Require().NoError(sharded.ProcessAll(ctx, &sliceSource{items: items}))

	snap, err := sharded.Snapshot(7)
	suite.Require().NoError(err)
	suite.True(snap.Available.IsZero())
	suite.Equal(int64(1), sharded.Stats().InsufficientFunds)
}

func (suite *ShardedProcessorTestSuite) TestSourceErrorsCountedOnce() {
	ctx := context.Background()
	sharded := services.NewShardedProcessor(4)

	items := []sourceItem{
		{record: deposit(1, 1, "1.0")},
		{err: fmt.Errorf("row 2: %w", apperrors.ErrMalformedRecord)},
		{err: fmt.Errorf("row 3: %w", apperrors.ErrMalformedRecord)},
		{record: deposit(2, 2, "2.0")},
	}
	suite.Require().NoError(sharded.ProcessAll(ctx, &sliceSource{items: items}))

	stats := sharded.Stats()
	suite.Equal(int64(2), stats.Applied)
	suite.Equal(int64(2), stats.Malformed)
}

func (suite *ShardedProcessorTestSuite) TestProcessRoutesByClient() {
	ctx := context.Background()
	sharded := services.NewShardedProcessor(3)

	suite.Require().NoError(sharded.Process(ctx, deposit(1, 1, "5.0")))
	suite.Require().NoError(sharded.Process(ctx, deposit(4, 2, "7.0")))
	suite.ErrorIs(sharded.Process(ctx, deposit(4, 2, "7.0")), apperrors.ErrDuplicateTransaction)

	snapshots := sharded.Snapshots()
	suite.Require().Len(snapshots, 2)
	suite.Equal(uint16(1), snapshots[0].ClientID)
	suite.Equal(uint16(4), snapshots[1].ClientID)
	suite.True(snapshots[1].Available.Equal(dec("7.0")))
}

func TestShardedProcessorTestSuite(t *testing.T) {
	suite.Run(t, new(ShardedProcessorTestSuite))
}
