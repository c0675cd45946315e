package services_test

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/paygrid/tx_engine_app/internal/apperrors"
	"github.com/paygrid/tx_engine_app/internal/core/domain"
	portssvc "github.com/paygrid/tx_engine_app/internal/core/ports/services"
	"github.com/paygrid/tx_engine_app/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// sliceSource replays a fixed sequence of records and row errors.
type sliceSource struct {
	items []sourceItem
	pos   int
}

type sourceItem struct {
	record domain.TransactionRecord
	err    error
}

func (s *sliceSource) Next(_ context.Context) (domain.TransactionRecord, error) {
	if s.pos >= len(s.items) {
		return domain.TransactionRecord{}, io.EOF
	}
	item := s.items[s.pos]
	s.pos++
	return item.record, item.err
}

func deposit(client uint16, tx uint32, amount string) domain.TransactionRecord {
	return domain.TransactionRecord{Type: domain.Deposit, ClientID: client, TxID: tx, Amount: dec(amount)}
}

func withdrawal(client uint16, tx uint32, amount string) domain.TransactionRecord {
	return domain.TransactionRecord{Type: domain.Withdrawal, ClientID: client, TxID: tx, Amount: dec(amount)}
}

func reconciliation(kind domain.TransactionType, client uint16, tx uint32) domain.TransactionRecord {
	return domain.TransactionRecord{Type: kind, ClientID: client, TxID: tx, Amount: decimal.Zero}
}

// --- Test Suite Setup ---

type StreamProcessorTestSuite struct {
	suite.Suite
	processor portssvc.TxProcessorSvc
}

func (suite *StreamProcessorTestSuite) SetupTest() {
	ledger := services.NewLedgerService()
	suite.processor = services.NewStreamProcessor(ledger, services.NewDisputeTracker(ledger))
}

func (suite *StreamProcessorTestSuite) snapshot(client uint16) domain.AccountSnapshot {
	snap, err := suite.processor.Snapshot(client)
	suite.Require().NoError(err)
	return snap
}

func (suite *StreamProcessorTestSuite) assertBalances(client uint16, available, held string, locked bool) {
	snap := suite.snapshot(client)
	suite.True(snap.Available.Equal(dec(available)), "available: want %s got %s", available, snap.Available)
	suite.True(snap.Held.Equal(dec(held)), "held: want %s got %s", held, snap.Held)
	suite.True(snap.Total.Equal(snap.Available.Add(snap.Held)), "total must stay derived")
	suite.Equal(locked, snap.Locked)
}

// --- Test Cases ---

func (suite *StreamProcessorTestSuite) TestDepositWithdrawalFlow() {
	ctx := context.Background()

	suite.Require().NoError(suite.processor.Process(ctx, deposit(1, 1, "1.0")))
	suite.Require().NoError(suite.processor.Process(ctx, deposit(2, 2, "2.0")))
	suite.Require().NoError(suite.processor.Process(ctx, deposit(1, 3, "2.0")))
	suite.Require().NoError(suite.processor.Process(ctx, withdrawal(1, 4, "1.5")))
	suite.ErrorIs(suite.processor.Process(ctx, withdrawal(2, 5, "3.0")), apperrors.ErrInsufficientFunds)

	suite.assertBalances(1, "1.5", "0", false)
	suite.assertBalances(2, "2.0", "0", false)

	stats := suite.processor.Stats()
	suite.Equal(int64(4), stats.Applied)
	suite.Equal(int64(1), stats.InsufficientFunds)
}

func (suite *StreamProcessorTestSuite) TestDuplicateDepositTxIDRejected() {
	ctx := context.Background()
	suite.Require().NoError(suite.processor.Process(ctx, deposit(1, 1, "1.0")))

	err := suite.processor.Process(ctx, deposit(1, 1, "1.0"))
	suite.ErrorIs(err, apperrors.ErrDuplicateTransaction)

	suite.assertBalances(1, "1.0", "0", false)
	suite.Equal(int64(1), suite.processor.Stats().DuplicateTransaction)
}

func (suite *StreamProcessorTestSuite) TestMalformedRecordsRejected() {
	ctx := context.Background()

	badKind := domain.TransactionRecord{Type: "transfer", ClientID: 1, TxID: 1, Amount: dec("1")}
	suite.ErrorIs(suite.processor.Process(ctx, badKind), apperrors.ErrMalformedRecord)

	zeroAmount := domain.TransactionRecord{Type: domain.Deposit, ClientID: 1, TxID: 2, Amount: decimal.Zero}
	suite.ErrorIs(suite.processor.Process(ctx, zeroAmount), apperrors.ErrMalformedRecord)

	negative := domain.TransactionRecord{Type: domain.Withdrawal, ClientID: 1, TxID: 3, Amount: dec("-5")}
	suite.ErrorIs(suite.processor.Process(ctx, negative), apperrors.ErrMalformedRecord)

	suite.Empty(suite.processor.Snapshots())
	suite.Equal(int64(3), suite.processor.Stats().Malformed)
}

func (suite *StreamProcessorTestSuite) TestDisputeMovesExactlyTheDepositedAmount() {
	ctx := context.Background()
	suite.Require().NoError(suite.processor.Process(ctx, deposit(1, 1, "10.0")))
	suite.Require().NoError(suite.processor.Process(ctx, deposit(1, 2, "3.0")))

	suite.Require().NoError(suite.processor.Process(ctx, reconciliation(domain.Dispute, 1, 1)))

	suite.assertBalances(1, "3.0", "10.0", false)

	// Repeating the dispute while already open changes nothing.
	suite.ErrorIs(suite.processor.Process(ctx, reconciliation(domain.Dispute, 1, 1)), apperrors.ErrUnknownReference)
	suite.assertBalances(1, "3.0", "10.0", false)
}

func (suite *StreamProcessorTestSuite) TestDisputeOnWithdrawalIsNoOp() {
	ctx := context.Background()
	suite.Require().NoError(suite.processor.Process(ctx, deposit(1, 1, "10.0")))
	suite.Require().NoError(suite.processor.Process(ctx, withdrawal(1, 2, "4.0")))

	// Withdrawals never create disputable history.
	suite.ErrorIs(suite.processor.Process(ctx, reconciliation(domain.Dispute, 1, 2)), apperrors.ErrUnknownReference)
	suite.assertBalances(1, "6.0", "0", false)
}

func (suite *StreamProcessorTestSuite) TestDisputeOnNonexistentTxIsNoOp() {
	ctx := context.Background()
	suite.Require().NoError(suite.processor.Process(ctx, deposit(1, 1, "10.0")))

	suite.ErrorIs(suite.processor.Process(ctx, reconciliation(domain.Dispute, 1, 42)), apperrors.ErrUnknownReference)
	suite.assertBalances(1, "10.0", "0", false)
	suite.Equal(int64(1), suite.processor.Stats().UnknownReference)
}

func (suite *StreamProcessorTestSuite) TestFullDisputeLifecycle() {
	ctx := context.Background()

	// deposit 10.0, dispute, resolve
	suite.Require().NoError(suite.processor.Process(ctx, deposit(1, 1, "10.0")))
	suite.Require().NoError(suite.processor.Process(ctx, reconciliation(domain.Dispute, 1, 1)))
	suite.assertBalances(1, "0.0", "10.0", false)
	suite.Require().NoError(suite.processor.Process(ctx, reconciliation(domain.Resolve, 1, 1)))
	suite.assertBalances(1, "10.0", "0.0", false)

	// deposit 5.0, dispute, chargeback
	suite.Require().NoError(suite.processor.Process(ctx, deposit(1, 2, "5.0")))
	suite.Require().NoError(suite.processor.Process(ctx, reconciliation(domain.Dispute, 1, 2)))
	suite.Require().NoError(suite.processor.Process(ctx, reconciliation(domain.Chargeback, 1, 2)))
	suite.assertBalances(1, "10.0", "0.0", true)

	// the account is now locked against client-initiated records
	suite.ErrorIs(suite.processor.Process(ctx, deposit(1, 3, "1.0")), apperrors.ErrAccountLocked)
	suite.assertBalances(1, "10.0", "0.0", true)
}

func (suite *StreamProcessorTestSuite) TestReconciliationBypassesLockedAccount() {
	ctx := context.Background()
	suite.Require().NoError(suite.processor.Process(ctx, deposit(1, 1, "10.0")))
	suite.Require().NoError(suite.processor.Process(ctx, deposit(1, 2, "5.0")))

	// Chargeback tx 2 locks the account.
	suite.Require().NoError(suite.processor.Process(ctx, reconciliation(domain.Dispute, 1, 2)))
	suite.Require().NoError(suite.processor.Process(ctx, reconciliation(domain.Chargeback, 1, 2)))
	suite.assertBalances(1, "10.0", "0.0", true)

	// A dispute on a different tx still goes through.
	suite.Require().NoError(suite.processor.Process(ctx, reconciliation(domain.Dispute, 1, 1)))
	suite.assertBalances(1, "0.0", "10.0", true)
	suite.Require().NoError(suite.processor.Process(ctx, reconciliation(domain.Resolve, 1, 1)))
	suite.assertBalances(1, "10.0", "0.0", true)
}

func (suite *StreamProcessorTestSuite) TestClientMismatchedDisputeIsRejected() {
	ctx := context.Background()
	suite.Require().NoError(suite.processor.Process(ctx, deposit(1, 1, "10.0")))

	// Client 2 may not dispute client 1's deposit.
	suite.ErrorIs(suite.processor.Process(ctx, reconciliation(domain.Dispute, 2, 1)), apperrors.ErrUnknownReference)
	suite.assertBalances(1, "10.0", "0", false)
}

func (suite *StreamProcessorTestSuite) TestProcessAllContinuesPastBadRows() {
	source := &sliceSource{items: []sourceItem{
		{record: deposit(1, 1, "1.0")},
		{err: fmt.Errorf("row 2: %w", apperrors.ErrMalformedRecord)},
		{record: deposit(2, 2, "2.0")},
		{record: withdrawal(1, 3, "0.5")},
	}}

	suite.Require().NoError(suite.processor.ProcessAll(context.Background(), source))

	suite.assertBalances(1, "0.5", "0", false)
	suite.assertBalances(2, "2.0", "0", false)

	stats := suite.processor.Stats()
	suite.Equal(int64(3), stats.Applied)
	suite.Equal(int64(1), stats.Malformed)
}

func (suite *StreamProcessorTestSuite) TestAuditTrailRecordsOutcomes() {
	ctx := context.Background()
	suite.Require().NoError(suite.processor.Process(ctx, deposit(1, 1, "1.0")))
	suite.ErrorIs(suite.processor.Process(ctx, withdrawal(1, 2, "5.0")), apperrors.ErrInsufficientFunds)

	trail := suite.processor.AuditTrail()
	suite.Require().Len(trail, 2)
	suite.Equal(domain.OutcomeApplied, trail[0].Outcome)
	suite.Equal(uint32(1), trail[0].TxID)
	suite.Equal(domain.OutcomeInsufficientFunds, trail[1].Outcome)
	suite.Equal(uint32(2), trail[1].TxID)
}

func TestStreamProcessorTestSuite(t *testing.T) {
	suite.Run(t, new(StreamProcessorTestSuite))
}
