package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramsetu/festival-ledger/docstore"
	"github.com/gramsetu/festival-ledger/docstore/memory"
	"github.com/gramsetu/festival-ledger/ledger"
	"github.com/gramsetu/festival-ledger/refnum"
)

// =============================================================================
// SCENARIO TESTS
// =============================================================================

func TestRecorder_IncomeThenExpense(t *testing.T) {
	// GIVEN: an account at balance 0
	// WHEN: recording income 500 then expense 150
	// THEN: balance is 350 with two mutually consistent transactions

	rec, l, _ := newTestRecorder(t)
	ctx := context.Background()
	today := time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, rec.RecordIncome(ctx, dec("500"), "festival payment", "p1", today))

	acct, err := l.Account(ctx)
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("500")))
	assert.True(t, acct.TotalIncome.Equal(dec("500")))

	require.NoError(t, rec.RecordExpense(ctx, dec("150"), "tent rental", "e1", today))

	acct, err = l.Account(ctx)
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("350")))
	assert.True(t, acct.TotalExpense.Equal(dec("150")))
	assert.True(t, acct.Balance.Equal(acct.TotalIncome.Sub(acct.TotalExpense)))
	require.NotNil(t, acct.LastTransactionDate)

	txs, err := l.RecentTransactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	// First recorded transaction: 0 -> 500.
	first := txs[1]
	assert.Equal(t, ledger.TxIncome, first.Type)
	assert.True(t, first.BalanceBefore.IsZero())
	assert.True(t, first.BalanceAfter.Equal(dec("500")))
	assert.Equal(t, "p1", first.ReferenceID)
	assert.Equal(t, ledger.RefPayment, first.ReferenceType)
	assert.Regexp(t, `^TXN\d{13,}\d{3}$`, first.Number)
}

func TestRecorder_SameSecondRecordings_KeepRecordingOrder(t *testing.T) {
	// GIVEN: several transactions on the same business date, recorded
	// back-to-back within the same wall-clock second
	// THEN: RecentTransactions still returns them newest-recorded first;
	// stored timestamps must keep sub-second precision for the tie-break

	rec, l, _ := newTestRecorder(t)
	ctx := context.Background()
	today := time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, rec.RecordIncome(ctx, dec("10"), fmt.Sprintf("batch %d", i), "", today))
	}

	txs, err := l.RecentTransactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, txs, 5)

	for i, tx := range txs {
		assert.Equal(t, fmt.Sprintf("batch %d", 4-i), tx.Description)
	}
	for i := 1; i < len(txs); i++ {
		assert.False(t, txs[i].CreatedAt.After(txs[i-1].CreatedAt))
	}
}

func TestRecorder_TransactionArithmetic(t *testing.T) {
	rec, l, _ := newTestRecorder(t)
	ctx := context.Background()
	now := time.Now()

	amounts := []string{"10", "25.50", "3.33", "100"}
	require.NoError(t, rec.RecordIncome(ctx, dec(amounts[0]), "a", "", now))
	require.NoError(t, rec.RecordExpense(ctx, dec(amounts[1]), "b", "", now))
	require.NoError(t, rec.RecordIncome(ctx, dec(amounts[2]), "c", "", now))
	require.NoError(t, rec.RecordExpense(ctx, dec(amounts[3]), "d", "", now))

	txs, err := l.RecentTransactions(ctx, 100)
	require.NoError(t, err)
	require.Len(t, txs, 4)

	sum := decimal.Zero
	for _, tx := range txs {
		sum = sum.Add(tx.Signed())
		if tx.Type == ledger.TxIncome {
			assert.True(t, tx.BalanceAfter.Sub(tx.BalanceBefore).Equal(tx.Amount))
		} else {
			assert.True(t, tx.BalanceBefore.Sub(tx.BalanceAfter).Equal(tx.Amount))
		}
	}

	acct, err := l.Account(ctx)
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(sum), "balance %s != signed sum %s", acct.Balance, sum)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestRecorder_RejectsNonPositiveAmounts(t *testing.T) {
	rec, l, _ := newTestRecorder(t)
	ctx := context.Background()

	for _, amount := range []string{"0", "-1", "-0.01"} {
		err := rec.RecordIncome(ctx, dec(amount), "bad", "", time.Now())
		assert.Error(t, err, "amount %s", amount)
		assert.True(t, ledger.IsValidation(err))

		var vErr *ledger.ValidationError
		assert.ErrorAs(t, err, &vErr)
		assert.Equal(t, "amount", vErr.Field)
	}

	// Nothing was written.
	txs, err := l.RecentTransactions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestRecorder_OverdraftPermitted(t *testing.T) {
	// Expenses may drive the balance negative; that is logged, not rejected.
	rec, l, _ := newTestRecorder(t)
	ctx := context.Background()

	require.NoError(t, rec.RecordExpense(ctx, dec("75"), "advance tent booking", "e1", time.Now()))

	acct, err := l.Account(ctx)
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("-75")))
}

// =============================================================================
// CONCURRENCY - No lost updates
// =============================================================================

func TestRecorder_ConcurrentIncomes_NoLostUpdates(t *testing.T) {
	// GIVEN: balance 0
	// WHEN: N recorders run concurrently
	// THEN: final balance is the sum of all amounts with exactly N transactions

	rec, l, _ := newTestRecorder(t)
	ctx := context.Background()
	const n = 50

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- rec.RecordIncome(ctx, dec("100"), fmt.Sprintf("payment %d", i), "", time.Now())
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	acct, err := l.Account(ctx)
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("5000")), "balance was %s", acct.Balance)

	txs, err := l.RecentTransactions(ctx, n+1)
	require.NoError(t, err)
	assert.Len(t, txs, n)
}

func TestRecorder_ConcurrentMixed_BalanceReconcilesFromLog(t *testing.T) {
	rec, l, _ := newTestRecorder(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = rec.RecordIncome(ctx, dec("100"), "in", "", time.Now())
			} else {
				_ = rec.RecordExpense(ctx, dec("40"), "out", "", time.Now())
			}
		}(i)
	}
	wg.Wait()

	txs, err := l.RecentTransactions(ctx, 100)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, tx := range txs {
		sum = sum.Add(tx.Signed())
	}
	acct, err := l.Account(ctx)
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(sum), "balance %s not reconcilable from log sum %s", acct.Balance, sum)
}

// =============================================================================
// FAILURE WINDOW - Account advanced, append failed
// =============================================================================

// failingAppendStore fails every Create into the transactions collection.
type failingAppendStore struct {
	docstore.Store
}

func (f *failingAppendStore) Create(ctx context.Context, collection string, doc docstore.Document) (docstore.Document, error) {
	if collection == docstore.CollectionTransactions {
		return nil, errors.New("store unavailable")
	}
	return f.Store.Create(ctx, collection, doc)
}

func TestRecorder_AppendFailure_SurfacesInconsistency(t *testing.T) {
	// GIVEN: a store that accepts the account write but rejects the append
	// WHEN: recording income
	// THEN: an InconsistencyError carrying the advanced balances is returned

	store := &failingAppendStore{Store: memory.New()}
	rec := ledger.NewRecorder(store, refnum.New(), nil)
	ctx := context.Background()

	err := rec.RecordIncome(ctx, dec("500"), "festival payment", "p1", time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrInconsistent)

	var incons *ledger.InconsistencyError
	require.ErrorAs(t, err, &incons)
	assert.True(t, incons.BalanceBefore.IsZero())
	assert.True(t, incons.BalanceAfter.Equal(dec("500")))
	assert.Equal(t, "p1", incons.ReferenceID)

	// The balance did advance; the error is the audit trail.
	acct, aerr := ledger.New(store).Account(ctx)
	require.NoError(t, aerr)
	assert.True(t, acct.Balance.Equal(dec("500")))
}
