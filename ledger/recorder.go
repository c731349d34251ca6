/*
recorder.go - The single writer of the account and the transaction log

PURPOSE:
  RecordIncome and RecordExpense apply one balance-changing event: advance
  the account, then append the matching transaction.

CONCURRENCY:
  The account is a shared document raced on by independent requests (two
  payments recorded near-simultaneously). A naive read-then-write loses
  updates: both readers see balance B, both write B+amount, one effect is
  gone. The recorder closes this with an optimistic-concurrency retry loop:
  read the account with its version, write conditioned on that version, and
  re-read on conflict. Under any interleaving of N recorders the final
  balance is the initial balance plus the sum of all N signed amounts, with
  exactly N transactions appended.

FAILURE ORDER:
  The transaction append is attempted only after the account write succeeds,
  so a failed account write leaves no orphaned transaction. The converse
  window remains: if the append fails the balance has advanced with no audit
  record. That is surfaced as an InconsistencyError and logged with every
  field needed to reconcile manually.

OVERDRAFT:
  Expenses may drive the balance negative. That is permitted but logged at
  warning level.
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gramsetu/festival-ledger/docstore"
	"github.com/gramsetu/festival-ledger/metrics"
	"github.com/gramsetu/festival-ledger/refnum"
)

// maxAttempts bounds the optimistic-concurrency retry loop. A conflict only
// happens when another recorder's update landed first, so a call can conflict
// at most once per concurrent peer; the bound is a safety valve, not a tuning
// knob.
const maxAttempts = 64

// Recorder applies income and expense events to the ledger.
type Recorder struct {
	store   docstore.Store
	ledger  *Ledger
	numbers *refnum.Generator
	log     *slog.Logger
}

func NewRecorder(store docstore.Store, numbers *refnum.Generator, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{
		store:   store,
		ledger:  New(store),
		numbers: numbers,
		log:     log,
	}
}

// RecordIncome adds amount to the balance and appends an INCOME transaction.
// referenceID, when set, is the id of the originating payment.
func (r *Recorder) RecordIncome(ctx context.Context, amount decimal.Decimal, description, referenceID string, date time.Time) error {
	return r.record(ctx, TxIncome, amount, description, referenceID, RefPayment, date)
}

// RecordExpense subtracts amount from the balance and appends an EXPENSE
// transaction. A resulting negative balance is permitted.
func (r *Recorder) RecordExpense(ctx context.Context, amount decimal.Decimal, description, referenceID string, date time.Time) error {
	return r.record(ctx, TxExpense, amount, description, referenceID, RefExpense, date)
}

func (r *Recorder) record(ctx context.Context, txType TransactionType, amount decimal.Decimal, description, referenceID string, refType ReferenceType, date time.Time) error {
	// Fail fast, before any write.
	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Value: amount}
	}

	before, after, err := r.advanceAccount(ctx, txType, amount, date)
	if err != nil {
		metrics.RecorderFailures.Inc()
		return err
	}

	if after.IsNegative() {
		r.log.Warn("balance went negative",
			"type", txType,
			"amount", amount.String(),
			"balance", after.String(),
			"reference_id", referenceID,
		)
	}

	tx := Transaction{
		ID:            uuid.NewString(),
		Number:        r.numbers.Generate(refnum.PrefixTransaction),
		Type:          txType,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   description,
		ReferenceID:   referenceID,
		ReferenceType: refType,
		Date:          date,
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := r.store.Create(ctx, docstore.CollectionTransactions, transactionToDoc(tx)); err != nil {
		// The balance has already advanced. Log everything needed to
		// reconcile by hand; this must never be silent.
		incons := &InconsistencyError{
			Type:          txType,
			Amount:        amount,
			BalanceBefore: before,
			BalanceAfter:  after,
			ReferenceID:   referenceID,
			Cause:         err,
		}
		r.log.Error("account advanced without transaction record",
			"type", txType,
			"amount", amount.String(),
			"balance_before", before.String(),
			"balance_after", after.String(),
			"reference_id", referenceID,
			"error", err,
		)
		metrics.RecorderFailures.Inc()
		return incons
	}

	metrics.TransactionsRecorded.WithLabelValues(string(txType)).Inc()
	return nil
}

// advanceAccount moves the stored balance by the signed amount using a
// versioned update, retrying on conflict. Returns the before/after balances
// that the winning write was based on.
func (r *Recorder) advanceAccount(ctx context.Context, txType TransactionType, amount decimal.Decimal, date time.Time) (before, after decimal.Decimal, err error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		acct, err := r.ledger.Account(ctx)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}

		before = acct.Balance
		fields := docstore.Document{
			"lastTransactionDate": date.UTC().Format(time.RFC3339),
		}
		if txType == TxIncome {
			after = before.Add(amount)
			fields["totalIncome"] = acct.TotalIncome.Add(amount).String()
		} else {
			after = before.Sub(amount)
			fields["totalExpense"] = acct.TotalExpense.Add(amount).String()
		}
		fields["balance"] = after.String()

		_, err = r.store.UpdateVersioned(ctx, docstore.CollectionAccounts, AccountID, acct.Version, fields)
		if err == nil {
			return before, after, nil
		}
		if errors.Is(err, docstore.ErrVersionConflict) {
			metrics.AccountConflicts.Inc()
			continue
		}
		return decimal.Zero, decimal.Zero, fmt.Errorf("advance account: %w", err)
	}
	return decimal.Zero, decimal.Zero, fmt.Errorf("%w after %d attempts", ErrContention, maxAttempts)
}
