/*
ledger.go - Account access and transaction history

PURPOSE:
  The Ledger reads the singleton account and the transaction log. It creates
  the account lazily on first access; all balance mutation goes through the
  Recorder (recorder.go), which is the only writer.

LAZY CREATION:
  The account document is created with zero balances on first read. Two
  concurrent first reads may both attempt the create; the loser gets
  ErrDuplicateID from the store and re-reads, so an already-advanced balance
  is never overwritten.
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gramsetu/festival-ledger/docstore"
)

// Ledger provides read access to the account and its transaction log.
type Ledger struct {
	store docstore.Store
}

func New(store docstore.Store) *Ledger {
	return &Ledger{store: store}
}

// Account returns the singleton account, creating it with zero balances on
// first call. Safe under concurrent first calls.
func (l *Ledger) Account(ctx context.Context) (Account, error) {
	doc, err := l.store.Get(ctx, docstore.CollectionAccounts, AccountID)
	if err == nil {
		return accountFromDoc(doc), nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return Account{}, fmt.Errorf("load account: %w", err)
	}

	created, err := l.store.Create(ctx, docstore.CollectionAccounts, newAccountDoc())
	if err == nil {
		return accountFromDoc(created), nil
	}
	if !errors.Is(err, docstore.ErrDuplicateID) {
		return Account{}, fmt.Errorf("initialize account: %w", err)
	}

	// Lost the creation race; the winner's document is authoritative.
	doc, err = l.store.Get(ctx, docstore.CollectionAccounts, AccountID)
	if err != nil {
		return Account{}, fmt.Errorf("load account after create race: %w", err)
	}
	return accountFromDoc(doc), nil
}

// RecentTransactions returns up to limit transactions, newest business date
// first. Ties on date break by creation time, newest first.
func (l *Ledger) RecentTransactions(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 {
		return nil, &ValidationError{Field: "limit"}
	}

	docs, err := l.store.GetAll(ctx, docstore.CollectionTransactions, nil)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	txs := make([]Transaction, len(docs))
	for i, doc := range docs {
		txs[i] = transactionFromDoc(doc)
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})

	if len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}
