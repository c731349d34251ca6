/*
Package ledger owns the organization's single running-balance account and its
append-only transaction log.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: The singleton balance aggregate (one per deployment)
  - Transaction: An immutable record of one balance-changing event

DESIGN PRINCIPLES:
  1. Immutability: Transactions are appended, never modified or deleted
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Auditability: Every transaction carries before/after balances and a
     reference to the payment or expense that caused it

INVARIANTS:
  - Account.Balance == TotalIncome - TotalExpense
  - Account.Balance == signed sum of all appended transaction amounts
  - Transaction: BalanceAfter == BalanceBefore + Amount (income)
                 BalanceAfter == BalanceBefore - Amount (expense)

SEE ALSO:
  - ledger.go: Account access and transaction history
  - recorder.go: The only writer of the account and the log
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gramsetu/festival-ledger/docstore"
)

// AccountID is the fixed key of the singleton account document.
// There is exactly one account per deployment.
const AccountID = "org"

// =============================================================================
// ACCOUNT - Singleton running-balance aggregate
// =============================================================================

type Account struct {
	Balance             decimal.Decimal
	TotalIncome         decimal.Decimal
	TotalExpense        decimal.Decimal
	LastTransactionDate *time.Time

	// Version is the docstore version used for optimistic concurrency.
	Version int64
}

// =============================================================================
// TRANSACTION - Immutable ledger entry
// =============================================================================

type TransactionType string

const (
	TxIncome  TransactionType = "INCOME"
	TxExpense TransactionType = "EXPENSE"
)

// ReferenceType identifies the entity that caused a transaction.
type ReferenceType string

const (
	RefPayment ReferenceType = "PAYMENT"
	RefExpense ReferenceType = "EXPENSE"
)

type Transaction struct {
	ID            string
	Number        string // human-readable TXN reference
	Type          TransactionType
	Amount        decimal.Decimal // always positive; Type carries the sign
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Description   string
	ReferenceID   string
	ReferenceType ReferenceType
	Date          time.Time // business date of the event
	CreatedAt     time.Time
}

// Signed returns the amount with the sign implied by the type.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == TxExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// =============================================================================
// DOCUMENT MAPPING
// =============================================================================

func accountFromDoc(doc docstore.Document) Account {
	acct := Account{
		Balance:      doc.Decimal("balance"),
		TotalIncome:  doc.Decimal("totalIncome"),
		TotalExpense: doc.Decimal("totalExpense"),
		Version:      doc.Int(docstore.VersionField),
	}
	if t := doc.Time("lastTransactionDate"); !t.IsZero() {
		acct.LastTransactionDate = &t
	}
	return acct
}

func newAccountDoc() docstore.Document {
	return docstore.Document{
		"id":           AccountID,
		"balance":      decimal.Zero.String(),
		"totalIncome":  decimal.Zero.String(),
		"totalExpense": decimal.Zero.String(),
	}
}

func transactionFromDoc(doc docstore.Document) Transaction {
	return Transaction{
		ID:            doc.String("id"),
		Number:        doc.String("number"),
		Type:          TransactionType(doc.String("type")),
		Amount:        doc.Decimal("amount"),
		BalanceBefore: doc.Decimal("balanceBefore"),
		BalanceAfter:  doc.Decimal("balanceAfter"),
		Description:   doc.String("description"),
		ReferenceID:   doc.String("referenceId"),
		ReferenceType: ReferenceType(doc.String("referenceType")),
		Date:          doc.Time("date"),
		CreatedAt:     doc.Time("createdAt"),
	}
}

func transactionToDoc(tx Transaction) docstore.Document {
	doc := docstore.Document{
		"id":            tx.ID,
		"number":        tx.Number,
		"type":          string(tx.Type),
		"amount":        tx.Amount.String(),
		"balanceBefore": tx.BalanceBefore.String(),
		"balanceAfter":  tx.BalanceAfter.String(),
		"description":   tx.Description,
		// RFC3339Nano keeps full timestamp precision so two transactions
		// recorded within the same second still order correctly.
		"date":          tx.Date.UTC().Format(time.RFC3339Nano),
		"createdAt":     tx.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if tx.ReferenceID != "" {
		doc["referenceId"] = tx.ReferenceID
		doc["referenceType"] = string(tx.ReferenceType)
	}
	return doc
}
