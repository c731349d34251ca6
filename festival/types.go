/*
Package festival holds the contribution-domain entities and the two read-only
engines built over them: the reconciliation report and the dashboard.

KEY CONCEPTS IN THIS FILE (types.go):
  - Family:   A contributing household (soft-deleted via IsActive)
  - Festival: An event with a per-family contribution amount
  - Payment:  One family's contribution toward one festival
  - Expense:  Money spent, optionally tied to a festival

The entity collections are owned by the CRUD layer; this package consumes
them read-only. Only the ledger package mutates the account.

SEE ALSO:
  - mapping.go:   Document <-> entity conversion
  - report.go:    Per-festival reconciliation report
  - dashboard.go: Organization-wide snapshot
*/
package festival

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENTITIES
// =============================================================================

type Family struct {
	ID       string
	HeadName string
	Phone    string
	IsActive bool
}

type Festival struct {
	ID              string
	Name            string
	Date            time.Time
	AmountPerFamily decimal.Decimal
	IsActive        bool
}

type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "PAID"
	StatusUnpaid  PaymentStatus = "UNPAID"
	StatusPending PaymentStatus = "PENDING"
)

type Payment struct {
	ID            string
	FamilyID      string
	FestivalID    string
	Amount        decimal.Decimal
	PaidDate      time.Time
	Status        PaymentStatus
	ReceiptNumber string
}

type Expense struct {
	ID            string
	Description   string
	Amount        decimal.Decimal
	ExpenseDate   time.Time
	FestivalID    string
	InvoiceNumber string
}

// =============================================================================
// COMPUTED VIEWS (never persisted)
// =============================================================================

// UnknownFamilyName is rendered for payment rows whose family no longer
// exists or is inactive. The row still counts into collected totals.
const UnknownFamilyName = "Unknown"

// PaymentRow is one line of a festival report.
type PaymentRow struct {
	FamilyName string
	Amount     decimal.Decimal
	PaidDate   time.Time
	Status     PaymentStatus
}

// FestivalReport reconciles one festival's expected collection against the
// payments actually recorded. Computed on read; PendingAmount may be
// negative when families overpay.
type FestivalReport struct {
	FestivalID   string
	FestivalName string
	FestivalDate time.Time

	TotalFamilies  int
	PaidFamilies   int
	UnpaidFamilies int

	// TotalAmount is the expected collection: active families x amount per
	// family, independent of what was actually recorded.
	TotalAmount     decimal.Decimal
	CollectedAmount decimal.Decimal
	PendingAmount   decimal.Decimal

	// CollectionRate is CollectedAmount/TotalAmount as a percentage,
	// 0 when TotalAmount is zero.
	CollectionRate decimal.Decimal

	Payments []PaymentRow
}
