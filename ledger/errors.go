/*
errors.go - Error types for the ledger

ERROR CATEGORIES:
  1. Validation errors - Rejected before any write
  2. Contention errors - Optimistic-concurrency retries exhausted
  3. Consistency errors - Account advanced but the audit record failed

Store-level errors (not found, duplicate id, version conflict) live in the
docstore package; this package wraps them with domain context.
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned when a recorder is given a non-positive amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrContention is returned when the versioned account update keeps
	// conflicting and the retry budget is exhausted.
	ErrContention = errors.New("account update contention")

	// ErrInconsistent is returned when the account write succeeded but the
	// transaction append failed. The stored balance has advanced with no
	// audit record; the recorder logs everything needed to reconcile by hand.
	ErrInconsistent = errors.New("ledger inconsistency: balance advanced without transaction record")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports an input rejected before any state was mutated.
type ValidationError struct {
	Field string
	Value decimal.Decimal
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidAmount }

// InconsistencyError carries the state needed to reconcile a half-applied
// recording manually.
type InconsistencyError struct {
	Type          TransactionType
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	ReferenceID   string
	Cause         error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("%v (type=%s amount=%s before=%s after=%s ref=%s): %v",
		ErrInconsistent, e.Type, e.Amount, e.BalanceBefore, e.BalanceAfter, e.ReferenceID, e.Cause)
}

func (e *InconsistencyError) Unwrap() error { return ErrInconsistent }

// IsValidation returns true if the error is due to invalid caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount)
}
