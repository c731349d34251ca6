/*
Package refnum generates human-readable reference numbers for receipts,
invoices and ledger transactions.

FORMAT:
  prefix + millisecond unix timestamp + 3-digit zero-padded random suffix

  RCP1735689600123042
  └┬┘└────┬──────┘└┬┘
   │      │        └ random 000-999
   │      └ milliseconds since epoch
   └ caller-supplied prefix

There is no persisted state and no hard uniqueness guarantee: a collision
requires two calls in the same millisecond drawing the same suffix, which is
acceptable at village-contribution volumes. Anything high-throughput needs a
stronger scheme.
*/
package refnum

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Common prefixes used across the application.
const (
	PrefixReceipt     = "RCP"
	PrefixInvoice     = "INV"
	PrefixTransaction = "TXN"
)

// Generator produces reference numbers. It is safe for concurrent use;
// a single instance is shared by every HTTP handler and the ledger
// recorder. The zero value is not usable; construct with New (or
// NewWithSource in tests).
type Generator struct {
	now func() time.Time

	mu   sync.Mutex // rand.Rand is not safe for concurrent use
	rand *rand.Rand
}

// New returns a Generator backed by the system clock and a time-seeded RNG.
func New() *Generator {
	return NewWithSource(time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithSource allows injecting the clock and RNG for deterministic tests.
func NewWithSource(now func() time.Time, r *rand.Rand) *Generator {
	return &Generator{now: now, rand: r}
}

// Generate returns prefix + millisecond timestamp + 3-digit random suffix.
// It never fails.
func (g *Generator) Generate(prefix string) string {
	g.mu.Lock()
	suffix := g.rand.Intn(1000)
	g.mu.Unlock()
	return fmt.Sprintf("%s%d%03d", prefix, g.now().UnixMilli(), suffix)
}
