/*
dashboard.go - Organization-wide snapshot

PURPOSE:
  One point-in-time view across families, festivals, payments, expenses and
  the ledger account, assembled on every dashboard load.

DEGRADE INDEPENDENTLY:
  Each sub-fetch is attempted on its own. A failed fetch logs a warning and
  zeroes that section instead of failing the whole snapshot; a dashboard
  with a missing section beats no dashboard. This is what distinguishes the
  aggregator from a single atomic read.

TIME:
  "This year" and "upcoming" are evaluated against the injected clock at
  call time. Nothing is cached.
*/
package festival

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gramsetu/festival-ledger/docstore"
	"github.com/gramsetu/festival-ledger/ledger"
	"github.com/gramsetu/festival-ledger/metrics"
)

// Snapshot is the dashboard payload. Ephemeral, never persisted.
type Snapshot struct {
	TotalFamilies  int
	ActiveFamilies int

	TotalFestivals    int
	ActiveFestivals   int
	UpcomingFestivals []Festival

	TotalCollectionThisYear decimal.Decimal
	TotalExpenseThisYear    decimal.Decimal
	PendingPayments         int

	CurrentBalance decimal.Decimal

	RecentPayments     []Payment
	RecentTransactions []ledger.Transaction
}

// AggregatorConfig bounds the "recent"/"upcoming" lists.
type AggregatorConfig struct {
	UpcomingFestivalsLimit  int // default 5
	RecentPaymentsLimit     int // default 10
	RecentTransactionsLimit int // default 10
}

func (c AggregatorConfig) withDefaults() AggregatorConfig {
	if c.UpcomingFestivalsLimit <= 0 {
		c.UpcomingFestivalsLimit = 5
	}
	if c.RecentPaymentsLimit <= 0 {
		c.RecentPaymentsLimit = 10
	}
	if c.RecentTransactionsLimit <= 0 {
		c.RecentTransactionsLimit = 10
	}
	return c
}

// Aggregator assembles dashboard snapshots.
type Aggregator struct {
	store  docstore.Store
	ledger *ledger.Ledger
	cfg    AggregatorConfig
	now    func() time.Time
	log    *slog.Logger
}

func NewAggregator(store docstore.Store, l *ledger.Ledger, cfg AggregatorConfig, log *slog.Logger) *Aggregator {
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{
		store:  store,
		ledger: l,
		cfg:    cfg.withDefaults(),
		now:    time.Now,
		log:    log,
	}
}

// WithClock overrides the clock. For tests.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Snapshot assembles the dashboard. It never returns an error: every failed
// sub-fetch degrades its own section to zero/empty.
func (a *Aggregator) Snapshot(ctx context.Context) Snapshot {
	now := a.now()
	var snap Snapshot

	if docs, ok := a.fetch(ctx, docstore.CollectionFamilies, "families"); ok {
		snap.TotalFamilies = len(docs)
		for _, doc := range docs {
			if FamilyFromDoc(doc).IsActive {
				snap.ActiveFamilies++
			}
		}
	}

	if docs, ok := a.fetch(ctx, docstore.CollectionFestivals, "festivals"); ok {
		snap.TotalFestivals = len(docs)
		var upcoming []Festival
		for _, doc := range docs {
			f := FestivalFromDoc(doc)
			if f.IsActive {
				snap.ActiveFestivals++
				if !f.Date.Before(now) {
					upcoming = append(upcoming, f)
				}
			}
		}
		sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].Date.Before(upcoming[j].Date) })
		if len(upcoming) > a.cfg.UpcomingFestivalsLimit {
			upcoming = upcoming[:a.cfg.UpcomingFestivalsLimit]
		}
		snap.UpcomingFestivals = upcoming
	}

	if docs, ok := a.fetch(ctx, docstore.CollectionPayments, "payments"); ok {
		payments := make([]Payment, len(docs))
		for i, doc := range docs {
			payments[i] = PaymentFromDoc(doc)
		}
		snap.TotalCollectionThisYear = sumPaymentsInYear(payments, now.Year())
		for _, p := range payments {
			if p.Status != StatusPaid {
				snap.PendingPayments++
			}
		}
		sort.Slice(payments, func(i, j int) bool { return payments[i].PaidDate.After(payments[j].PaidDate) })
		if len(payments) > a.cfg.RecentPaymentsLimit {
			payments = payments[:a.cfg.RecentPaymentsLimit]
		}
		snap.RecentPayments = payments
	} else {
		snap.TotalCollectionThisYear = decimal.Zero
	}

	if docs, ok := a.fetch(ctx, docstore.CollectionExpenses, "expenses"); ok {
		total := decimal.Zero
		for _, doc := range docs {
			e := ExpenseFromDoc(doc)
			if e.ExpenseDate.Year() == now.Year() {
				total = total.Add(e.Amount)
			}
		}
		snap.TotalExpenseThisYear = total
	} else {
		snap.TotalExpenseThisYear = decimal.Zero
	}

	if acct, err := a.ledger.Account(ctx); err != nil {
		a.degrade("account", err)
		snap.CurrentBalance = decimal.Zero
	} else {
		snap.CurrentBalance = acct.Balance
	}

	if txs, err := a.ledger.RecentTransactions(ctx, a.cfg.RecentTransactionsLimit); err != nil {
		a.degrade("transactions", err)
	} else {
		snap.RecentTransactions = txs
	}

	return snap
}

func (a *Aggregator) fetch(ctx context.Context, collection, section string) ([]docstore.Document, bool) {
	docs, err := a.store.GetAll(ctx, collection, nil)
	if err != nil {
		a.degrade(section, err)
		return nil, false
	}
	return docs, true
}

func (a *Aggregator) degrade(section string, err error) {
	a.log.Warn("dashboard section degraded", "section", section, "error", err)
	metrics.DashboardDegraded.WithLabelValues(section).Inc()
}

func sumPaymentsInYear(payments []Payment, year int) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.Status == StatusPaid && p.PaidDate.Year() == year {
			total = total.Add(p.Amount)
		}
	}
	return total
}
