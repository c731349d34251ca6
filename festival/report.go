/*
report.go - Per-festival reconciliation report

PURPOSE:
  Cross-references three independently-updated collections (families,
  festivals, payments), which have no relational join, to answer: which
  active families have paid for this festival, and how does the collected
  amount compare to the expected one?

RECONCILIATION RULES:
  - A family counts as paid when it has at least one PAID payment for the
    festival. Multiple payments (correction re-payments) count once.
  - CollectedAmount sums EVERY PAID payment, not deduplicated by family, so
    an over-collecting family pushes PendingAmount negative. That is the
    observed bookkeeping behavior and is preserved, not clamped.
  - TotalAmount is the expectation: active families x amountPerFamily.
  - A payment whose family is gone or inactive renders as "Unknown" but
    still sums into CollectedAmount (orphaned payments stay visible).

The report is ephemeral: computed on every read, never persisted.
*/
package festival

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gramsetu/festival-ledger/docstore"
	"github.com/gramsetu/festival-ledger/metrics"
)

var hundred = decimal.NewFromInt(100)

// ReportEngine builds festival reconciliation reports.
type ReportEngine struct {
	store docstore.Store
	log   *slog.Logger
}

func NewReportEngine(store docstore.Store, log *slog.Logger) *ReportEngine {
	if log == nil {
		log = slog.Default()
	}
	return &ReportEngine{store: store, log: log}
}

// BuildFestivalReport computes the reconciliation report for one festival.
// A missing festival is a hard error; there is no meaningful report without it.
func (e *ReportEngine) BuildFestivalReport(ctx context.Context, festivalID string) (FestivalReport, error) {
	festDoc, err := e.store.Get(ctx, docstore.CollectionFestivals, festivalID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return FestivalReport{}, &NotFoundError{Kind: "festival", ID: festivalID}
		}
		return FestivalReport{}, fmt.Errorf("load festival %s: %w", festivalID, err)
	}
	fest := FestivalFromDoc(festDoc)

	// isActive defaults to true for documents that predate soft delete, so
	// active families are filtered here rather than in the store.
	famDocs, err := e.store.GetAll(ctx, docstore.CollectionFamilies, nil)
	if err != nil {
		return FestivalReport{}, fmt.Errorf("load families: %w", err)
	}
	activeFamilies := make(map[string]Family)
	for _, doc := range famDocs {
		f := FamilyFromDoc(doc)
		if f.IsActive {
			activeFamilies[f.ID] = f
		}
	}

	payDocs, err := e.store.GetAll(ctx, docstore.CollectionPayments, docstore.Filter{"festivalId": festivalID})
	if err != nil {
		return FestivalReport{}, fmt.Errorf("load payments for festival %s: %w", festivalID, err)
	}

	paidSet := make(map[string]bool)
	collected := decimal.Zero
	rows := make([]PaymentRow, 0, len(payDocs))
	for _, doc := range payDocs {
		p := PaymentFromDoc(doc)

		name := UnknownFamilyName
		if fam, ok := activeFamilies[p.FamilyID]; ok {
			name = fam.HeadName
		}
		rows = append(rows, PaymentRow{
			FamilyName: name,
			Amount:     p.Amount,
			PaidDate:   p.PaidDate,
			Status:     p.Status,
		})

		if p.Status == StatusPaid {
			collected = collected.Add(p.Amount)
			if _, ok := activeFamilies[p.FamilyID]; ok {
				paidSet[p.FamilyID] = true
			}
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].PaidDate.Equal(rows[j].PaidDate) {
			return rows[i].PaidDate.Before(rows[j].PaidDate)
		}
		return rows[i].FamilyName < rows[j].FamilyName
	})

	totalFamilies := len(activeFamilies)
	total := fest.AmountPerFamily.Mul(decimal.NewFromInt(int64(totalFamilies)))

	// Guard: zero expectation yields a 0% rate, never NaN/Infinity.
	rate := decimal.Zero
	if total.IsPositive() {
		rate = collected.Div(total).Mul(hundred)
	}

	metrics.ReportBuilds.Inc()
	return FestivalReport{
		FestivalID:      fest.ID,
		FestivalName:    fest.Name,
		FestivalDate:    fest.Date,
		TotalFamilies:   totalFamilies,
		PaidFamilies:    len(paidSet),
		UnpaidFamilies:  totalFamilies - len(paidSet),
		TotalAmount:     total,
		CollectedAmount: collected,
		PendingAmount:   total.Sub(collected),
		CollectionRate:  rate,
		Payments:        rows,
	}, nil
}
