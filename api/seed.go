/*
seed.go - Demo dataset loader

Loads a small village dataset for local development and demos: a handful of
families, two festivals, and payments/expenses run through the normal
recorder path so the ledger stays consistent with the entities.
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gramsetu/festival-ledger/docstore"
	"github.com/gramsetu/festival-ledger/festival"
	"github.com/gramsetu/festival-ledger/refnum"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// SeedDemoData loads the demo dataset. POST /api/seed
// Idempotence is not attempted; seeding twice doubles the data. Dev only.
func (h *Handler) SeedDemoData(w http.ResponseWriter, r *http.Request) {
	if err := h.seed(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed demo data", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "seeded"})
}

func (h *Handler) seed(ctx context.Context) error {
	now := time.Now()

	families := []festival.Family{
		{ID: uuid.NewString(), HeadName: "Ramesh Sharma", Phone: "9800000001", IsActive: true},
		{ID: uuid.NewString(), HeadName: "Suresh Patil", Phone: "9800000002", IsActive: true},
		{ID: uuid.NewString(), HeadName: "Mahesh Joshi", Phone: "9800000003", IsActive: true},
		{ID: uuid.NewString(), HeadName: "Ganesh Kulkarni", Phone: "9800000004", IsActive: true},
	}
	for _, fam := range families {
		if _, err := h.Store.Create(ctx, docstore.CollectionFamilies, festival.FamilyToDoc(fam)); err != nil {
			return fmt.Errorf("seed family: %w", err)
		}
	}

	past := festival.Festival{
		ID: uuid.NewString(), Name: "Ganesh Chaturthi",
		Date:            now.AddDate(0, -1, 0),
		AmountPerFamily: dec("250"), IsActive: true,
	}
	upcoming := festival.Festival{
		ID: uuid.NewString(), Name: "Diwali",
		Date:            now.AddDate(0, 1, 0),
		AmountPerFamily: dec("300"), IsActive: true,
	}
	for _, fest := range []festival.Festival{past, upcoming} {
		if _, err := h.Store.Create(ctx, docstore.CollectionFestivals, festival.FestivalToDoc(fest)); err != nil {
			return fmt.Errorf("seed festival: %w", err)
		}
	}

	// Three of four families paid for the past festival.
	for _, fam := range families[:3] {
		p := festival.Payment{
			ID:            uuid.NewString(),
			FamilyID:      fam.ID,
			FestivalID:    past.ID,
			Amount:        past.AmountPerFamily,
			PaidDate:      past.Date.AddDate(0, 0, -3),
			Status:        festival.StatusPaid,
			ReceiptNumber: h.Numbers.Generate(refnum.PrefixReceipt),
		}
		if _, err := h.Store.Create(ctx, docstore.CollectionPayments, festival.PaymentToDoc(p)); err != nil {
			return fmt.Errorf("seed payment: %w", err)
		}
		if err := h.Recorder.RecordIncome(ctx, p.Amount, "Contribution for "+past.Name, p.ID, p.PaidDate); err != nil {
			return fmt.Errorf("seed income: %w", err)
		}
	}

	e := festival.Expense{
		ID:            uuid.NewString(),
		Description:   "Pandal and lighting",
		Amount:        dec("480"),
		ExpenseDate:   past.Date.AddDate(0, 0, -1),
		FestivalID:    past.ID,
		InvoiceNumber: h.Numbers.Generate(refnum.PrefixInvoice),
	}
	if _, err := h.Store.Create(ctx, docstore.CollectionExpenses, festival.ExpenseToDoc(e)); err != nil {
		return fmt.Errorf("seed expense: %w", err)
	}
	if err := h.Recorder.RecordExpense(ctx, e.Amount, e.Description, e.ID, e.ExpenseDate); err != nil {
		return fmt.Errorf("seed expense record: %w", err)
	}

	return nil
}
