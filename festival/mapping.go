/*
mapping.go - Document <-> entity conversion

Documents arrive from the store as loosely-typed maps. Each entity has one
conversion pair here with deterministic defaults:
  - missing isActive means true (a document written before soft delete
    existed is an active record)
  - missing or unparsable amounts map to zero
  - missing dates map to the zero time
Unknown fields are ignored on read and never written back.
*/
package festival

import (
	"time"

	"github.com/gramsetu/festival-ledger/docstore"
)

// =============================================================================
// FAMILY
// =============================================================================

func FamilyFromDoc(doc docstore.Document) Family {
	return Family{
		ID:       doc.String("id"),
		HeadName: doc.String("headName"),
		Phone:    doc.String("phone"),
		IsActive: doc.Bool("isActive", true),
	}
}

func FamilyToDoc(f Family) docstore.Document {
	return docstore.Document{
		"id":       f.ID,
		"headName": f.HeadName,
		"phone":    f.Phone,
		"isActive": f.IsActive,
	}
}

// =============================================================================
// FESTIVAL
// =============================================================================

func FestivalFromDoc(doc docstore.Document) Festival {
	return Festival{
		ID:              doc.String("id"),
		Name:            doc.String("name"),
		Date:            doc.Time("date"),
		AmountPerFamily: doc.Decimal("amountPerFamily"),
		IsActive:        doc.Bool("isActive", true),
	}
}

func FestivalToDoc(f Festival) docstore.Document {
	return docstore.Document{
		"id":              f.ID,
		"name":            f.Name,
		"date":            f.Date.UTC().Format(time.RFC3339),
		"amountPerFamily": f.AmountPerFamily.String(),
		"isActive":        f.IsActive,
	}
}

// =============================================================================
// PAYMENT
// =============================================================================

func PaymentFromDoc(doc docstore.Document) Payment {
	return Payment{
		ID:            doc.String("id"),
		FamilyID:      doc.String("familyId"),
		FestivalID:    doc.String("festivalId"),
		Amount:        doc.Decimal("amount"),
		PaidDate:      doc.Time("paidDate"),
		Status:        paymentStatus(doc.String("status")),
		ReceiptNumber: doc.String("receiptNumber"),
	}
}

// paymentStatus normalizes unknown status strings to PENDING rather than
// propagating free text.
func paymentStatus(s string) PaymentStatus {
	switch PaymentStatus(s) {
	case StatusPaid, StatusUnpaid, StatusPending:
		return PaymentStatus(s)
	default:
		return StatusPending
	}
}

func PaymentToDoc(p Payment) docstore.Document {
	return docstore.Document{
		"id":            p.ID,
		"familyId":      p.FamilyID,
		"festivalId":    p.FestivalID,
		"amount":        p.Amount.String(),
		"paidDate":      p.PaidDate.UTC().Format(time.RFC3339),
		"status":        string(p.Status),
		"receiptNumber": p.ReceiptNumber,
	}
}

// =============================================================================
// EXPENSE
// =============================================================================

func ExpenseFromDoc(doc docstore.Document) Expense {
	return Expense{
		ID:            doc.String("id"),
		Description:   doc.String("description"),
		Amount:        doc.Decimal("amount"),
		ExpenseDate:   doc.Time("expenseDate"),
		FestivalID:    doc.String("festivalId"),
		InvoiceNumber: doc.String("invoiceNumber"),
	}
}

func ExpenseToDoc(e Expense) docstore.Document {
	return docstore.Document{
		"id":            e.ID,
		"description":   e.Description,
		"amount":        e.Amount.String(),
		"expenseDate":   e.ExpenseDate.UTC().Format(time.RFC3339),
		"festivalId":    e.FestivalID,
		"invoiceNumber": e.InvoiceNumber,
	}
}
