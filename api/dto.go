/*
dto.go - Data Transfer Objects for API requests and responses

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

Amounts are serialized as decimal strings; dates as YYYY-MM-DD for business
dates and RFC3339 for timestamps. Validation happens in handlers; DTOs are
pure data carriers.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gramsetu/festival-ledger/festival"
	"github.com/gramsetu/festival-ledger/ledger"
)

const dateLayout = "2006-01-02"

// =============================================================================
// FAMILIES
// =============================================================================

type FamilyDTO struct {
	ID       string `json:"id"`
	HeadName string `json:"head_name"`
	Phone    string `json:"phone,omitempty"`
	IsActive bool   `json:"is_active"`
}

type CreateFamilyRequest struct {
	HeadName string `json:"head_name"`
	Phone    string `json:"phone"`
}

type UpdateFamilyRequest struct {
	HeadName *string `json:"head_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func toFamilyDTO(f festival.Family) FamilyDTO {
	return FamilyDTO{ID: f.ID, HeadName: f.HeadName, Phone: f.Phone, IsActive: f.IsActive}
}

// =============================================================================
// FESTIVALS
// =============================================================================

type FestivalDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Date            string `json:"date"`
	AmountPerFamily string `json:"amount_per_family"`
	IsActive        bool   `json:"is_active"`
}

type CreateFestivalRequest struct {
	Name            string `json:"name"`
	Date            string `json:"date"`
	AmountPerFamily string `json:"amount_per_family"`
}

func toFestivalDTO(f festival.Festival) FestivalDTO {
	return FestivalDTO{
		ID:              f.ID,
		Name:            f.Name,
		Date:            f.Date.Format(dateLayout),
		AmountPerFamily: f.AmountPerFamily.String(),
		IsActive:        f.IsActive,
	}
}

// =============================================================================
// PAYMENTS & EXPENSES
// =============================================================================

type PaymentDTO struct {
	ID            string `json:"id"`
	FamilyID      string `json:"family_id"`
	FestivalID    string `json:"festival_id"`
	Amount        string `json:"amount"`
	PaidDate      string `json:"paid_date"`
	Status        string `json:"status"`
	ReceiptNumber string `json:"receipt_number,omitempty"`
}

type CreatePaymentRequest struct {
	FamilyID   string `json:"family_id"`
	FestivalID string `json:"festival_id"`
	Amount     string `json:"amount"`
	PaidDate   string `json:"paid_date"`
	Status     string `json:"status"`
}

type UpdatePaymentStatusRequest struct {
	Status string `json:"status"`
}

func toPaymentDTO(p festival.Payment) PaymentDTO {
	return PaymentDTO{
		ID:            p.ID,
		FamilyID:      p.FamilyID,
		FestivalID:    p.FestivalID,
		Amount:        p.Amount.String(),
		PaidDate:      p.PaidDate.Format(dateLayout),
		Status:        string(p.Status),
		ReceiptNumber: p.ReceiptNumber,
	}
}

type ExpenseDTO struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	ExpenseDate   string `json:"expense_date"`
	FestivalID    string `json:"festival_id,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
}

type CreateExpenseRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	ExpenseDate string `json:"expense_date"`
	FestivalID  string `json:"festival_id"`
}

func toExpenseDTO(e festival.Expense) ExpenseDTO {
	return ExpenseDTO{
		ID:            e.ID,
		Description:   e.Description,
		Amount:        e.Amount.String(),
		ExpenseDate:   e.ExpenseDate.Format(dateLayout),
		FestivalID:    e.FestivalID,
		InvoiceNumber: e.InvoiceNumber,
	}
}

// =============================================================================
// LEDGER
// =============================================================================

type AccountDTO struct {
	Balance             string  `json:"balance"`
	TotalIncome         string  `json:"total_income"`
	TotalExpense        string  `json:"total_expense"`
	LastTransactionDate *string `json:"last_transaction_date,omitempty"`
}

type TransactionDTO struct {
	ID            string `json:"id"`
	Number        string `json:"number"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	BalanceBefore string `json:"balance_before"`
	BalanceAfter  string `json:"balance_after"`
	Description   string `json:"description"`
	ReferenceID   string `json:"reference_id,omitempty"`
	ReferenceType string `json:"reference_type,omitempty"`
	Date          string `json:"date"`
	CreatedAt     string `json:"created_at"`
}

func toAccountDTO(a ledger.Account) AccountDTO {
	dto := AccountDTO{
		Balance:      a.Balance.String(),
		TotalIncome:  a.TotalIncome.String(),
		TotalExpense: a.TotalExpense.String(),
	}
	if a.LastTransactionDate != nil {
		s := a.LastTransactionDate.Format(time.RFC3339)
		dto.LastTransactionDate = &s
	}
	return dto
}

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:            tx.ID,
		Number:        tx.Number,
		Type:          string(tx.Type),
		Amount:        tx.Amount.String(),
		BalanceBefore: tx.BalanceBefore.String(),
		BalanceAfter:  tx.BalanceAfter.String(),
		Description:   tx.Description,
		ReferenceID:   tx.ReferenceID,
		ReferenceType: string(tx.ReferenceType),
		Date:          tx.Date.Format(dateLayout),
		CreatedAt:     tx.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// REPORT & DASHBOARD
// =============================================================================

type PaymentRowDTO struct {
	FamilyName string `json:"family_name"`
	Amount     string `json:"amount"`
	PaidDate   string `json:"paid_date"`
	Status     string `json:"status"`
}

type FestivalReportDTO struct {
	FestivalID      string          `json:"festival_id"`
	FestivalName    string          `json:"festival_name"`
	FestivalDate    string          `json:"festival_date"`
	TotalFamilies   int             `json:"total_families"`
	PaidFamilies    int             `json:"paid_families"`
	UnpaidFamilies  int             `json:"unpaid_families"`
	TotalAmount     string          `json:"total_amount"`
	CollectedAmount string          `json:"collected_amount"`
	PendingAmount   string          `json:"pending_amount"`
	CollectionRate  string          `json:"collection_rate"`
	Payments        []PaymentRowDTO `json:"payments"`
}

func toReportDTO(r festival.FestivalReport) FestivalReportDTO {
	rows := make([]PaymentRowDTO, len(r.Payments))
	for i, row := range r.Payments {
		rows[i] = PaymentRowDTO{
			FamilyName: row.FamilyName,
			Amount:     row.Amount.String(),
			PaidDate:   row.PaidDate.Format(dateLayout),
			Status:     string(row.Status),
		}
	}
	return FestivalReportDTO{
		FestivalID:      r.FestivalID,
		FestivalName:    r.FestivalName,
		FestivalDate:    r.FestivalDate.Format(dateLayout),
		TotalFamilies:   r.TotalFamilies,
		PaidFamilies:    r.PaidFamilies,
		UnpaidFamilies:  r.UnpaidFamilies,
		TotalAmount:     r.TotalAmount.String(),
		CollectedAmount: r.CollectedAmount.String(),
		PendingAmount:   r.PendingAmount.String(),
		CollectionRate:  r.CollectionRate.Round(2).String(),
		Payments:        rows,
	}
}

type DashboardDTO struct {
	TotalFamilies           int              `json:"total_families"`
	ActiveFamilies          int              `json:"active_families"`
	TotalFestivals          int              `json:"total_festivals"`
	ActiveFestivals         int              `json:"active_festivals"`
	UpcomingFestivals       []FestivalDTO    `json:"upcoming_festivals"`
	TotalCollectionThisYear string           `json:"total_collection_this_year"`
	TotalExpenseThisYear    string           `json:"total_expense_this_year"`
	PendingPayments         int              `json:"pending_payments"`
	CurrentBalance          string           `json:"current_balance"`
	RecentPayments          []PaymentDTO     `json:"recent_payments"`
	RecentTransactions      []TransactionDTO `json:"recent_transactions"`
}

func toDashboardDTO(s festival.Snapshot) DashboardDTO {
	upcoming := make([]FestivalDTO, len(s.UpcomingFestivals))
	for i, f := range s.UpcomingFestivals {
		upcoming[i] = toFestivalDTO(f)
	}
	payments := make([]PaymentDTO, len(s.RecentPayments))
	for i, p := range s.RecentPayments {
		payments[i] = toPaymentDTO(p)
	}
	txs := make([]TransactionDTO, len(s.RecentTransactions))
	for i, tx := range s.RecentTransactions {
		txs[i] = toTransactionDTO(tx)
	}
	return DashboardDTO{
		TotalFamilies:           s.TotalFamilies,
		ActiveFamilies:          s.ActiveFamilies,
		TotalFestivals:          s.TotalFestivals,
		ActiveFestivals:         s.ActiveFestivals,
		UpcomingFestivals:       upcoming,
		TotalCollectionThisYear: s.TotalCollectionThisYear.String(),
		TotalExpenseThisYear:    s.TotalExpenseThisYear.String(),
		PendingPayments:         s.PendingPayments,
		CurrentBalance:          s.CurrentBalance.String(),
		RecentPayments:          payments,
		RecentTransactions:      txs,
	}
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// parseAmount parses a decimal amount from a request body field.
func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// parseDate parses a YYYY-MM-DD business date.
func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
