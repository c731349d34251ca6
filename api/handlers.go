/*
handlers.go - HTTP handlers for the festival-contribution application

STRUCTURE:
  Each handler follows the same pattern:
  1. Parse and validate input
  2. Call domain logic (docstore, ledger, report engine, aggregator)
  3. Serialize response
  4. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 500: Internal errors

LEDGER AS SECONDARY EFFECT:
  Creating a PAID payment (or any expense) records the event on the ledger
  AFTER the entity write succeeded. A recorder failure is logged and counted
  but never turns an already-successful creation into a client-facing error;
  the entity exists either way and the ledger is reconciled operationally.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gramsetu/festival-ledger/docstore"
	"github.com/gramsetu/festival-ledger/festival"
	"github.com/gramsetu/festival-ledger/ledger"
	"github.com/gramsetu/festival-ledger/refnum"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     docstore.Store
	Ledger    *ledger.Ledger
	Recorder  *ledger.Recorder
	Reports   *festival.ReportEngine
	Dashboard *festival.Aggregator
	Numbers   *refnum.Generator

	log *slog.Logger
}

// NewHandler wires the handler with the given store and dashboard limits.
func NewHandler(store docstore.Store, cfg festival.AggregatorConfig, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	numbers := refnum.New()
	l := ledger.New(store)
	return &Handler{
		Store:     store,
		Ledger:    l,
		Recorder:  ledger.NewRecorder(store, numbers, log),
		Reports:   festival.NewReportEngine(store, log),
		Dashboard: festival.NewAggregator(store, l, cfg, log),
		Numbers:   numbers,
		log:       log,
	}
}

// =============================================================================
// FAMILY HANDLERS
// =============================================================================

// ListFamilies returns all families. GET /api/families
func (h *Handler) ListFamilies(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Store.GetAll(r.Context(), docstore.CollectionFamilies, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list families", err)
		return
	}
	dtos := make([]FamilyDTO, len(docs))
	for i, doc := range docs {
		dtos[i] = toFamilyDTO(festival.FamilyFromDoc(doc))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateFamily creates a family. POST /api/families
func (h *Handler) CreateFamily(w http.ResponseWriter, r *http.Request) {
	var req CreateFamilyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.HeadName == "" {
		writeError(w, http.StatusBadRequest, "head_name is required", nil)
		return
	}

	fam := festival.Family{
		ID:       uuid.NewString(),
		HeadName: req.HeadName,
		Phone:    req.Phone,
		IsActive: true,
	}
	if _, err := h.Store.Create(r.Context(), docstore.CollectionFamilies, festival.FamilyToDoc(fam)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create family", err)
		return
	}
	writeJSON(w, http.StatusCreated, toFamilyDTO(fam))
}

// GetFamily returns a single family. GET /api/families/{id}
func (h *Handler) GetFamily(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := h.Store.Get(r.Context(), docstore.CollectionFamilies, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Family not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get family", err)
		return
	}
	writeJSON(w, http.StatusOK, toFamilyDTO(festival.FamilyFromDoc(doc)))
}

// UpdateFamily merges the given fields. PUT /api/families/{id}
func (h *Handler) UpdateFamily(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateFamilyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	fields := docstore.Document{}
	if req.HeadName != nil {
		fields["headName"] = *req.HeadName
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.IsActive != nil {
		fields["isActive"] = *req.IsActive
	}

	doc, err := h.Store.Update(r.Context(), docstore.CollectionFamilies, id, fields)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Family not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update family", err)
		return
	}
	writeJSON(w, http.StatusOK, toFamilyDTO(festival.FamilyFromDoc(doc)))
}

// DeleteFamily soft-deletes a family. DELETE /api/families/{id}
// Historical payments keep referencing the id; reports render them as Unknown.
func (h *Handler) DeleteFamily(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, err := h.Store.Update(r.Context(), docstore.CollectionFamilies, id, docstore.Document{"isActive": false})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Family not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete family", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// FESTIVAL HANDLERS
// =============================================================================

// ListFestivals returns all festivals. GET /api/festivals
func (h *Handler) ListFestivals(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Store.GetAll(r.Context(), docstore.CollectionFestivals, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list festivals", err)
		return
	}
	dtos := make([]FestivalDTO, len(docs))
	for i, doc := range docs {
		dtos[i] = toFestivalDTO(festival.FestivalFromDoc(doc))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateFestival creates a festival. POST /api/festivals
func (h *Handler) CreateFestival(w http.ResponseWriter, r *http.Request) {
	var req CreateFestivalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	perFamily, err := parseAmount(req.AmountPerFamily)
	if err != nil || perFamily.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid amount_per_family", err)
		return
	}

	fest := festival.Festival{
		ID:              uuid.NewString(),
		Name:            req.Name,
		Date:            date,
		AmountPerFamily: perFamily,
		IsActive:        true,
	}
	if _, err := h.Store.Create(r.Context(), docstore.CollectionFestivals, festival.FestivalToDoc(fest)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create festival", err)
		return
	}
	writeJSON(w, http.StatusCreated, toFestivalDTO(fest))
}

// GetFestival returns a single festival. GET /api/festivals/{id}
func (h *Handler) GetFestival(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := h.Store.Get(r.Context(), docstore.CollectionFestivals, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Festival not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get festival", err)
		return
	}
	writeJSON(w, http.StatusOK, toFestivalDTO(festival.FestivalFromDoc(doc)))
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// ListPayments returns payments, optionally filtered by festival_id.
// GET /api/payments?festival_id=...
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	var filter docstore.Filter
	if festivalID := r.URL.Query().Get("festival_id"); festivalID != "" {
		filter = docstore.Filter{"festivalId": festivalID}
	}
	docs, err := h.Store.GetAll(r.Context(), docstore.CollectionPayments, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}
	dtos := make([]PaymentDTO, len(docs))
	for i, doc := range docs {
		dtos[i] = toPaymentDTO(festival.PaymentFromDoc(doc))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePayment creates a payment and, when it is PAID, records the income
// on the ledger as a secondary effect. POST /api/payments
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.FamilyID == "" || req.FestivalID == "" {
		writeError(w, http.StatusBadRequest, "family_id and festival_id are required", nil)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil || !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	paidDate, err := parseDate(req.PaidDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid paid_date format (use YYYY-MM-DD)", err)
		return
	}
	status := festival.PaymentStatus(req.Status)
	switch status {
	case festival.StatusPaid, festival.StatusUnpaid, festival.StatusPending:
	case "":
		status = festival.StatusPending
	default:
		writeError(w, http.StatusBadRequest, "Invalid status", nil)
		return
	}

	// The festival must exist; a payment against nothing is a client error.
	festDoc, err := h.Store.Get(r.Context(), docstore.CollectionFestivals, req.FestivalID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Festival not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load festival", err)
		return
	}
	fest := festival.FestivalFromDoc(festDoc)

	p := festival.Payment{
		ID:            uuid.NewString(),
		FamilyID:      req.FamilyID,
		FestivalID:    req.FestivalID,
		Amount:        amount,
		PaidDate:      paidDate,
		Status:        status,
		ReceiptNumber: h.Numbers.Generate(refnum.PrefixReceipt),
	}
	if _, err := h.Store.Create(r.Context(), docstore.CollectionPayments, festival.PaymentToDoc(p)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create payment", err)
		return
	}

	if p.Status == festival.StatusPaid {
		h.recordIncome(r, p, fest.Name)
	}
	writeJSON(w, http.StatusCreated, toPaymentDTO(p))
}

// UpdatePaymentStatus transitions a payment's status. Moving into PAID
// records the income. PUT /api/payments/{id}/status
func (h *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdatePaymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	status := festival.PaymentStatus(req.Status)
	switch status {
	case festival.StatusPaid, festival.StatusUnpaid, festival.StatusPending:
	default:
		writeError(w, http.StatusBadRequest, "Invalid status", nil)
		return
	}

	doc, err := h.Store.Get(r.Context(), docstore.CollectionPayments, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Payment not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get payment", err)
		return
	}
	before := festival.PaymentFromDoc(doc)

	updated, err := h.Store.Update(r.Context(), docstore.CollectionPayments, id, docstore.Document{"status": string(status)})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update payment", err)
		return
	}
	after := festival.PaymentFromDoc(updated)

	if before.Status != festival.StatusPaid && after.Status == festival.StatusPaid {
		h.recordIncome(r, after, "")
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(after))
}

// recordIncome records a payment on the ledger. Failures are logged, never
// propagated: the payment already exists and stays successful.
func (h *Handler) recordIncome(r *http.Request, p festival.Payment, festivalName string) {
	description := "Festival contribution"
	if festivalName != "" {
		description = "Contribution for " + festivalName
	}
	if err := h.Recorder.RecordIncome(r.Context(), p.Amount, description, p.ID, p.PaidDate); err != nil {
		h.log.Error("failed to record income for payment",
			"payment_id", p.ID,
			"amount", p.Amount.String(),
			"error", err,
		)
	}
}

// =============================================================================
// EXPENSE HANDLERS
// =============================================================================

// ListExpenses returns all expenses. GET /api/expenses
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Store.GetAll(r.Context(), docstore.CollectionExpenses, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list expenses", err)
		return
	}
	dtos := make([]ExpenseDTO, len(docs))
	for i, doc := range docs {
		dtos[i] = toExpenseDTO(festival.ExpenseFromDoc(doc))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateExpense creates an expense and records it on the ledger as a
// secondary effect. POST /api/expenses
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil || !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	expenseDate, err := parseDate(req.ExpenseDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expense_date format (use YYYY-MM-DD)", err)
		return
	}

	e := festival.Expense{
		ID:            uuid.NewString(),
		Description:   req.Description,
		Amount:        amount,
		ExpenseDate:   expenseDate,
		FestivalID:    req.FestivalID,
		InvoiceNumber: h.Numbers.Generate(refnum.PrefixInvoice),
	}
	if _, err := h.Store.Create(r.Context(), docstore.CollectionExpenses, festival.ExpenseToDoc(e)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create expense", err)
		return
	}

	if err := h.Recorder.RecordExpense(r.Context(), e.Amount, e.Description, e.ID, e.ExpenseDate); err != nil {
		// Same policy as payments: the expense exists, the ledger is
		// reconciled operationally.
		h.log.Error("failed to record expense",
			"expense_id", e.ID,
			"amount", e.Amount.String(),
			"error", err,
		)
	}
	writeJSON(w, http.StatusCreated, toExpenseDTO(e))
}

// =============================================================================
// REPORT, DASHBOARD & LEDGER ENDPOINTS
// =============================================================================

// GetFestivalReport builds the reconciliation report.
// GET /api/reports/festivals/{id}
func (h *Handler) GetFestivalReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := h.Reports.BuildFestivalReport(r.Context(), id)
	if err != nil {
		if festival.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Festival not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(report))
}

// GetDashboard returns the organization snapshot. GET /api/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toDashboardDTO(h.Dashboard.Snapshot(r.Context())))
}

// GetAccount returns the ledger account. GET /api/account
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := h.Ledger.Account(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load account", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(acct))
}

// GetTransactions returns recent transactions. GET /api/transactions?limit=N
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	txs, err := h.Ledger.RecentTransactions(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load transactions", err)
		return
	}
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
