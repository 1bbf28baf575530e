package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/deudbot/backend/internal/models"
	"github.com/deudbot/backend/internal/phone"
	"github.com/deudbot/backend/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// DebtorHandler is the CRUD surface for debtors and their ledger entries.
type DebtorHandler struct {
	store     *store.Store
	validator *ValidationHelper
}

func NewDebtorHandler(s *store.Store) *DebtorHandler {
	return &DebtorHandler{store: s, validator: NewValidationHelper()}
}

func debtorID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *DebtorHandler) List(w http.ResponseWriter, r *http.Request) {
	debtors, err := h.store.ListActiveDebtors(r.Context())
	if err != nil {
		log.Printf("[DEBTORS] list failed: %v", err)
		SendErrorResponse(w, "Failed to list debtors", http.StatusInternalServerError, nil)
		return
	}
	if debtors == nil {
		debtors = []models.Debtor{}
	}
	SendJSON(w, debtors)
}

func (h *DebtorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := debtorID(r)
	if err != nil {
		SendErrorResponse(w, "Invalid debtor id", http.StatusBadRequest, nil)
		return
	}
	debtor, err := h.store.GetDebtor(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		SendErrorResponse(w, "Debtor not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		SendErrorResponse(w, "Failed to load debtor", http.StatusInternalServerError, nil)
		return
	}
	SendJSON(w, debtor)
}

type createDebtorRequest struct {
	Name            string          `json:"name" validate:"required,min=1"`
	Phone           string          `json:"phone" validate:"required"`
	StartingBalance decimal.Decimal `json:"startingBalance"`
	Notes           string          `json:"notes"`
}

func (h *DebtorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDebtorRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}
	if err := phone.Validate(req.Phone); err != nil {
		SendErrorResponse(w, "Invalid phone number", http.StatusBadRequest, nil)
		return
	}
	if req.StartingBalance.IsNegative() {
		SendErrorResponse(w, "Starting balance cannot be negative", http.StatusBadRequest, nil)
		return
	}

	id, err := h.store.CreateDebtor(r.Context(), req.Name, phone.Normalize(req.Phone), req.StartingBalance, req.Notes)
	if errors.Is(err, store.ErrAlreadyExists) {
		SendErrorResponse(w, "Phone number already registered", http.StatusConflict, nil)
		return
	}
	if err != nil {
		log.Printf("[DEBTORS] create failed: %v", err)
		SendErrorResponse(w, "Failed to create debtor", http.StatusInternalServerError, nil)
		return
	}
	SendJSON(w, map[string]any{"id": id, "message": "Debtor created"})
}

type updateDebtorRequest struct {
	Name  string `json:"name" validate:"required,min=1"`
	Phone string `json:"phone" validate:"required"`
	Notes string `json:"notes"`
}

func (h *DebtorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := debtorID(r)
	if err != nil {
		SendErrorResponse(w, "Invalid debtor id", http.StatusBadRequest, nil)
		return
	}
	var req updateDebtorRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}
	if err := phone.Validate(req.Phone); err != nil {
		SendErrorResponse(w, "Invalid phone number", http.StatusBadRequest, nil)
		return
	}

	err = h.store.UpdateDebtor(r.Context(), id, req.Name, phone.Normalize(req.Phone), req.Notes)
	switch {
	case errors.Is(err, store.ErrNotFound):
		SendErrorResponse(w, "Debtor not found", http.StatusNotFound, nil)
	case errors.Is(err, store.ErrAlreadyExists):
		SendErrorResponse(w, "Phone number already registered", http.StatusConflict, nil)
	case err != nil:
		SendErrorResponse(w, "Failed to update debtor", http.StatusInternalServerError, nil)
	default:
		SendJSON(w, map[string]string{"message": "Debtor updated"})
	}
}

func (h *DebtorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := debtorID(r)
	if err != nil {
		SendErrorResponse(w, "Invalid debtor id", http.StatusBadRequest, nil)
		return
	}
	err = h.store.SoftDeleteDebtor(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		SendErrorResponse(w, "Debtor not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		SendErrorResponse(w, "Failed to delete debtor", http.StatusInternalServerError, nil)
		return
	}
	SendJSON(w, map[string]string{"message": "Debtor deleted"})
}

func (h *DebtorHandler) Entries(w http.ResponseWriter, r *http.Request) {
	id, err := debtorID(r)
	if err != nil {
		SendErrorResponse(w, "Invalid debtor id", http.StatusBadRequest, nil)
		return
	}
	entries, err := h.store.ListEntries(r.Context(), id, 50)
	if err != nil {
		SendErrorResponse(w, "Failed to list entries", http.StatusInternalServerError, nil)
		return
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}
	SendJSON(w, entries)
}

type entryRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Memo   string          `json:"memo"`
}

// AddPayment records a payment entry against the debtor.
func (h *DebtorHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	h.addEntry(w, r, models.EntryPayment, "Payment recorded")
}

// AddCharge records a charge entry against the debtor.
func (h *DebtorHandler) AddCharge(w http.ResponseWriter, r *http.Request) {
	h.addEntry(w, r, models.EntryCharge, "Charge recorded")
}

func (h *DebtorHandler) addEntry(w http.ResponseWriter, r *http.Request, kind models.EntryKind, okMsg string) {
	id, err := debtorID(r)
	if err != nil {
		SendErrorResponse(w, "Invalid debtor id", http.StatusBadRequest, nil)
		return
	}
	var req entryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if !req.Amount.IsPositive() {
		SendErrorResponse(w, "Amount must be greater than 0", http.StatusBadRequest, nil)
		return
	}

	updated, err := h.store.AppendLedgerEntry(r.Context(), id, req.Amount, req.Memo, kind)
	if errors.Is(err, store.ErrNotFound) {
		SendErrorResponse(w, "Debtor not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[DEBTORS] append entry failed: %v", err)
		SendErrorResponse(w, "Failed to record entry", http.StatusInternalServerError, nil)
		return
	}
	SendJSON(w, map[string]any{"message": okMsg, "balance": updated.Balance})
}

// StatsHandler serves the dashboard aggregates.
type StatsHandler struct {
	store *store.Store
}

func NewStatsHandler(s *store.Store) *StatsHandler {
	return &StatsHandler{store: s}
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		log.Printf("[STATS] query failed: %v", err)
		SendErrorResponse(w, "Failed to compute stats", http.StatusInternalServerError, nil)
		return
	}
	SendJSON(w, stats)
}
