/**
 * @description
 * This file contains the HTTP handlers for the ledger service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate methods on the application service, and writing the HTTP
 * response. They act as the bridge between the web layer and the business
 * logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/corebank/ledger-service/internal/app"
	"github.com/corebank/ledger-service/internal/domain"
	"github.com/corebank/ledger-service/internal/store"
)

// LedgerHandlers holds the application service that handlers will use.
type LedgerHandlers struct {
	service *app.Service
}

// NewLedgerHandlers creates a new instance of LedgerHandlers.
func NewLedgerHandlers(service *app.Service) *LedgerHandlers {
	return &LedgerHandlers{service: service}
}

// transferResponse pairs the two legs of a committed transfer.
type transferResponse struct {
	OutRecord *domain.TransactionRecord `json:"out_record"`
	InRecord  *domain.TransactionRecord `json:"in_record"`
}

// CreateCustomerHandler registers a new customer.
func (h *LedgerHandlers) CreateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	customer, err := h.service.CreateCustomer(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, customer)
}

// GetCustomerHandler returns a customer with all of their accounts.
func (h *LedgerHandlers) GetCustomerHandler(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")
	customer, err := h.service.GetCustomerWithAccounts(r.Context(), customerID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, customer)
}

// FindCustomerByEmailHandler looks a customer up by email query parameter.
func (h *LedgerHandlers) FindCustomerByEmailHandler(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	customer, err := h.service.FindCustomerByEmail(r.Context(), email)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, customer)
}

// UpdateCustomerHandler rewrites a customer's name and contact details.
func (h *LedgerHandlers) UpdateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	var req domain.UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	customer, err := h.service.UpdateCustomer(r.Context(), customerID, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, customer)
}

// RemoveCustomerHandler deletes a customer, their accounts, and their history.
func (h *LedgerHandlers) RemoveCustomerHandler(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")
	if err := h.service.RemoveCustomer(r.Context(), customerID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateChequeAccountHandler opens a cheque account with a zero balance.
func (h *LedgerHandlers) CreateChequeAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.service.CreateChequeAccount(r.Context(), strings.TrimSpace(req.CustomerID))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, account)
}

// CreateSavingsAccountHandler opens a savings account with an initial deposit.
func (h *LedgerHandlers) CreateSavingsAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.service.CreateSavingsAccount(r.Context(), strings.TrimSpace(req.CustomerID), req.InitialDeposit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, account)
}

// CreateInvestmentAccountHandler opens an investment account with a principal.
func (h *LedgerHandlers) CreateInvestmentAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.service.CreateInvestmentAccount(r.Context(), strings.TrimSpace(req.CustomerID), req.InvestmentType, req.InitialDeposit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, account)
}

// GetAccountHandler returns one account by number.
func (h *LedgerHandlers) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountNumber := chi.URLParam(r, "accountNumber")
	account, err := h.service.GetAccount(r.Context(), accountNumber)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// DepositHandler credits an account.
func (h *LedgerHandlers) DepositHandler(w http.ResponseWriter, r *http.Request) {
	accountNumber := chi.URLParam(r, "accountNumber")

	var req domain.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.service.Deposit(r.Context(), accountNumber, req.Amount, req.Description)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, rec)
}

// WithdrawHandler debits an account under its kind-specific rules.
func (h *LedgerHandlers) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	accountNumber := chi.URLParam(r, "accountNumber")

	var req domain.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.service.Withdraw(r.Context(), accountNumber, req.Amount, req.Description)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, rec)
}

// TransferHandler moves money between two accounts atomically.
func (h *LedgerHandlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outRec, inRec, err := h.service.Transfer(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, transferResponse{OutRecord: outRec, InRecord: inRec})
}

// RunInterestHandler performs a flat accrual pass over all accounts.
func (h *LedgerHandlers) RunInterestHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.CalculateInterestForAllAccounts(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// CompoundInterestHandler applies the term-compounded accrual on one
// investment account.
func (h *LedgerHandlers) CompoundInterestHandler(w http.ResponseWriter, r *http.Request) {
	accountNumber := chi.URLParam(r, "accountNumber")
	rec, err := h.service.ApplyCompoundInterest(r.Context(), accountNumber)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, rec)
}

// StatementHandler returns an account with its most recent transactions.
func (h *LedgerHandlers) StatementHandler(w http.ResponseWriter, r *http.Request) {
	accountNumber := chi.URLParam(r, "accountNumber")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	statement, err := h.service.GetStatement(r.Context(), accountNumber, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, statement)
}

// CloseAccountHandler deletes an account whose balance is zero.
func (h *LedgerHandlers) CloseAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountNumber := chi.URLParam(r, "accountNumber")
	if err := h.service.CloseAccount(r.Context(), accountNumber); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SummaryHandler reports bank-wide aggregates.
func (h *LedgerHandlers) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetBankSummary(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// writeServiceError maps service and domain errors onto HTTP statuses.
func (h *LedgerHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrCustomerNotFound), errors.Is(err, store.ErrAccountNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicateEmail), errors.Is(err, store.ErrDuplicateAccount),
		errors.Is(err, app.ErrAccountNotEmpty):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrWithdrawalLimitExceeded),
		errors.Is(err, domain.ErrOverdraftExceeded),
		errors.Is(err, domain.ErrMinimumBalanceBreach),
		errors.Is(err, domain.ErrPartialInvestmentWithdrawal),
		errors.Is(err, app.ErrBelowMinimumDeposit),
		errors.Is(err, app.ErrSameAccountTransfer),
		errors.Is(err, app.ErrNotInvestmentAccount):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, app.ErrTransferFailed):
		// Reached only when the failure carries no policy cause, i.e. the
		// store refused the committed pair.
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrValidation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrRateLimited):
		h.writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, store.ErrPersistenceUnavailable):
		log.Printf("level=error component=api msg=\"persistence unavailable\" path=%s err=%v", r.URL.Path, err)
		h.writeError(w, http.StatusServiceUnavailable, "Persistence unavailable, try again later")
	default:
		log.Printf("level=error component=api msg=\"unhandled service error\" path=%s err=%v", r.URL.Path, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// writeJSON is a helper for writing JSON responses.
func (h *LedgerHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("level=error component=api msg=%q err=%v", fmt.Sprintf("failed to encode response (status %d)", status), err)
		}
	}
}

// writeError is a helper for writing JSON error responses.
func (h *LedgerHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
