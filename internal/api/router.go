/**
 * @description
 * This file sets up the HTTP router for the ledger service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies
 * any necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// LedgerRoutes creates and returns a new router for the ledger service.
func LedgerRoutes(h *LedgerHandlers, internalAPIKey string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require the internal API key.
	r.Group(func(r chi.Router) {
		r.Use(InternalAuthMiddleware(internalAPIKey))

		// Customer endpoints
		r.Post("/customers", h.CreateCustomerHandler)
		r.Get("/customers/by-email", h.FindCustomerByEmailHandler)
		r.Get("/customers/{customerID}", h.GetCustomerHandler)
		r.Put("/customers/{customerID}", h.UpdateCustomerHandler)
		r.Delete("/customers/{customerID}", h.RemoveCustomerHandler)

		// Account lifecycle endpoints
		r.Post("/accounts/cheque", h.CreateChequeAccountHandler)
		r.Post("/accounts/savings", h.CreateSavingsAccountHandler)
		r.Post("/accounts/investment", h.CreateInvestmentAccountHandler)
		r.Get("/accounts/{accountNumber}", h.GetAccountHandler)
		r.Delete("/accounts/{accountNumber}", h.CloseAccountHandler)

		// Money movement endpoints
		r.Post("/accounts/{accountNumber}/deposit", h.DepositHandler)
		r.Post("/accounts/{accountNumber}/withdraw", h.WithdrawHandler)
		r.Post("/transfers", h.TransferHandler)

		// Interest endpoints
		r.Post("/interest/run", h.RunInterestHandler)
		r.Post("/accounts/{accountNumber}/compound-interest", h.CompoundInterestHandler)

		// Reporting endpoints
		r.Get("/accounts/{accountNumber}/statement", h.StatementHandler)
		r.Get("/summary", h.SummaryHandler)
	})

	return r
}
