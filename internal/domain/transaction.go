/**
 * @description
 * This file defines the TransactionRecord model (one immutable row in the
 * append-only transaction log) plus the request/response DTOs exchanged with
 * the HTTP layer and the event payloads published to RabbitMQ.
 *
 * @notes
 * - Amounts on records are always positive; direction is encoded in Type.
 *   TRANSFER_OUT/TRANSFER_IN records are written as an atomic pair whose
 *   Counterparty fields cross-reference each other's account number.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType tags the direction and nature of a ledger event.
type TransactionType string

const (
	TxDeposit     TransactionType = "DEPOSIT"
	TxWithdrawal  TransactionType = "WITHDRAWAL"
	TxTransferOut TransactionType = "TRANSFER_OUT"
	TxTransferIn  TransactionType = "TRANSFER_IN"
	TxInterest    TransactionType = "INTEREST"
)

// TransactionRecord is one immutable entry in the transaction log.
type TransactionRecord struct {
	ID            int64           `json:"id"`
	AccountNumber string          `json:"account_number"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Description   string          `json:"description"`
	Counterparty  *string         `json:"counterparty_account,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CreateCustomerRequest is the DTO for customer registration.
type CreateCustomerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// UpdateCustomerRequest is the DTO for rewriting a customer's contact details.
// All fields are replaced; the customer id itself never changes.
type UpdateCustomerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// CreateAccountRequest is the DTO for opening an account. InvestmentType and
// InitialDeposit are ignored for kinds that do not use them.
type CreateAccountRequest struct {
	CustomerID     string          `json:"customer_id"`
	InvestmentType string          `json:"investment_type,omitempty"`
	InitialDeposit decimal.Decimal `json:"initial_deposit"`
}

// AmountRequest is the DTO for deposits and withdrawals.
type AmountRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// TransferRequest is the DTO for account-to-account transfers.
type TransferRequest struct {
	FromAccount string          `json:"from_account"`
	ToAccount   string          `json:"to_account"`
	Amount      decimal.Decimal `json:"amount"`
}

// Statement bundles an account with its most recent transactions, newest first.
type Statement struct {
	Account      *Account            `json:"account"`
	Transactions []TransactionRecord `json:"transactions"`
}

// BankSummary reports bank-wide aggregates.
type BankSummary struct {
	TotalCustomers int             `json:"total_customers"`
	TotalAccounts  int             `json:"total_accounts"`
	TotalBalance   decimal.Decimal `json:"total_balance"`
}

// InterestRunResult reports one accrual pass across all accounts.
type InterestRunResult struct {
	AccountsProcessed int             `json:"accounts_processed"`
	TotalCredited     decimal.Decimal `json:"total_credited"`
}

// TransactionRecordedEvent is the message payload published after a
// balance-affecting operation commits.
type TransactionRecordedEvent struct {
	EventID       uuid.UUID       `json:"event_id"`
	AccountNumber string          `json:"account_number"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Counterparty  *string         `json:"counterparty_account,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// InterestRunCompletedEvent is published after an interest accrual pass.
type InterestRunCompletedEvent struct {
	EventID           uuid.UUID       `json:"event_id"`
	AccountsProcessed int             `json:"accounts_processed"`
	TotalCredited     decimal.Decimal `json:"total_credited"`
	Timestamp         time.Time       `json:"timestamp"`
}
