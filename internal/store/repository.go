/**
 * @description
 * This file defines the `Repository` interface, the persistence gateway the
 * ledger engine talks to. Defining an interface decouples the business logic
 * from the concrete storage backend (PostgreSQL in production, in-memory for
 * tests and local runs) and keeps the engine free of any connection state.
 *
 * Besides the narrow load/save/append operations, the interface carries three
 * composite operations (SaveNewAccount with an optional opening record,
 * ApplyBalanceChange, ApplyTransfer) so a balance update and its transaction
 * record commit as one atomic unit. A balance that moved without its record,
 * or a transfer with only one leg recorded, must be impossible.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/shopspring/decimal: Balance arithmetic.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger-service/internal/domain"
)

var (
	ErrCustomerNotFound       = errors.New("customer not found")
	ErrAccountNotFound        = errors.New("account not found")
	ErrDuplicateEmail         = errors.New("email already registered")
	ErrDuplicateAccount       = errors.New("account number already exists")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

// BalanceChange describes one account's new balance together with the
// transaction record that explains it. Repositories apply both atomically.
type BalanceChange struct {
	AccountNumber string
	NewBalance    decimal.Decimal
	Type          domain.TransactionType
	Amount        decimal.Decimal
	Description   string
	Counterparty  *string
}

// Repository defines the persistence gateway consumed by the ledger engine.
type Repository interface {
	// Customer operations
	SaveNewCustomer(ctx context.Context, customer *domain.Customer) error
	LoadCustomer(ctx context.Context, customerID string) (*domain.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateCustomer(ctx context.Context, customer *domain.Customer) error
	DeleteCustomer(ctx context.Context, customerID string) error
	CustomerCount(ctx context.Context) (int, error)
	NextCustomerSeq(ctx context.Context) (int64, error)

	// Account operations. SaveNewAccount appends the opening transaction
	// record, when given, in the same atomic unit as the account row.
	SaveNewAccount(ctx context.Context, account *domain.Account, opening *BalanceChange) error
	LoadAccount(ctx context.Context, accountNumber string) (*domain.Account, error)
	LoadAccountsByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error)
	LoadAllAccounts(ctx context.Context) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, accountNumber string, newBalance decimal.Decimal) error
	DeleteAccount(ctx context.Context, accountNumber string) error
	AccountCount(ctx context.Context) (int, error)
	TotalBalance(ctx context.Context) (decimal.Decimal, error)
	NextAccountSeq(ctx context.Context) (int64, error)

	// Transaction log operations. Records are immutable once appended.
	AppendTransaction(ctx context.Context, rec *domain.TransactionRecord) error
	LoadTransactions(ctx context.Context, accountNumber string, limit int) ([]domain.TransactionRecord, error)

	// Atomic composites
	ApplyBalanceChange(ctx context.Context, change BalanceChange) (*domain.TransactionRecord, error)
	ApplyTransfer(ctx context.Context, out, in BalanceChange) (*domain.TransactionRecord, *domain.TransactionRecord, error)
}
