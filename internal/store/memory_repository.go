/**
 * @description
 * This file provides an in-memory implementation of the `Repository`
 * interface, guarded by a single RWMutex. It backs the test suite and lets
 * the service run locally without a PostgreSQL instance; the composite
 * operations are atomic by virtue of holding the write lock for their whole
 * duration.
 *
 * Stored accounts are copied on the way in and out so callers can never
 * mutate repository state except through Repository methods.
 */

package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger-service/internal/domain"
)

// MemoryRepository is a mutex-guarded, map-backed Repository.
type MemoryRepository struct {
	mu           sync.RWMutex
	customers    map[string]*domain.Customer
	accounts     map[string]*domain.Account
	transactions []domain.TransactionRecord
	nextTxID     int64
	customerSeq  int64
	accountSeq   int64
}

// NewMemoryRepository creates an empty in-memory repository with the id
// sequences at their initial values (customers from 1001, accounts from
// 10001).
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		customers:   make(map[string]*domain.Customer),
		accounts:    make(map[string]*domain.Account),
		nextTxID:    1,
		customerSeq: 1000,
		accountSeq:  10000,
	}
}

func copyAccount(a *domain.Account) *domain.Account {
	clone := *a
	return &clone
}

func (r *MemoryRepository) SaveNewCustomer(ctx context.Context, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.customers {
		if strings.EqualFold(existing.Email, customer.Email) {
			return ErrDuplicateEmail
		}
	}
	clone := *customer
	clone.Accounts = nil
	r.customers[customer.ID] = &clone
	return nil
}

func (r *MemoryRepository) LoadCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, ok := r.customers[customerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, customerID)
	}
	clone := *customer
	return &clone, nil
}

func (r *MemoryRepository) FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, customer := range r.customers {
		if strings.EqualFold(customer.Email, email) {
			clone := *customer
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, email)
}

func (r *MemoryRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, customer := range r.customers {
		if strings.EqualFold(customer.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) UpdateCustomer(ctx context.Context, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.customers[customer.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCustomerNotFound, customer.ID)
	}
	for id, other := range r.customers {
		if id != customer.ID && strings.EqualFold(other.Email, customer.Email) {
			return ErrDuplicateEmail
		}
	}
	existing.FirstName = customer.FirstName
	existing.LastName = customer.LastName
	existing.Email = customer.Email
	existing.Phone = customer.Phone
	existing.Address = customer.Address
	return nil
}

func (r *MemoryRepository) DeleteCustomer(ctx context.Context, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.customers[customerID]; !ok {
		return fmt.Errorf("%w: %s", ErrCustomerNotFound, customerID)
	}
	delete(r.customers, customerID)

	// Cascade to the customer's accounts and their transaction history,
	// matching the ON DELETE CASCADE behavior of the SQL schema.
	removed := make(map[string]bool)
	for number, account := range r.accounts {
		if account.CustomerID == customerID {
			removed[number] = true
			delete(r.accounts, number)
		}
	}
	if len(removed) > 0 {
		kept := r.transactions[:0]
		for _, rec := range r.transactions {
			if !removed[rec.AccountNumber] {
				kept = append(kept, rec)
			}
		}
		r.transactions = kept
	}
	return nil
}

func (r *MemoryRepository) CustomerCount(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.customers), nil
}

func (r *MemoryRepository) NextCustomerSeq(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customerSeq++
	return r.customerSeq, nil
}

func (r *MemoryRepository) NextAccountSeq(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accountSeq++
	return r.accountSeq, nil
}

func (r *MemoryRepository) SaveNewAccount(ctx context.Context, account *domain.Account, opening *BalanceChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.Number]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAccount, account.Number)
	}
	r.accounts[account.Number] = copyAccount(account)
	if opening != nil {
		r.appendLocked(opening)
	}
	return nil
}

func (r *MemoryRepository) LoadAccount(ctx context.Context, accountNumber string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[accountNumber]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountNumber)
	}
	return copyAccount(account), nil
}

func (r *MemoryRepository) LoadAccountsByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Account
	for _, account := range r.accounts {
		if account.CustomerID == customerID {
			result = append(result, copyAccount(account))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (r *MemoryRepository) LoadAllAccounts(ctx context.Context) ([]*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		result = append(result, copyAccount(account))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (r *MemoryRepository) UpdateBalance(ctx context.Context, accountNumber string, newBalance decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[accountNumber]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, accountNumber)
	}
	account.Balance = newBalance
	return nil
}

func (r *MemoryRepository) DeleteAccount(ctx context.Context, accountNumber string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[accountNumber]; !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, accountNumber)
	}
	delete(r.accounts, accountNumber)

	// Cascade the account's transaction history, matching the SQL schema.
	kept := r.transactions[:0]
	for _, rec := range r.transactions {
		if rec.AccountNumber != accountNumber {
			kept = append(kept, rec)
		}
	}
	r.transactions = kept
	return nil
}

func (r *MemoryRepository) AccountCount(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts), nil
}

func (r *MemoryRepository) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	for _, account := range r.accounts {
		total = total.Add(account.Balance)
	}
	return total, nil
}

// appendLocked records one transaction. Callers must hold the write lock.
func (r *MemoryRepository) appendLocked(change *BalanceChange) domain.TransactionRecord {
	rec := domain.TransactionRecord{
		ID:            r.nextTxID,
		AccountNumber: change.AccountNumber,
		Type:          change.Type,
		Amount:        change.Amount,
		BalanceAfter:  change.NewBalance,
		Description:   change.Description,
		Counterparty:  change.Counterparty,
		CreatedAt:     time.Now().UTC(),
	}
	r.nextTxID++
	r.transactions = append(r.transactions, rec)
	return rec
}

func (r *MemoryRepository) AppendTransaction(ctx context.Context, rec *domain.TransactionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.appendLocked(&BalanceChange{
		AccountNumber: rec.AccountNumber,
		NewBalance:    rec.BalanceAfter,
		Type:          rec.Type,
		Amount:        rec.Amount,
		Description:   rec.Description,
		Counterparty:  rec.Counterparty,
	})
	rec.ID = stored.ID
	rec.CreatedAt = stored.CreatedAt
	return nil
}

func (r *MemoryRepository) LoadTransactions(ctx context.Context, accountNumber string, limit int) ([]domain.TransactionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	var result []domain.TransactionRecord
	for i := len(r.transactions) - 1; i >= 0 && len(result) < limit; i-- {
		if r.transactions[i].AccountNumber == accountNumber {
			result = append(result, r.transactions[i])
		}
	}
	return result, nil
}

func (r *MemoryRepository) ApplyBalanceChange(ctx context.Context, change BalanceChange) (*domain.TransactionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[change.AccountNumber]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, change.AccountNumber)
	}
	account.Balance = change.NewBalance
	rec := r.appendLocked(&change)
	return &rec, nil
}

func (r *MemoryRepository) ApplyTransfer(ctx context.Context, out, in BalanceChange) (*domain.TransactionRecord, *domain.TransactionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	outAccount, ok := r.accounts[out.AccountNumber]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrAccountNotFound, out.AccountNumber)
	}
	inAccount, ok := r.accounts[in.AccountNumber]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrAccountNotFound, in.AccountNumber)
	}

	outAccount.Balance = out.NewBalance
	inAccount.Balance = in.NewBalance
	outRec := r.appendLocked(&out)
	inRec := r.appendLocked(&in)
	return &outRec, &inRec, nil
}
