/**
 * @description
 * This file contains the core business logic for the ledger service. The
 * Service struct orchestrates customer registration, account opening, money
 * movement, interest accrual, and statement retrieval. It owns the policy
 * rules that span more than one account or more than one table: identifier
 * allocation, duplicate-email refusal, transfer atomicity, and the per-account
 * lock discipline that keeps concurrent operations serialized.
 *
 * All balance math happens on loaded domain copies; nothing is persisted until
 * the domain rules have accepted the operation, so a rejected withdrawal or a
 * failed transfer leaves neither balances nor the transaction log touched.
 *
 * @dependencies
 * - internal/domain: Account, Customer, and transaction record types.
 * - internal/store: The persistence gateway interface and its sentinels.
 * - pkg/rabbitmq: Event publishing after committed operations.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corebank/ledger-service/internal/domain"
	"github.com/corebank/ledger-service/internal/store"
	"github.com/corebank/ledger-service/pkg/rabbitmq"
)

// Policy errors surfaced by the engine itself, on top of the domain and
// store sentinels.
var (
	ErrValidation           = errors.New("invalid request")
	ErrBelowMinimumDeposit  = errors.New("initial deposit below the savings minimum")
	ErrSameAccountTransfer  = errors.New("cannot transfer an account to itself")
	ErrTransferFailed       = errors.New("transfer failed")
	ErrAccountNotEmpty      = errors.New("account balance must be zero before closing")
	ErrNotInvestmentAccount = errors.New("operation only applies to investment accounts")
	ErrRateLimited          = errors.New("withdrawal rate limit exceeded")
)

// RateLimiter is the per-account operation limiter consumed by the engine.
// A nil limiter disables limiting entirely.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, accountNumber string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// RateLimitConfig bounds how many withdrawals one account may perform per window.
type RateLimitConfig struct {
	Enabled bool
	Limit   int
	Window  time.Duration
}

// statementMaxLimit bounds how many transactions one statement request may
// return regardless of the configured default.
const statementMaxLimit = 500

// Service provides methods for ledger business logic.
type Service struct {
	repo           store.Repository
	eventProducer  rabbitmq.Publisher
	locks          *accountLocks
	rateLimiter    RateLimiter
	rateLimit      RateLimitConfig
	persistTimeout time.Duration
	statementLimit int
}

// NewService creates a new ledger service. The producer and rate limiter may
// be nil; both degrade to no-ops. statementDefaultLimit applies when a
// statement request carries no limit of its own.
func NewService(repo store.Repository, producer rabbitmq.Publisher, limiter RateLimiter, rateLimit RateLimitConfig, persistTimeout time.Duration, statementDefaultLimit int) *Service {
	if persistTimeout <= 0 {
		persistTimeout = 5 * time.Second
	}
	if statementDefaultLimit <= 0 || statementDefaultLimit > statementMaxLimit {
		statementDefaultLimit = 50
	}
	return &Service{
		repo:           repo,
		eventProducer:  producer,
		locks:          newAccountLocks(),
		rateLimiter:    limiter,
		rateLimit:      rateLimit,
		persistTimeout: persistTimeout,
		statementLimit: statementDefaultLimit,
	}
}

// withTimeout bounds one persistence round trip so a stalled database surfaces
// as store.ErrPersistenceUnavailable instead of hanging the caller.
func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.persistTimeout)
}

func (s *Service) publishTransaction(rec *domain.TransactionRecord) {
	if s.eventProducer == nil || rec == nil {
		return
	}
	event := domain.TransactionRecordedEvent{
		EventID:       uuid.New(),
		AccountNumber: rec.AccountNumber,
		Type:          rec.Type,
		Amount:        rec.Amount,
		BalanceAfter:  rec.BalanceAfter,
		Counterparty:  rec.Counterparty,
		Timestamp:     rec.CreatedAt,
	}
	pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.eventProducer.PublishTransactionRecorded(pubCtx, event); err != nil {
		log.Printf("level=warn component=ledger_service msg=\"transaction event publish failed\" account=%s type=%s err=%v", rec.AccountNumber, rec.Type, err)
	}
}

// CreateCustomer registers a new customer, allocating the next CUST identifier.
// Email uniqueness is case-insensitive and enforced before the insert as well
// as by the store itself.
func (s *Service) CreateCustomer(ctx context.Context, req domain.CreateCustomerRequest) (*domain.Customer, error) {
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if firstName == "" || lastName == "" || email == "" {
		return nil, fmt.Errorf("%w: first name, last name and email are required", ErrValidation)
	}

	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	exists, err := s.repo.EmailExists(dbCtx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, store.ErrDuplicateEmail
	}

	seq, err := s.repo.NextCustomerSeq(dbCtx)
	if err != nil {
		return nil, err
	}

	customer := &domain.Customer{
		ID:        fmt.Sprintf("CUST%d", seq),
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
	}

	if err := s.repo.SaveNewCustomer(dbCtx, customer); err != nil {
		return nil, err
	}

	log.Printf("level=info component=ledger_service msg=\"customer registered\" customer_id=%s email=%s", customer.ID, customer.Email)
	return customer, nil
}

// GetCustomerWithAccounts loads a customer plus every account they hold.
func (s *Service) GetCustomerWithAccounts(ctx context.Context, customerID string) (*domain.Customer, error) {
	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	customer, err := s.repo.LoadCustomer(dbCtx, customerID)
	if err != nil {
		return nil, err
	}
	accounts, err := s.repo.LoadAccountsByCustomer(dbCtx, customerID)
	if err != nil {
		return nil, err
	}
	customer.Accounts = accounts
	return customer, nil
}

// FindCustomerByEmail looks a customer up by their (case-insensitive) email.
func (s *Service) FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.FindCustomerByEmail(dbCtx, email)
}

// UpdateCustomer rewrites a customer's name and contact details. The email
// stays unique across customers, case-insensitively, just as at registration.
func (s *Service) UpdateCustomer(ctx context.Context, customerID string, req domain.UpdateCustomerRequest) (*domain.Customer, error) {
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if firstName == "" || lastName == "" || email == "" {
		return nil, fmt.Errorf("%w: first name, last name and email are required", ErrValidation)
	}

	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	customer, err := s.repo.LoadCustomer(dbCtx, customerID)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(customer.Email, email) {
		exists, err := s.repo.EmailExists(dbCtx, email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, store.ErrDuplicateEmail
		}
	}

	customer.FirstName = firstName
	customer.LastName = lastName
	customer.Email = email
	customer.Phone = strings.TrimSpace(req.Phone)
	customer.Address = strings.TrimSpace(req.Address)

	if err := s.repo.UpdateCustomer(dbCtx, customer); err != nil {
		return nil, err
	}

	log.Printf("level=info component=ledger_service msg=\"customer updated\" customer_id=%s email=%s", customer.ID, customer.Email)
	return customer, nil
}

// RemoveCustomer deletes a customer along with their accounts and the
// accounts' transaction history.
func (s *Service) RemoveCustomer(ctx context.Context, customerID string) error {
	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.repo.DeleteCustomer(dbCtx, customerID); err != nil {
		return err
	}
	log.Printf("level=info component=ledger_service msg=\"customer removed\" customer_id=%s", customerID)
	return nil
}

func (s *Service) nextAccountNumber(ctx context.Context, prefix string) (string, error) {
	seq, err := s.repo.NextAccountSeq(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", prefix, seq), nil
}

// CreateChequeAccount opens a cheque account with a zero balance. Cheque
// accounts take no initial deposit; funds arrive through a later deposit.
func (s *Service) CreateChequeAccount(ctx context.Context, customerID string) (*domain.Account, error) {
	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.repo.LoadCustomer(dbCtx, customerID); err != nil {
		return nil, err
	}

	number, err := s.nextAccountNumber(dbCtx, "CHQ")
	if err != nil {
		return nil, err
	}

	account := domain.NewChequeAccount(number, customerID)
	if err := s.repo.SaveNewAccount(dbCtx, account, nil); err != nil {
		return nil, err
	}

	log.Printf("level=info component=ledger_service msg=\"cheque account opened\" account=%s customer_id=%s", account.Number, customerID)
	return account, nil
}

// CreateSavingsAccount opens a savings account. The initial deposit must meet
// the savings minimum, and it is recorded as the account's opening DEPOSIT.
func (s *Service) CreateSavingsAccount(ctx context.Context, customerID string, initialDeposit decimal.Decimal) (*domain.Account, error) {
	if initialDeposit.LessThan(domain.MinimumSavingsInitialDeposit) {
		return nil, ErrBelowMinimumDeposit
	}

	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.repo.LoadCustomer(dbCtx, customerID); err != nil {
		return nil, err
	}

	number, err := s.nextAccountNumber(dbCtx, "SAV")
	if err != nil {
		return nil, err
	}

	account := domain.NewSavingsAccount(number, customerID, initialDeposit)
	opening := &store.BalanceChange{
		AccountNumber: account.Number,
		NewBalance:    account.Balance,
		Type:          domain.TxDeposit,
		Amount:        initialDeposit,
		Description:   "Initial deposit",
	}
	if err := s.repo.SaveNewAccount(dbCtx, account, opening); err != nil {
		return nil, err
	}

	log.Printf("level=info component=ledger_service msg=\"savings account opened\" account=%s customer_id=%s", account.Number, customerID)
	return account, nil
}

// CreateInvestmentAccount opens an investment account holding the initial
// principal for the default term.
func (s *Service) CreateInvestmentAccount(ctx context.Context, customerID, investmentType string, initialDeposit decimal.Decimal) (*domain.Account, error) {
	if initialDeposit.Sign() <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	investmentType = strings.TrimSpace(investmentType)
	if investmentType == "" {
		return nil, fmt.Errorf("%w: investment type is required", ErrValidation)
	}

	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.repo.LoadCustomer(dbCtx, customerID); err != nil {
		return nil, err
	}

	number, err := s.nextAccountNumber(dbCtx, "INV")
	if err != nil {
		return nil, err
	}

	account := domain.NewInvestmentAccount(number, customerID, investmentType, initialDeposit)
	opening := &store.BalanceChange{
		AccountNumber: account.Number,
		NewBalance:    account.Balance,
		Type:          domain.TxDeposit,
		Amount:        initialDeposit,
		Description:   "Initial investment",
	}
	if err := s.repo.SaveNewAccount(dbCtx, account, opening); err != nil {
		return nil, err
	}

	log.Printf("level=info component=ledger_service msg=\"investment account opened\" account=%s customer_id=%s type=%s", account.Number, customerID, investmentType)
	return account, nil
}

// GetAccount loads one account by number.
func (s *Service) GetAccount(ctx context.Context, accountNumber string) (*domain.Account, error) {
	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.LoadAccount(dbCtx, accountNumber)
}

// Deposit credits an account and appends the DEPOSIT record atomically.
func (s *Service) Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*domain.TransactionRecord, error) {
	unlock := s.locks.Lock(accountNumber)
	defer unlock()

	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	account, err := s.repo.LoadAccount(dbCtx, accountNumber)
	if err != nil {
		return nil, err
	}
	if err := account.Deposit(amount); err != nil {
		return nil, err
	}

	if description == "" {
		description = "Deposit"
	}
	rec, err := s.repo.ApplyBalanceChange(dbCtx, store.BalanceChange{
		AccountNumber: account.Number,
		NewBalance:    account.Balance,
		Type:          domain.TxDeposit,
		Amount:        amount,
		Description:   description,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=ledger_service msg=\"deposit recorded\" account=%s amount=%s balance=%s", account.Number, amount.String(), account.Balance.String())
	s.publishTransaction(rec)
	return rec, nil
}

// Withdraw debits an account under its kind-specific rules and appends the
// WITHDRAWAL record atomically. When rate limiting is enabled, each attempt
// counts against the account's window whether or not the rules accept it.
func (s *Service) Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*domain.TransactionRecord, error) {
	if s.rateLimiter != nil && s.rateLimit.Enabled {
		count, retryAfter, err := s.rateLimiter.ConsumeRateLimit(ctx, "withdraw", accountNumber, s.rateLimit.Limit, s.rateLimit.Window)
		if err != nil {
			// Limiter outage must not block withdrawals
			log.Printf("level=warn component=ledger_service msg=\"rate limiter unavailable\" account=%s err=%v", accountNumber, err)
		} else if count > s.rateLimit.Limit {
			log.Printf("level=warn component=ledger_service msg=\"withdrawal rate limited\" account=%s count=%d retry_after=%d", accountNumber, count, retryAfter)
			return nil, fmt.Errorf("%w: retry in %ds", ErrRateLimited, retryAfter)
		}
	}

	unlock := s.locks.Lock(accountNumber)
	defer unlock()

	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	account, err := s.repo.LoadAccount(dbCtx, accountNumber)
	if err != nil {
		return nil, err
	}
	if err := account.Withdraw(amount); err != nil {
		return nil, err
	}

	if description == "" {
		description = "Withdrawal"
	}
	rec, err := s.repo.ApplyBalanceChange(dbCtx, store.BalanceChange{
		AccountNumber: account.Number,
		NewBalance:    account.Balance,
		Type:          domain.TxWithdrawal,
		Amount:        amount,
		Description:   description,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=ledger_service msg=\"withdrawal recorded\" account=%s amount=%s balance=%s", account.Number, amount.String(), account.Balance.String())
	s.publishTransaction(rec)
	return rec, nil
}

// Transfer moves money between two accounts as a single atomic unit. The
// debit obeys the source account's withdrawal rules; the credit is a plain
// deposit. Both legs commit together or not at all, and each leg's record
// references the counterparty account.
func (s *Service) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransactionRecord, *domain.TransactionRecord, error) {
	from := strings.TrimSpace(req.FromAccount)
	to := strings.TrimSpace(req.ToAccount)
	if from == "" || to == "" {
		return nil, nil, fmt.Errorf("%w: from_account and to_account are required", ErrValidation)
	}
	if from == to {
		return nil, nil, ErrSameAccountTransfer
	}
	if req.Amount.Sign() <= 0 {
		return nil, nil, domain.ErrInvalidAmount
	}

	unlock := s.locks.LockPair(from, to)
	defer unlock()

	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	source, err := s.repo.LoadAccount(dbCtx, from)
	if err != nil {
		return nil, nil, err
	}
	dest, err := s.repo.LoadAccount(dbCtx, to)
	if err != nil {
		return nil, nil, err
	}

	// Domain rules run on loaded copies; a refusal here leaves nothing to undo.
	// Both sentinels are wrapped so callers can match either the transfer
	// outcome or the specific policy reason.
	if err := source.Withdraw(req.Amount); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	if err := dest.Deposit(req.Amount); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	out := store.BalanceChange{
		AccountNumber: source.Number,
		NewBalance:    source.Balance,
		Type:          domain.TxTransferOut,
		Amount:        req.Amount,
		Description:   fmt.Sprintf("Transfer to %s", dest.Number),
		Counterparty:  &dest.Number,
	}
	in := store.BalanceChange{
		AccountNumber: dest.Number,
		NewBalance:    dest.Balance,
		Type:          domain.TxTransferIn,
		Amount:        req.Amount,
		Description:   fmt.Sprintf("Transfer from %s", source.Number),
		Counterparty:  &source.Number,
	}

	outRec, inRec, err := s.repo.ApplyTransfer(dbCtx, out, in)
	if err != nil {
		if errors.Is(err, store.ErrPersistenceUnavailable) || errors.Is(err, store.ErrAccountNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	log.Printf("level=info component=ledger_service msg=\"transfer recorded\" from=%s to=%s amount=%s", source.Number, dest.Number, req.Amount.String())
	s.publishTransaction(outRec)
	s.publishTransaction(inRec)
	return outRec, inRec, nil
}

// CalculateInterestForAllAccounts runs one flat accrual pass over every
// interest-bearing account. Each account is locked, reloaded, accrued and
// persisted independently, so a failure on one account does not abort the
// pass. Every processed account gets an INTEREST record, including a zero
// credit for zero balances.
func (s *Service) CalculateInterestForAllAccounts(ctx context.Context) (*domain.InterestRunResult, error) {
	listCtx, cancel := s.withTimeout(ctx)
	accounts, err := s.repo.LoadAllAccounts(listCtx)
	cancel()
	if err != nil {
		return nil, err
	}

	result := &domain.InterestRunResult{TotalCredited: decimal.Zero}
	for _, listed := range accounts {
		if !listed.InterestBearing() {
			continue
		}
		credited, accrueErr := s.accrueOne(ctx, listed.Number)
		if accrueErr != nil {
			log.Printf("level=error component=ledger_service msg=\"interest accrual failed\" account=%s err=%v", listed.Number, accrueErr)
			continue
		}
		result.AccountsProcessed++
		result.TotalCredited = result.TotalCredited.Add(credited)
	}

	log.Printf("level=info component=ledger_service msg=\"interest run completed\" accounts=%d credited=%s", result.AccountsProcessed, result.TotalCredited.String())

	if s.eventProducer != nil {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
		event := domain.InterestRunCompletedEvent{
			EventID:           uuid.New(),
			AccountsProcessed: result.AccountsProcessed,
			TotalCredited:     result.TotalCredited,
			Timestamp:         time.Now().UTC(),
		}
		if err := s.eventProducer.PublishInterestRunCompleted(pubCtx, event); err != nil {
			log.Printf("level=warn component=ledger_service msg=\"interest run event publish failed\" err=%v", err)
		}
		pubCancel()
	}
	return result, nil
}

// accrueOne locks, reloads and accrues a single account, returning the
// credited interest.
func (s *Service) accrueOne(ctx context.Context, accountNumber string) (decimal.Decimal, error) {
	unlock := s.locks.Lock(accountNumber)
	defer unlock()

	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	account, err := s.repo.LoadAccount(dbCtx, accountNumber)
	if err != nil {
		return decimal.Zero, err
	}

	interest := account.AccrueInterest()
	rec, err := s.repo.ApplyBalanceChange(dbCtx, store.BalanceChange{
		AccountNumber: account.Number,
		NewBalance:    account.Balance,
		Type:          domain.TxInterest,
		Amount:        interest,
		Description:   "Interest accrual",
	})
	if err != nil {
		return decimal.Zero, err
	}
	s.publishTransaction(rec)
	return interest, nil
}

// ApplyCompoundInterest applies the monthly-compounded accrual over the full
// term of one investment account. It is an explicit, per-account operation
// and is never part of the standard accrual pass.
func (s *Service) ApplyCompoundInterest(ctx context.Context, accountNumber string) (*domain.TransactionRecord, error) {
	unlock := s.locks.Lock(accountNumber)
	defer unlock()

	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	account, err := s.repo.LoadAccount(dbCtx, accountNumber)
	if err != nil {
		return nil, err
	}
	if account.Kind != domain.KindInvestment {
		return nil, ErrNotInvestmentAccount
	}

	interest := account.CompoundInterest()
	rec, err := s.repo.ApplyBalanceChange(dbCtx, store.BalanceChange{
		AccountNumber: account.Number,
		NewBalance:    account.Balance,
		Type:          domain.TxInterest,
		Amount:        interest,
		Description:   fmt.Sprintf("Compound interest over %d months", account.TermMonths),
	})
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=ledger_service msg=\"compound interest applied\" account=%s credited=%s balance=%s", account.Number, interest.String(), account.Balance.String())
	s.publishTransaction(rec)
	return rec, nil
}

// GetStatement loads an account together with its most recent transactions,
// newest first. A missing limit falls back to the configured default; an
// oversized one is capped.
func (s *Service) GetStatement(ctx context.Context, accountNumber string, limit int) (*domain.Statement, error) {
	if limit <= 0 {
		limit = s.statementLimit
	}
	if limit > statementMaxLimit {
		limit = statementMaxLimit
	}

	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	account, err := s.repo.LoadAccount(dbCtx, accountNumber)
	if err != nil {
		return nil, err
	}
	transactions, err := s.repo.LoadTransactions(dbCtx, accountNumber, limit)
	if err != nil {
		return nil, err
	}
	return &domain.Statement{Account: account, Transactions: transactions}, nil
}

// CloseAccount removes an account. Accounts holding a non-zero balance are
// refused; the customer has to withdraw (or transfer) to zero first.
func (s *Service) CloseAccount(ctx context.Context, accountNumber string) error {
	unlock := s.locks.Lock(accountNumber)
	defer unlock()

	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	account, err := s.repo.LoadAccount(dbCtx, accountNumber)
	if err != nil {
		return err
	}
	if !account.Balance.IsZero() {
		return ErrAccountNotEmpty
	}

	if err := s.repo.DeleteAccount(dbCtx, accountNumber); err != nil {
		return err
	}
	log.Printf("level=info component=ledger_service msg=\"account closed\" account=%s customer_id=%s", account.Number, account.CustomerID)
	return nil
}

// GetBankSummary reports bank-wide aggregates.
func (s *Service) GetBankSummary(ctx context.Context) (*domain.BankSummary, error) {
	dbCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	customers, err := s.repo.CustomerCount(dbCtx)
	if err != nil {
		return nil, err
	}
	accounts, err := s.repo.AccountCount(dbCtx)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.TotalBalance(dbCtx)
	if err != nil {
		return nil, err
	}
	return &domain.BankSummary{
		TotalCustomers: customers,
		TotalAccounts:  accounts,
		TotalBalance:   total,
	}, nil
}
