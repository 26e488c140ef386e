/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. It contains all the SQL for the customers, accounts, and
 * transactions tables plus the id sequences (see db/schema.sql).
 *
 * The composite operations run inside a single database transaction. For a
 * transfer, both account rows are locked with SELECT ... FOR UPDATE in
 * lexicographic account-number order so two concurrent transfers over the
 * same pair cannot deadlock, and both balance updates and both transaction
 * records commit together or not at all.
 *
 * @dependencies
 * - context, errors, fmt: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver.
 * - github.com/shopspring/decimal: Balance arithmetic.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/corebank/ledger-service/internal/domain"
)

// PostgresRepository is the production Repository backed by a pgx pool.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// wrapErr maps context deadline failures onto ErrPersistenceUnavailable so the
// app layer can distinguish a slow/unreachable database from a domain failure.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
	return err
}

const accountColumns = `number, customer_id, kind, balance::text,
	COALESCE(overdraft_limit, 0)::text, COALESCE(withdrawal_limit, 0)::text,
	COALESCE(minimum_balance, 0)::text, COALESCE(interest_rate, 0)::text,
	COALESCE(investment_type, ''), COALESCE(term_months, 0)`

// scanAccount reads one account row. Numeric columns arrive as text so the
// values stay exact decimals end to end.
func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a                                           domain.Account
		kind, balance, overdraft, limit, floor, rate string
	)
	err := row.Scan(&a.Number, &a.CustomerID, &kind, &balance,
		&overdraft, &limit, &floor, &rate, &a.InvestmentType, &a.TermMonths)
	if err != nil {
		return nil, err
	}
	a.Kind = domain.AccountKind(kind)
	if a.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("invalid balance for account %s: %w", a.Number, err)
	}
	if a.OverdraftLimit, err = decimal.NewFromString(overdraft); err != nil {
		return nil, err
	}
	if a.WithdrawalLimit, err = decimal.NewFromString(limit); err != nil {
		return nil, err
	}
	if a.MinimumBalance, err = decimal.NewFromString(floor); err != nil {
		return nil, err
	}
	if a.InterestRate, err = decimal.NewFromString(rate); err != nil {
		return nil, err
	}
	return &a, nil
}

// accountInsertArgs maps an account onto the kind-specific column set. The
// switch is exhaustive over domain.AccountKind.
func accountInsertArgs(a *domain.Account) ([]interface{}, error) {
	var (
		overdraft, limit, floor, rate *string
		investmentType                *string
		termMonths                    *int
	)
	str := func(d decimal.Decimal) *string { s := d.String(); return &s }
	switch a.Kind {
	case domain.KindCheque:
		overdraft = str(a.OverdraftLimit)
		limit = str(a.WithdrawalLimit)
	case domain.KindSavings:
		limit = str(a.WithdrawalLimit)
		floor = str(a.MinimumBalance)
		rate = str(a.InterestRate)
	case domain.KindInvestment:
		rate = str(a.InterestRate)
		investmentType = &a.InvestmentType
		termMonths = &a.TermMonths
	default:
		return nil, domain.ErrUnknownAccountKind
	}
	return []interface{}{
		a.Number, a.CustomerID, string(a.Kind), a.Balance.String(),
		overdraft, limit, floor, rate, investmentType, termMonths,
	}, nil
}

// SaveNewCustomer inserts a customer row. A unique-violation on the email
// column surfaces as ErrDuplicateEmail.
func (r *PostgresRepository) SaveNewCustomer(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (id, first_name, last_name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		customer.ID, customer.FirstName, customer.LastName,
		customer.Email, customer.Phone, customer.Address,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return wrapErr(err)
	}
	return nil
}

// LoadCustomer retrieves a customer by id, without its accounts.
func (r *PostgresRepository) LoadCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	var c domain.Customer
	query := `SELECT id, first_name, last_name, email, phone, address FROM customers WHERE id = $1`
	err := r.db.QueryRow(ctx, query, customerID).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, wrapErr(err)
	}
	return &c, nil
}

// FindCustomerByEmail retrieves a customer by email, case-insensitively.
func (r *PostgresRepository) FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	var c domain.Customer
	query := `SELECT id, first_name, last_name, email, phone, address FROM customers WHERE lower(email) = lower($1)`
	err := r.db.QueryRow(ctx, query, email).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, wrapErr(err)
	}
	return &c, nil
}

// EmailExists reports whether any customer has registered the email.
func (r *PostgresRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM customers WHERE lower(email) = lower($1))`
	if err := r.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, wrapErr(err)
	}
	return exists, nil
}

// UpdateCustomer rewrites a customer's name and contact columns. A
// unique-violation on the email column surfaces as ErrDuplicateEmail.
func (r *PostgresRepository) UpdateCustomer(ctx context.Context, customer *domain.Customer) error {
	query := `
		UPDATE customers
		SET first_name = $1, last_name = $2, email = $3, phone = $4, address = $5
		WHERE id = $6
	`
	tag, err := r.db.Exec(ctx, query,
		customer.FirstName, customer.LastName, customer.Email,
		customer.Phone, customer.Address, customer.ID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// DeleteCustomer removes a customer row. The schema cascades the delete to
// the customer's accounts and their transaction history.
func (r *PostgresRepository) DeleteCustomer(ctx context.Context, customerID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, customerID)
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// CustomerCount returns the number of registered customers.
func (r *PostgresRepository) CustomerCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&count); err != nil {
		return 0, wrapErr(err)
	}
	return count, nil
}

// NextCustomerSeq returns the next value of the customer id sequence.
func (r *PostgresRepository) NextCustomerSeq(ctx context.Context) (int64, error) {
	var next int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('customer_seq')`).Scan(&next); err != nil {
		return 0, wrapErr(err)
	}
	return next, nil
}

// NextAccountSeq returns the next value of the account number sequence. The
// sequence is shared across account kinds; the kind prefix is applied by the
// ledger engine.
func (r *PostgresRepository) NextAccountSeq(ctx context.Context) (int64, error) {
	var next int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('account_seq')`).Scan(&next); err != nil {
		return 0, wrapErr(err)
	}
	return next, nil
}

// SaveNewAccount inserts an account row and, when an opening change is given,
// its opening transaction record in the same database transaction.
func (r *PostgresRepository) SaveNewAccount(ctx context.Context, account *domain.Account, opening *BalanceChange) error {
	args, err := accountInsertArgs(account)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return wrapErr(err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO accounts (
			number, customer_id, kind, balance,
			overdraft_limit, withdrawal_limit, minimum_balance, interest_rate,
			investment_type, term_months
		)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8::numeric, $9, $10)
	`
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateAccount
		}
		return wrapErr(err)
	}

	if opening != nil {
		if _, err := appendTransactionTx(ctx, tx, opening); err != nil {
			return wrapErr(err)
		}
	}

	return wrapErr(tx.Commit(ctx))
}

// LoadAccount retrieves one account by its number.
func (r *PostgresRepository) LoadAccount(ctx context.Context, accountNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE number = $1`
	account, err := scanAccount(r.db.QueryRow(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, wrapErr(err)
	}
	return account, nil
}

// LoadAccountsByCustomer retrieves all accounts owned by a customer.
func (r *PostgresRepository) LoadAccountsByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE customer_id = $1 ORDER BY number`
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, wrapErr(err)
		}
		accounts = append(accounts, account)
	}
	return accounts, wrapErr(rows.Err())
}

// LoadAllAccounts retrieves every account. Used by the interest accrual pass
// and bank-wide reporting.
func (r *PostgresRepository) LoadAllAccounts(ctx context.Context) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY number`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, wrapErr(err)
		}
		accounts = append(accounts, account)
	}
	return accounts, wrapErr(rows.Err())
}

// UpdateBalance overwrites an account's balance.
func (r *PostgresRepository) UpdateBalance(ctx context.Context, accountNumber string, newBalance decimal.Decimal) error {
	query := `UPDATE accounts SET balance = $1::numeric, updated_at = NOW() WHERE number = $2`
	tag, err := r.db.Exec(ctx, query, newBalance.String(), accountNumber)
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// DeleteAccount removes an account row. The schema cascades the delete to the
// account's transaction history.
func (r *PostgresRepository) DeleteAccount(ctx context.Context, accountNumber string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE number = $1`, accountNumber)
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// AccountCount returns the number of open accounts.
func (r *PostgresRepository) AccountCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return 0, wrapErr(err)
	}
	return count, nil
}

// TotalBalance sums every open account's balance.
func (r *PostgresRepository) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	var total string
	query := `SELECT COALESCE(SUM(balance), 0)::text FROM accounts`
	if err := r.db.QueryRow(ctx, query).Scan(&total); err != nil {
		return decimal.Zero, wrapErr(err)
	}
	result, err := decimal.NewFromString(total)
	if err != nil {
		return decimal.Zero, err
	}
	return result, nil
}

// AppendTransaction inserts one transaction record and backfills its id and
// timestamp.
func (r *PostgresRepository) AppendTransaction(ctx context.Context, rec *domain.TransactionRecord) error {
	query := `
		INSERT INTO transactions (account_number, type, amount, balance_after, description, counterparty_account)
		VALUES ($1, $2, $3::numeric, $4::numeric, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		rec.AccountNumber, string(rec.Type), rec.Amount.String(),
		rec.BalanceAfter.String(), rec.Description, rec.Counterparty,
	).Scan(&rec.ID, &rec.CreatedAt)
	return wrapErr(err)
}

// LoadTransactions retrieves an account's records, newest first.
func (r *PostgresRepository) LoadTransactions(ctx context.Context, accountNumber string, limit int) ([]domain.TransactionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	query := `
		SELECT id, account_number, type, amount::text, balance_after::text,
		       COALESCE(description, ''), counterparty_account, created_at
		FROM transactions
		WHERE account_number = $1
		ORDER BY id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, accountNumber, limit)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var records []domain.TransactionRecord
	for rows.Next() {
		var (
			rec                      domain.TransactionRecord
			txType, amount, balance string
		)
		err := rows.Scan(&rec.ID, &rec.AccountNumber, &txType, &amount,
			&balance, &rec.Description, &rec.Counterparty, &rec.CreatedAt)
		if err != nil {
			return nil, wrapErr(err)
		}
		rec.Type = domain.TransactionType(txType)
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if rec.BalanceAfter, err = decimal.NewFromString(balance); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, wrapErr(rows.Err())
}

// appendTransactionTx inserts a record built from a BalanceChange inside an
// open transaction.
func appendTransactionTx(ctx context.Context, tx pgx.Tx, change *BalanceChange) (*domain.TransactionRecord, error) {
	rec := &domain.TransactionRecord{
		AccountNumber: change.AccountNumber,
		Type:          change.Type,
		Amount:        change.Amount,
		BalanceAfter:  change.NewBalance,
		Description:   change.Description,
		Counterparty:  change.Counterparty,
	}
	query := `
		INSERT INTO transactions (account_number, type, amount, balance_after, description, counterparty_account)
		VALUES ($1, $2, $3::numeric, $4::numeric, $5, $6)
		RETURNING id, created_at
	`
	err := tx.QueryRow(ctx, query,
		rec.AccountNumber, string(rec.Type), rec.Amount.String(),
		rec.BalanceAfter.String(), rec.Description, rec.Counterparty,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// lockAccountTx locks one account row for update within an open transaction.
func lockAccountTx(ctx context.Context, tx pgx.Tx, accountNumber string) error {
	var number string
	err := tx.QueryRow(ctx, `SELECT number FROM accounts WHERE number = $1 FOR UPDATE`, accountNumber).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAccountNotFound
	}
	return err
}

// updateBalanceTx overwrites one account's balance within an open transaction.
func updateBalanceTx(ctx context.Context, tx pgx.Tx, accountNumber string, newBalance decimal.Decimal) error {
	tag, err := tx.Exec(ctx,
		`UPDATE accounts SET balance = $1::numeric, updated_at = NOW() WHERE number = $2`,
		newBalance.String(), accountNumber)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ApplyBalanceChange commits one balance update and its transaction record as
// a single atomic unit.
func (r *PostgresRepository) ApplyBalanceChange(ctx context.Context, change BalanceChange) (*domain.TransactionRecord, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer tx.Rollback(ctx)

	if err := lockAccountTx(ctx, tx, change.AccountNumber); err != nil {
		return nil, wrapErr(err)
	}
	if err := updateBalanceTx(ctx, tx, change.AccountNumber, change.NewBalance); err != nil {
		return nil, wrapErr(err)
	}
	rec, err := appendTransactionTx(ctx, tx, &change)
	if err != nil {
		return nil, wrapErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, wrapErr(err)
	}
	return rec, nil
}

// ApplyTransfer commits both legs of a transfer (two balance updates and the
// TRANSFER_OUT/TRANSFER_IN record pair) atomically. Rows are locked in
// lexicographic account-number order to avoid deadlock between concurrent
// transfers over the same pair.
func (r *PostgresRepository) ApplyTransfer(ctx context.Context, out, in BalanceChange) (*domain.TransactionRecord, *domain.TransactionRecord, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, wrapErr(err)
	}
	defer tx.Rollback(ctx)

	first, second := out.AccountNumber, in.AccountNumber
	if second < first {
		first, second = second, first
	}
	if err := lockAccountTx(ctx, tx, first); err != nil {
		return nil, nil, wrapErr(err)
	}
	if err := lockAccountTx(ctx, tx, second); err != nil {
		return nil, nil, wrapErr(err)
	}

	if err := updateBalanceTx(ctx, tx, out.AccountNumber, out.NewBalance); err != nil {
		return nil, nil, wrapErr(err)
	}
	if err := updateBalanceTx(ctx, tx, in.AccountNumber, in.NewBalance); err != nil {
		return nil, nil, wrapErr(err)
	}

	outRec, err := appendTransactionTx(ctx, tx, &out)
	if err != nil {
		return nil, nil, wrapErr(err)
	}
	inRec, err := appendTransactionTx(ctx, tx, &in)
	if err != nil {
		return nil, nil, wrapErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, wrapErr(err)
	}
	return outRec, inRec, nil
}
