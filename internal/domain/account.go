/**
 * @description
 * This file defines the Account model and its per-kind business rules. An account
 * is a tagged struct rather than an interface hierarchy: the `Kind` field selects
 * the withdrawal and interest policy through exhaustive switches, so adding a new
 * kind is a compile-visible change instead of a runtime type check.
 *
 * @notes
 * - Balances and limits use decimal.Decimal so that amounts like 0.03 and 100.00
 *   behave as fixed-point money, not binary floats.
 * - Deposit and Withdraw mutate only the Balance field. Persistence and
 *   transaction recording belong to the app layer.
 *
 * @dependencies
 * - github.com/shopspring/decimal: Fixed-point decimal arithmetic.
 */

package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// AccountKind discriminates the account policy variants.
type AccountKind string

const (
	KindCheque     AccountKind = "cheque"
	KindSavings    AccountKind = "savings"
	KindInvestment AccountKind = "investment"
)

// Policy errors returned by Deposit and Withdraw.
var (
	ErrInvalidAmount               = errors.New("amount must be greater than zero")
	ErrWithdrawalLimitExceeded     = errors.New("amount exceeds per-operation withdrawal limit")
	ErrOverdraftExceeded           = errors.New("amount exceeds balance plus overdraft limit")
	ErrMinimumBalanceBreach        = errors.New("withdrawal would breach minimum balance")
	ErrPartialInvestmentWithdrawal = errors.New("investment accounts only allow full closeout")
	ErrUnknownAccountKind          = errors.New("unknown account kind")
)

// Default policy parameters applied by the constructors.
var (
	DefaultOverdraftLimit          = decimal.NewFromFloat(1000.00)
	DefaultChequeWithdrawalLimit   = decimal.NewFromFloat(5000.00)
	DefaultSavingsInterestRate     = decimal.NewFromFloat(0.03)
	DefaultSavingsWithdrawalLimit  = decimal.NewFromFloat(10000.00)
	DefaultMinimumBalance          = decimal.NewFromFloat(100.00)
	DefaultInvestmentInterestRate  = decimal.NewFromFloat(0.05)
	DefaultInvestmentTermMonths    = 12
	MinimumSavingsInitialDeposit   = decimal.NewFromFloat(100.00)
)

// Account is the authoritative balance owner for one account number.
// Which of the kind-specific fields are meaningful depends on Kind.
type Account struct {
	Number     string          `json:"number"`
	CustomerID string          `json:"customer_id"`
	Kind       AccountKind     `json:"kind"`
	Balance    decimal.Decimal `json:"balance"`

	// Cheque
	OverdraftLimit decimal.Decimal `json:"overdraft_limit,omitempty"`

	// Cheque and savings
	WithdrawalLimit decimal.Decimal `json:"withdrawal_limit,omitempty"`

	// Savings
	MinimumBalance decimal.Decimal `json:"minimum_balance,omitempty"`

	// Savings and investment
	InterestRate decimal.Decimal `json:"interest_rate,omitempty"`

	// Investment
	InvestmentType string `json:"investment_type,omitempty"`
	TermMonths     int    `json:"term_months,omitempty"`
}

// NewChequeAccount creates a cheque account with default overdraft and
// withdrawal limits and a zero balance.
func NewChequeAccount(number, customerID string) *Account {
	return &Account{
		Number:          number,
		CustomerID:      customerID,
		Kind:            KindCheque,
		Balance:         decimal.Zero,
		OverdraftLimit:  DefaultOverdraftLimit,
		WithdrawalLimit: DefaultChequeWithdrawalLimit,
	}
}

// NewSavingsAccount creates a savings account holding the initial deposit.
// The minimum-deposit rule is enforced by the ledger engine, not here.
func NewSavingsAccount(number, customerID string, initialDeposit decimal.Decimal) *Account {
	return &Account{
		Number:          number,
		CustomerID:      customerID,
		Kind:            KindSavings,
		Balance:         initialDeposit,
		InterestRate:    DefaultSavingsInterestRate,
		WithdrawalLimit: DefaultSavingsWithdrawalLimit,
		MinimumBalance:  DefaultMinimumBalance,
	}
}

// NewInvestmentAccount creates an investment account holding the initial deposit.
func NewInvestmentAccount(number, customerID, investmentType string, initialDeposit decimal.Decimal) *Account {
	return &Account{
		Number:         number,
		CustomerID:     customerID,
		Kind:           KindInvestment,
		Balance:        initialDeposit,
		InterestRate:   DefaultInvestmentInterestRate,
		InvestmentType: investmentType,
		TermMonths:     DefaultInvestmentTermMonths,
	}
}

// Deposit increases the balance. It fails only for non-positive amounts;
// there is no upper bound on deposits for any account kind.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	a.Balance = a.Balance.Add(amount)
	return nil
}

// Withdraw decreases the balance subject to the kind's policy. On error the
// balance is unchanged.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	switch a.Kind {
	case KindCheque:
		if amount.Sign() <= 0 {
			return ErrInvalidAmount
		}
		if amount.GreaterThan(a.WithdrawalLimit) {
			return ErrWithdrawalLimitExceeded
		}
		if amount.GreaterThan(a.Balance.Add(a.OverdraftLimit)) {
			return ErrOverdraftExceeded
		}
		a.Balance = a.Balance.Sub(amount)
		return nil

	case KindSavings:
		if amount.Sign() <= 0 {
			return ErrInvalidAmount
		}
		if amount.GreaterThan(a.WithdrawalLimit) {
			return ErrWithdrawalLimitExceeded
		}
		if a.Balance.Sub(amount).LessThan(a.MinimumBalance) {
			return ErrMinimumBalanceBreach
		}
		a.Balance = a.Balance.Sub(amount)
		return nil

	case KindInvestment:
		// Full closeout is the only permitted withdrawal, including rejecting
		// zero against a zero balance.
		if amount.Sign() <= 0 || !amount.Equal(a.Balance) {
			return ErrPartialInvestmentWithdrawal
		}
		a.Balance = decimal.Zero
		return nil
	}
	return ErrUnknownAccountKind
}

// InterestBearing reports whether the standard accrual pass applies to this
// account. Cheque accounts never accrue interest.
func (a *Account) InterestBearing() bool {
	return a.Kind == KindSavings || a.Kind == KindInvestment
}

// AccrueInterest applies one flat, non-compounding accrual step
// (balance * rate) and returns the credited interest. The caller persists the
// new balance and records the INTEREST transaction.
func (a *Account) AccrueInterest() decimal.Decimal {
	if !a.InterestBearing() {
		return decimal.Zero
	}
	interest := a.Balance.Mul(a.InterestRate)
	if interest.Sign() > 0 {
		a.Balance = a.Balance.Add(interest)
	}
	return interest
}

// CompoundInterest applies the monthly-compounded accrual over the account's
// term (balance * (1+rate/12)^termMonths - balance) and returns the credited
// interest. It is an explicit alternate operation for investment accounts and
// is never invoked by the standard accrual pass.
func (a *Account) CompoundInterest() decimal.Decimal {
	if a.Kind != KindInvestment {
		return decimal.Zero
	}
	monthlyRate := a.InterestRate.Div(decimal.NewFromInt(12))
	compounded := a.Balance.Mul(decimal.NewFromInt(1).Add(monthlyRate).Pow(decimal.NewFromInt(int64(a.TermMonths))))
	interest := compounded.Sub(a.Balance)
	if interest.Sign() > 0 {
		a.Balance = a.Balance.Add(interest)
	}
	return interest
}
