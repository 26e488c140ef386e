/**
 * @description
 * This file defines the Customer model. A customer holds a set-like reference
 * list to its accounts; each Account remains the authoritative owner of its
 * balance. Customer ids are assigned by the ledger engine as a monotonically
 * increasing CUST{n} sequence.
 */

package domain

import "github.com/shopspring/decimal"

// Customer represents one registered bank customer.
type Customer struct {
	ID        string     `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address"`
	Accounts  []*Account `json:"accounts,omitempty"`
}

// FullName returns the customer's display name.
func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// AddAccount attaches an account reference. Adding an account that is already
// present (by account number) is a no-op.
func (c *Customer) AddAccount(a *Account) {
	if a == nil {
		return
	}
	for _, existing := range c.Accounts {
		if existing.Number == a.Number {
			return
		}
	}
	c.Accounts = append(c.Accounts, a)
}

// RemoveAccount detaches an account by number. Absent accounts are ignored.
func (c *Customer) RemoveAccount(accountNumber string) {
	for i, existing := range c.Accounts {
		if existing.Number == accountNumber {
			c.Accounts = append(c.Accounts[:i], c.Accounts[i+1:]...)
			return
		}
	}
}

// FindAccount returns the attached account with the given number, or nil.
func (c *Customer) FindAccount(accountNumber string) *Account {
	for _, a := range c.Accounts {
		if a.Number == accountNumber {
			return a
		}
	}
	return nil
}

// TotalBalance sums the current balances of all attached accounts.
func (c *Customer) TotalBalance() decimal.Decimal {
	total := decimal.Zero
	for _, a := range c.Accounts {
		total = total.Add(a.Balance)
	}
	return total
}
