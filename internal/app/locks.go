/**
 * @description
 * Per-account mutual exclusion for ledger operations. Two concurrent
 * operations on the same account number are serialized; operations on
 * disjoint accounts proceed in parallel. For transfers both accounts are
 * locked in lexicographic account-number order so two transfers over the
 * same pair, in opposite directions, cannot deadlock.
 */

package app

import "sync"

// accountLocks hands out one mutex per account number.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *accountLocks) get(accountNumber string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[accountNumber]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountNumber] = m
	}
	return m
}

// Lock acquires the mutex for one account and returns the unlock func.
func (l *accountLocks) Lock(accountNumber string) func() {
	m := l.get(accountNumber)
	m.Lock()
	return m.Unlock
}

// LockPair acquires both accounts' mutexes in lexicographic order and
// returns the unlock func. The two numbers must differ.
func (l *accountLocks) LockPair(a, b string) func() {
	if b < a {
		a, b = b, a
	}
	first, second := l.get(a), l.get(b)
	first.Lock()
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}
