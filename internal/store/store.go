// Package store owns the accounts collection of the running process.
//
// Readers always receive copies. Every mutation builds a new collection from
// the current one and swaps it in; a rejected mutation leaves the previous
// collection untouched.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"budget/internal/core"
)

// Options configures a Store.
type Options struct {
	// StrictBalances rejects transaction changes that would leave a
	// non-checking account with a negative validated balance.
	StrictBalances bool

	// OnChange is called after each committed mutation, outside the lock.
	OnChange func(ctx context.Context, c Change)

	// NewID generates identifiers. Defaults to random UUIDs.
	NewID func() string
}

type Store struct {
	mu       sync.RWMutex
	accounts []core.Account
	opts     Options
}

var _ ReadWriter = (*Store)(nil)

// New returns a store holding a copy of seed.
func New(seed []core.Account, opts Options) (*Store, error) {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	accounts := make([]core.Account, 0, len(seed))
	seen := make(map[string]struct{}, len(seed))
	for _, a := range seed {
		if _, dup := seen[a.ID]; dup || a.ID == "" {
			return nil, fmt.Errorf("seed account %q: %w", a.ID, ErrDuplicateID)
		}
		seen[a.ID] = struct{}{}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("seed account %q: %w", a.ID, err)
		}
		for _, t := range a.Transactions {
			if err := t.Validate(); err != nil {
				return nil, fmt.Errorf("seed transaction %q of account %q: %w", t.ID, a.ID, err)
			}
		}
		c := a.Clone()
		if c.Transactions == nil {
			c.Transactions = []core.Transaction{}
		}
		accounts = append(accounts, c)
	}
	return &Store{accounts: accounts, opts: opts}, nil
}

// Accounts returns every account in insertion order.
func (s *Store) Accounts() []core.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Account, len(s.accounts))
	for i, a := range s.accounts {
		out[i] = a.Clone()
	}
	return out
}

// Len returns the number of accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

func (s *Store) Account(id string) (core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexAccount(s.accounts, id)
	if i < 0 {
		return core.Account{}, ErrAccountNotFound
	}
	return s.accounts[i].Clone(), nil
}

// Transactions returns the account's transactions matching f, newest first.
func (s *Store) Transactions(accountID string, f TransactionFilter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexAccount(s.accounts, accountID)
	if i < 0 {
		return nil, ErrAccountNotFound
	}
	out := make([]core.Transaction, 0, len(s.accounts[i].Transactions))
	for _, t := range s.accounts[i].Transactions {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// AllTransactions merges the transactions of every account.
func (s *Store) AllTransactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	for _, a := range s.accounts {
		n += len(a.Transactions)
	}
	out := make([]core.Transaction, 0, n)
	for _, a := range s.accounts {
		out = append(out, a.Transactions...)
	}
	return out
}

func (s *Store) Grouped() Groups {
	g := Groups{Checking: []core.Account{}, Savings: []core.Account{}}
	for _, a := range s.Accounts() {
		if a.Type == core.Checking {
			g.Checking = append(g.Checking, a)
		} else {
			g.Savings = append(g.Savings, a)
		}
	}
	return g
}

func (s *Store) AddAccount(ctx context.Context, in AccountInput) (core.Account, error) {
	a := core.Account{
		ID:             s.opts.NewID(),
		Label:          in.Label,
		Type:           in.Type,
		InitialBalance: core.RoundAmount(in.InitialBalance),
		BankID:         in.BankID,
		Transactions:   []core.Transaction{},
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	err := s.update(ctx, func(next []core.Account) ([]core.Account, Change, error) {
		return append(next, a), Change{Kind: AccountCreated, AccountID: a.ID}, nil
	})
	if err != nil {
		return core.Account{}, err
	}
	return a.Clone(), nil
}

// EditAccount applies p and re-validates the merged account.
func (s *Store) EditAccount(ctx context.Context, id string, p AccountPatch) (core.Account, error) {
	var edited core.Account
	err := s.update(ctx, func(next []core.Account) ([]core.Account, Change, error) {
		i := indexAccount(next, id)
		if i < 0 {
			return nil, Change{}, ErrAccountNotFound
		}
		a := p.apply(next[i].Clone())
		if err := a.Validate(); err != nil {
			return nil, Change{}, err
		}
		if err := s.checkBalance(a); err != nil {
			return nil, Change{}, err
		}
		next[i] = a
		edited = a
		return next, Change{Kind: AccountUpdated, AccountID: id}, nil
	})
	if err != nil {
		return core.Account{}, err
	}
	return edited.Clone(), nil
}

// DeleteAccount removes the account and all of its transactions.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	return s.update(ctx, func(next []core.Account) ([]core.Account, Change, error) {
		i := indexAccount(next, id)
		if i < 0 {
			return nil, Change{}, ErrAccountNotFound
		}
		return slices.Delete(next, i, i+1), Change{Kind: AccountDeleted, AccountID: id}, nil
	})
}

// AddTransaction records a new transaction at the head of the account's list.
func (s *Store) AddTransaction(ctx context.Context, accountID string, in TransactionInput) (core.Transaction, error) {
	t := in.transaction(s.opts.NewID())
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	err := s.update(ctx, func(next []core.Account) ([]core.Account, Change, error) {
		i := indexAccount(next, accountID)
		if i < 0 {
			return nil, Change{}, ErrAccountNotFound
		}
		a := next[i]
		txs := make([]core.Transaction, 0, len(a.Transactions)+1)
		a.Transactions = append(append(txs, t), a.Transactions...)
		if err := s.checkBalance(a); err != nil {
			return nil, Change{}, err
		}
		next[i] = a
		return next, Change{Kind: TransactionCreated, AccountID: accountID, TransactionID: t.ID}, nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// EditTransaction replaces every field of the transaction but its identifier.
func (s *Store) EditTransaction(ctx context.Context, accountID, txID string, in TransactionInput) (core.Transaction, error) {
	t := in.transaction(txID)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	err := s.updateTransaction(ctx, accountID, txID, TransactionUpdated, func(txs []core.Transaction, j int) []core.Transaction {
		txs[j] = t
		return txs
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, accountID, txID string) error {
	return s.updateTransaction(ctx, accountID, txID, TransactionDeleted, func(txs []core.Transaction, j int) []core.Transaction {
		return slices.Delete(txs, j, j+1)
	})
}

// ToggleValidation flips the validated flag and returns the updated transaction.
func (s *Store) ToggleValidation(ctx context.Context, accountID, txID string) (core.Transaction, error) {
	var toggled core.Transaction
	err := s.updateTransaction(ctx, accountID, txID, TransactionToggled, func(txs []core.Transaction, j int) []core.Transaction {
		txs[j].Validated = !txs[j].Validated
		toggled = txs[j]
		return txs
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return toggled, nil
}

func (s *Store) updateTransaction(ctx context.Context, accountID, txID string, kind Kind, fn func([]core.Transaction, int) []core.Transaction) error {
	return s.update(ctx, func(next []core.Account) ([]core.Account, Change, error) {
		i := indexAccount(next, accountID)
		if i < 0 {
			return nil, Change{}, ErrAccountNotFound
		}
		a := next[i].Clone()
		j := indexTransaction(a.Transactions, txID)
		if j < 0 {
			return nil, Change{}, ErrTransactionNotFound
		}
		a.Transactions = fn(a.Transactions, j)
		if err := s.checkBalance(a); err != nil {
			return nil, Change{}, err
		}
		next[i] = a
		return next, Change{Kind: kind, AccountID: accountID, TransactionID: txID}, nil
	})
}

// update runs fn against a shallow copy of the collection and commits the
// result only when fn succeeds. Accounts that fn changes must be replaced,
// never modified in place.
func (s *Store) update(ctx context.Context, fn func(next []core.Account) ([]core.Account, Change, error)) error {
	s.mu.Lock()
	next, change, err := fn(slices.Clone(s.accounts))
	if err != nil {
		s.mu.Unlock()
		slog.DebugContext(ctx, "Mutation rejected", "error", err)
		return err
	}
	s.accounts = next
	s.mu.Unlock()

	slog.DebugContext(ctx, "Mutation committed",
		"kind", change.Kind,
		"account_id", change.AccountID,
		"transaction_id", change.TransactionID)
	if s.opts.OnChange != nil {
		s.opts.OnChange(ctx, change)
	}
	return nil
}

func (s *Store) checkBalance(a core.Account) error {
	if s.opts.StrictBalances && !core.ValidateBalanceChange(a.Type, core.TotalBalance(a)) {
		return core.ErrInvalidBalance
	}
	return nil
}

func indexAccount(accounts []core.Account, id string) int {
	return slices.IndexFunc(accounts, func(a core.Account) bool { return a.ID == id })
}

func indexTransaction(txs []core.Transaction, id string) int {
	return slices.IndexFunc(txs, func(t core.Transaction) bool { return t.ID == id })
}
