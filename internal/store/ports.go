package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrAccountNotFound     = fmt.Errorf("account %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrDuplicateID         = errors.New("duplicate identifier")
)

// Kind names a committed mutation.
type Kind string

const (
	AccountCreated     Kind = "account.created"
	AccountUpdated     Kind = "account.updated"
	AccountDeleted     Kind = "account.deleted"
	TransactionCreated Kind = "transaction.created"
	TransactionUpdated Kind = "transaction.updated"
	TransactionDeleted Kind = "transaction.deleted"
	TransactionToggled Kind = "transaction.toggled"
)

// Kinds lists every mutation kind.
func Kinds() []Kind {
	return []Kind{
		AccountCreated, AccountUpdated, AccountDeleted,
		TransactionCreated, TransactionUpdated, TransactionDeleted, TransactionToggled,
	}
}

type (
	// Change describes a committed mutation. TransactionID is empty for account changes.
	Change struct {
		Kind          Kind
		AccountID     string
		TransactionID string
	}

	AccountInput struct {
		Label          string           `json:"label"`
		Type           core.AccountType `json:"type"`
		InitialBalance decimal.Decimal  `json:"initialBalance"`
		BankID         string           `json:"bankId,omitempty"`
	}

	// AccountPatch changes only the fields that are set.
	AccountPatch struct {
		Label          *string           `json:"label,omitempty"`
		Type           *core.AccountType `json:"type,omitempty"`
		InitialBalance *decimal.Decimal  `json:"initialBalance,omitempty"`
		BankID         *string           `json:"bankId,omitempty"`
	}

	TransactionInput struct {
		Date      core.Date       `json:"date"`
		Label     string          `json:"label"`
		Category  core.Category   `json:"category"`
		Direction core.Direction  `json:"direction"`
		Amount    decimal.Decimal `json:"amount"`
		Validated bool            `json:"validated"`
	}

	// TransactionFilter narrows an account's transactions to one month.
	// A zero Year or Month disables the month filter.
	TransactionFilter struct {
		Year            int
		Month           time.Month
		UnvalidatedOnly bool
	}

	// Groups splits accounts the way they are listed: checking first, then savings.
	Groups struct {
		Checking []core.Account `json:"checking"`
		Savings  []core.Account `json:"savings"`
	}
)

// Ports used by the stats service and the outer surfaces.
type (
	Reader interface {
		Accounts() []core.Account
		Account(id string) (core.Account, error)
		Transactions(accountID string, f TransactionFilter) ([]core.Transaction, error)
		AllTransactions() []core.Transaction
	}

	Writer interface {
		AddAccount(ctx context.Context, in AccountInput) (core.Account, error)
		EditAccount(ctx context.Context, id string, p AccountPatch) (core.Account, error)
		DeleteAccount(ctx context.Context, id string) error
		AddTransaction(ctx context.Context, accountID string, in TransactionInput) (core.Transaction, error)
		EditTransaction(ctx context.Context, accountID, txID string, in TransactionInput) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, accountID, txID string) error
		ToggleValidation(ctx context.Context, accountID, txID string) (core.Transaction, error)
	}

	ReadWriter interface {
		Reader
		Writer
	}
)

func (in TransactionInput) transaction(id string) core.Transaction {
	return core.Transaction{
		ID:        id,
		Date:      in.Date,
		Label:     in.Label,
		Category:  in.Category,
		Direction: in.Direction,
		Amount:    core.RoundAmount(in.Amount),
		Validated: in.Validated,
	}
}

// UnmarshalJSON reads the amount with core.ParseAmount, so "12,34" and
// "12.345" arrive as 12.34 and 12.35. Unknown fields are rejected.
func (in *TransactionInput) UnmarshalJSON(b []byte) error {
	type plain TransactionInput
	var aux struct {
		plain
		Amount json.RawMessage `json:"amount"`
	}
	if err := decodeStrict(b, &aux); err != nil {
		return err
	}
	amount, set, err := parseAmountJSON(aux.Amount, core.ParseAmount)
	if err != nil {
		return err
	}
	*in = TransactionInput(aux.plain)
	if set {
		in.Amount = amount
	}
	return nil
}

// UnmarshalJSON reads the initial balance with core.ParseSignedAmount.
func (in *AccountInput) UnmarshalJSON(b []byte) error {
	type plain AccountInput
	var aux struct {
		plain
		InitialBalance json.RawMessage `json:"initialBalance"`
	}
	if err := decodeStrict(b, &aux); err != nil {
		return err
	}
	balance, set, err := parseAmountJSON(aux.InitialBalance, core.ParseSignedAmount)
	if err != nil {
		return err
	}
	*in = AccountInput(aux.plain)
	if set {
		in.InitialBalance = balance
	}
	return nil
}

// UnmarshalJSON reads the initial balance with core.ParseSignedAmount. An
// absent or null balance leaves it unchanged.
func (p *AccountPatch) UnmarshalJSON(b []byte) error {
	type plain AccountPatch
	var aux struct {
		plain
		InitialBalance json.RawMessage `json:"initialBalance"`
	}
	if err := decodeStrict(b, &aux); err != nil {
		return err
	}
	balance, set, err := parseAmountJSON(aux.InitialBalance, core.ParseSignedAmount)
	if err != nil {
		return err
	}
	*p = AccountPatch(aux.plain)
	if set {
		p.InitialBalance = &balance
	}
	return nil
}

func decodeStrict(b []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// parseAmountJSON accepts a JSON string or number. set is false when the
// value is absent or null.
func parseAmountJSON(raw json.RawMessage, parse func(string) (decimal.Decimal, error)) (d decimal.Decimal, set bool, err error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Zero, false, nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, false, fmt.Errorf("%w: %s", core.ErrInvalidAmount, raw)
		}
	}
	d, err = parse(s)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("%w: %q", err, s)
	}
	return d, true, nil
}

func (p AccountPatch) apply(a core.Account) core.Account {
	if p.Label != nil {
		a.Label = *p.Label
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.InitialBalance != nil {
		a.InitialBalance = core.RoundAmount(*p.InitialBalance)
	}
	if p.BankID != nil {
		a.BankID = *p.BankID
	}
	return a
}

// Match reports whether t passes the filter.
func (f TransactionFilter) Match(t core.Transaction) bool {
	if f.UnvalidatedOnly && t.Validated {
		return false
	}
	if f.Year != 0 && f.Month != 0 && !t.Date.InMonth(f.Year, f.Month) {
		return false
	}
	return true
}
