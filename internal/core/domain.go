package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

const (
	Checking AccountType = "CHECKING"
	LivretA  AccountType = "LIVRET_A"
	LDDS     AccountType = "LDDS"
	PEL      AccountType = "PEL"
	PEA      AccountType = "PEA"
	PER      AccountType = "PER"
)

const (
	Transport Category = "TRANSPORT"
	Rent      Category = "RENT"
	Salary    Category = "SALARY"
	Food      Category = "FOOD"
)

const (
	Credit Direction = "CREDIT"
	Debit  Direction = "DEBIT"
)

type (
	AccountType string
	Category    string
	Direction   string

	// Date is a calendar date stored as UTC midnight.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID        string          `json:"id"`
		Date      Date            `json:"date"`
		Label     string          `json:"label"`
		Category  Category        `json:"category"`
		Direction Direction       `json:"direction"`
		Amount    decimal.Decimal `json:"amount"`
		Validated bool            `json:"validated"`
	}

	Account struct {
		ID             string          `json:"id"`
		Label          string          `json:"label"`
		Type           AccountType     `json:"type"`
		InitialBalance decimal.Decimal `json:"initialBalance"`
		BankID         string          `json:"bankId,omitempty"`
		Transactions   []Transaction   `json:"transactions"`
	}
)

var (
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyLabel         = errors.New("empty label")
	ErrLabelTooLong       = errors.New("label too long (max 200 characters)")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidDirection   = errors.New("invalid direction")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrUnknownBank        = errors.New("unknown bank")

	// ErrInvalidBalance is returned when a non-checking account would carry a negative balance.
	ErrInvalidBalance = errors.New("this account type cannot carry a negative balance")
)

const maxLabelLength = 200

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// DaysInMonth returns the number of days of month in year, leap years included.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Validate rejects the zero date, which is what a missing JSON date decodes to.
func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidDate)
	}
	return nil
}

// InMonth reports whether d falls within the given year and month.
func (d Date) InMonth(year int, month time.Month) bool {
	y, m, _ := d.Date()
	return y == year && m == month
}

// Between reports whether from <= d <= to.
func (d Date) Between(from, to Date) bool {
	return !d.Before(from.Time) && !d.After(to.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (c Category) Valid() bool {
	switch c {
	case Transport, Rent, Salary, Food:
		return true
	}
	return false
}

func (d Direction) Valid() bool {
	return d == Credit || d == Debit
}

func (t AccountType) Valid() bool {
	switch t {
	case Checking, LivretA, LDDS, PEL, PEA, PER:
		return true
	}
	return false
}

func validateLabel(label string) error {
	if len(strings.TrimSpace(label)) == 0 {
		return ErrEmptyLabel
	}
	if len(label) > maxLabelLength {
		return ErrLabelTooLong
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := validateLabel(t.Label); err != nil {
		return err
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !t.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, t.Category)
	}
	if !t.Direction.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, t.Direction)
	}
	return nil
}

// Validate checks the account's own fields. Transactions are validated when they are recorded.
func (a Account) Validate() error {
	if err := validateLabel(a.Label); err != nil {
		return err
	}
	if !a.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAccountType, a.Type)
	}
	if a.BankID != "" {
		if _, ok := LookupBank(a.BankID); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownBank, a.BankID)
		}
	}
	if !ValidateBalanceChange(a.Type, a.InitialBalance) {
		return ErrInvalidBalance
	}
	return nil
}

// Clone returns a deep copy of the account.
func (a Account) Clone() Account {
	out := a
	if a.Transactions != nil {
		out.Transactions = make([]Transaction, len(a.Transactions))
		copy(out.Transactions, a.Transactions)
	}
	return out
}
