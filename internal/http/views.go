package http

import (
	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// AccountView is an account as listed by the API, with its derived balances.
// Transactions are served by their own endpoint.
type AccountView struct {
	ID               string           `json:"id"`
	Label            string           `json:"label"`
	Type             core.AccountType `json:"type"`
	TypeLabel        string           `json:"typeLabel"`
	InitialBalance   decimal.Decimal  `json:"initialBalance"`
	TotalBalance     decimal.Decimal  `json:"totalBalance"`
	ProjectedBalance decimal.Decimal  `json:"projectedBalance"`
	Tone             core.Tone        `json:"tone"`
	Bank             *core.Bank       `json:"bank,omitempty"`
	Transactions     int              `json:"transactionCount"`
}

func newAccountView(a core.Account) AccountView {
	total := core.TotalBalance(a)
	v := AccountView{
		ID:               a.ID,
		Label:            a.Label,
		Type:             a.Type,
		TypeLabel:        core.AccountTypeLabel(a.Type),
		InitialBalance:   a.InitialBalance,
		TotalBalance:     total,
		ProjectedBalance: core.ProjectedBalance(a),
		Tone:             core.BalanceTone(a.Type, total),
		Transactions:     len(a.Transactions),
	}
	if b, ok := core.LookupBank(a.BankID); ok {
		v.Bank = &b
	}
	return v
}

func newAccountViews(accounts []core.Account) []AccountView {
	views := make([]AccountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, newAccountView(a))
	}
	return views
}

// GroupedView lists checking accounts first, then savings.
type GroupedView struct {
	Checking []AccountView `json:"checking"`
	Savings  []AccountView `json:"savings"`
}

// BalanceView is the daily balance series of one account over one month.
type BalanceView struct {
	AccountID string              `json:"accountId"`
	Year      int                 `json:"year"`
	Month     int                 `json:"month"`
	Days      []core.DailyBalance `json:"days"`
	Closing   ClosingView         `json:"closing"`
}

type ClosingView struct {
	Validated decimal.Decimal `json:"validatedBalance"`
	Projected decimal.Decimal `json:"projectedBalance"`
}

// DistributionView lists category totals, largest first.
type DistributionView struct {
	Account   string               `json:"account"`
	From      core.Date            `json:"from"`
	To        core.Date            `json:"to"`
	Direction core.Direction       `json:"direction"`
	Total     decimal.Decimal      `json:"total"`
	Groups    []core.CategoryTotal `json:"groups"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
