package core

import "github.com/shopspring/decimal"

// DailyBalance is one point of a month's balance series.
type DailyBalance struct {
	Day       int             `json:"day"`
	Validated decimal.Decimal `json:"validatedBalance"`
	Projected decimal.Decimal `json:"projectedBalance"`
}

// CategoryTotal is the unsigned sum of one category's transactions over a range.
type CategoryTotal struct {
	Category Category        `json:"category"`
	Label    string          `json:"label"`
	Total    decimal.Decimal `json:"total"`
	// Percent is the share of the grand total, nil when the grand total is zero.
	Percent *decimal.Decimal `json:"percent,omitempty"`
}
