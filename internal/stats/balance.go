// Package stats derives the read-only projections shown next to an account:
// the daily balance series of a month and the category distribution of a range.
package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// MonthlyBalance returns one record per calendar day of the month, in day order.
//
// Both running totals start from the account's initial balance, not from the
// closing balance of the previous month. Transactions dated outside the month
// are ignored. An invalid month yields an empty series.
func MonthlyBalance(a core.Account, year int, month time.Month) []core.DailyBalance {
	if month < time.January || month > time.December {
		return []core.DailyBalance{}
	}

	days := core.DaysInMonth(year, month)
	byDay := make([][]core.Transaction, days+1)
	for _, t := range a.Transactions {
		if t.Date.InMonth(year, month) {
			d := t.Date.Day()
			byDay[d] = append(byDay[d], t)
		}
	}

	validated, projected := a.InitialBalance, a.InitialBalance
	out := make([]core.DailyBalance, 0, days)
	for day := 1; day <= days; day++ {
		for _, t := range byDay[day] {
			amount := core.SignedAmount(t)
			projected = projected.Add(amount)
			if t.Validated {
				validated = validated.Add(amount)
			}
		}
		out = append(out, core.DailyBalance{Day: day, Validated: validated, Projected: projected})
	}
	return out
}

// ClosingBalance returns the last point of a series, or zero values for an empty one.
func ClosingBalance(series []core.DailyBalance) (validated, projected decimal.Decimal) {
	if len(series) == 0 {
		return decimal.Zero, decimal.Zero
	}
	last := series[len(series)-1]
	return last.Validated, last.Projected
}
