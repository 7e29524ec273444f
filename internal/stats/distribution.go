package stats

import (
	"sort"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

var hundred = decimal.NewFromInt(100)

// CategoryDistribution sums the unsigned amounts of the transactions dated
// within [from, to] whose direction is dir, grouped by category.
//
// Groups are sorted by descending total; equal totals keep category order.
// Each group carries its share of the grand total when that total is positive.
// No matching transaction yields an empty, non-nil slice.
func CategoryDistribution(txs []core.Transaction, from, to core.Date, dir core.Direction) []core.CategoryTotal {
	totals := make(map[core.Category]decimal.Decimal)
	for _, t := range txs {
		if t.Direction != dir || !t.Date.Between(from, to) {
			continue
		}
		totals[t.Category] = totals[t.Category].Add(t.Amount)
	}

	out := make([]core.CategoryTotal, 0, len(totals))
	for c, total := range totals {
		out = append(out, core.CategoryTotal{
			Category: c,
			Label:    core.CategoryLabel(c),
			Total:    total,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Total.Cmp(out[j].Total); cmp != 0 {
			return cmp > 0
		}
		return core.CategoryLess(out[i].Category, out[j].Category)
	})

	grand := GrandTotal(out)
	if grand.IsPositive() {
		for i := range out {
			p := Share(out[i].Total, grand)
			out[i].Percent = &p
		}
	}
	return out
}

// GrandTotal sums every group total.
func GrandTotal(groups []core.CategoryTotal) decimal.Decimal {
	sum := decimal.Zero
	for _, g := range groups {
		sum = sum.Add(g.Total)
	}
	return sum
}

// Share returns total as a percentage of grand, rounded to two decimals.
// A non-positive grand total gives zero.
func Share(total, grand decimal.Decimal) decimal.Decimal {
	if !grand.IsPositive() {
		return decimal.Zero
	}
	return total.Mul(hundred).DivRound(grand, 2)
}
