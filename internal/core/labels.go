package core

import "github.com/shopspring/decimal"

// Tone classifies how an account balance should be highlighted.
type Tone string

const (
	ToneNeutral  Tone = "neutral"
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
	ToneMuted    Tone = "muted"
)

// AccountTypes lists every account type in display order.
func AccountTypes() []AccountType {
	return []AccountType{Checking, LivretA, LDDS, PEL, PEA, PER}
}

// Categories lists every transaction category.
func Categories() []Category {
	return []Category{Transport, Rent, Salary, Food}
}

// Directions lists both transaction directions.
func Directions() []Direction {
	return []Direction{Credit, Debit}
}

// CategoryLabel returns the display label of a category.
func CategoryLabel(c Category) string {
	switch c {
	case Transport:
		return "Transport"
	case Rent:
		return "Loyer"
	case Salary:
		return "Salaire"
	case Food:
		return "Alimentation"
	default:
		return string(c)
	}
}

// AccountTypeLabel returns the display label of an account type.
func AccountTypeLabel(t AccountType) string {
	switch t {
	case Checking:
		return "Compte Courant"
	case LivretA:
		return "Livret A"
	case LDDS:
		return "LDDS"
	case PEL:
		return "PEL"
	case PEA:
		return "PEA"
	case PER:
		return "PER"
	default:
		return string(t)
	}
}

// DirectionLabel returns the display label of a direction.
func DirectionLabel(d Direction) string {
	switch d {
	case Credit:
		return "Revenus"
	case Debit:
		return "Dépenses"
	default:
		return string(d)
	}
}

// categoryOrder gives categories a stable rank, used to break ties.
func categoryOrder(c Category) int {
	switch c {
	case Transport:
		return 0
	case Rent:
		return 1
	case Salary:
		return 2
	case Food:
		return 3
	default:
		return 4
	}
}

// CategoryLess orders categories by declaration order.
func CategoryLess(a, b Category) bool {
	return categoryOrder(a) < categoryOrder(b)
}

// BalanceTone picks the highlight of a balance. Only checking accounts are coloured by sign.
func BalanceTone(t AccountType, balance decimal.Decimal) Tone {
	if t != Checking {
		return ToneMuted
	}
	switch balance.Sign() {
	case 1:
		return TonePositive
	case -1:
		return ToneNegative
	default:
		return ToneNeutral
	}
}
