package core

import "github.com/shopspring/decimal"

// SignedAmount returns the amount with the sign implied by the transaction direction.
func SignedAmount(t Transaction) decimal.Decimal {
	if t.Direction == Credit {
		return t.Amount
	}
	return t.Amount.Neg()
}

// TotalBalance is the settled balance: the initial balance plus every validated transaction.
func TotalBalance(a Account) decimal.Decimal {
	balance := a.InitialBalance
	for _, t := range a.Transactions {
		if t.Validated {
			balance = balance.Add(SignedAmount(t))
		}
	}
	return balance
}

// ProjectedBalance includes pending transactions as well.
func ProjectedBalance(a Account) decimal.Decimal {
	balance := a.InitialBalance
	for _, t := range a.Transactions {
		balance = balance.Add(SignedAmount(t))
	}
	return balance
}

// ValidateBalanceChange reports whether an account of the given type may hold candidate.
// Only checking accounts may go negative.
func ValidateBalanceChange(accountType AccountType, candidate decimal.Decimal) bool {
	return accountType == Checking || !candidate.IsNegative()
}

// BalanceErrorMessage returns the message shown when a balance change is refused.
func BalanceErrorMessage(accountType AccountType) string {
	if accountType == Checking {
		return ""
	}
	return ErrInvalidBalance.Error()
}
