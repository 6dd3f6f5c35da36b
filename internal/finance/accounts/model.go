package accounts

import "time"

// AccountType enumerates supported account kinds.
type AccountType string

const (
	AccountTypeBank       AccountType = "bank"
	AccountTypeEWallet    AccountType = "e-wallet"
	AccountTypeCreditCard AccountType = "credit-card"
)

// Valid reports whether the account type is supported.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeBank, AccountTypeEWallet, AccountTypeCreditCard:
		return true
	}
	return false
}

// Account is a money container owned by a single tenant. Credit-card accounts
// carry the used/available split of the credit limit; the invariant
// used_credit + available_credit == credit_limit holds once reconciled.
type Account struct {
	ID              int64       `json:"id"`
	OwnerID         int64       `json:"owner_id"`
	Name            string      `json:"name"`
	Type            AccountType `json:"type"`
	Currency        string      `json:"currency"`
	StartingBalance float64     `json:"starting_balance"`
	CurrentBalance  float64     `json:"current_balance"`
	CreditLimit     *float64    `json:"credit_limit,omitempty"`
	UsedCredit      *float64    `json:"used_credit,omitempty"`
	AvailableCredit *float64    `json:"available_credit,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// IsCreditCard reports whether the account tracks credit usage.
func (a *Account) IsCreditCard() bool {
	return a.Type == AccountTypeCreditCard
}

// ClampCredit applies the credit reconciliation rules to a used/available pair
// against a limit and returns the repaired values:
//
//  1. used is clamped to [0, limit].
//  2. used == 0 forces available back to the full limit.
//  3. otherwise available is clamped to [0, limit-used]; an in-range value is
//     preserved as-is.
//
// The function is idempotent and shared with the transaction recorder, which
// reapplies it after every credit-card mutation.
func ClampCredit(used, available, limit float64) (float64, float64) {
	if used < 0 {
		used = 0
	}
	if used > limit {
		used = limit
	}
	if used == 0 {
		return 0, limit
	}
	max := limit - used
	if available < 0 {
		available = 0
	}
	if available > max {
		available = max
	}
	return used, available
}
