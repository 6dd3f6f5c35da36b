package budgets

import "time"

// BudgetType enumerates budget kinds.
type BudgetType string

const (
	BudgetTypeSpending BudgetType = "spending"
	BudgetTypeSaved    BudgetType = "saved"
)

// Valid reports whether the budget type is supported.
func (t BudgetType) Valid() bool {
	return t == BudgetTypeSpending || t == BudgetTypeSaved
}

// Budget is a spending or saving target over an optional category, account
// and period. Lifecycle: active -> closed (terminal) and active/closed ->
// deleted (terminal, soft delete); there is no way back to active.
//
// current_spent may exceed amount; the cap is a UI convention, not a server
// rule.
type Budget struct {
	ID           int64      `json:"id"`
	OwnerID      int64      `json:"owner_id"`
	Name         string     `json:"name"`
	Amount       float64    `json:"amount"`
	CurrentSpent float64    `json:"current_spent"`
	Currency     string     `json:"currency"`
	CategoryID   *int64     `json:"category_id,omitempty"`
	AccountID    *int64     `json:"account_id,omitempty"`
	Type         BudgetType `json:"budget_type"`
	Period       *string    `json:"period,omitempty"`
	StartsOn     *time.Time `json:"starts_on,omitempty"`
	EndsOn       *time.Time `json:"ends_on,omitempty"`
	IsActive     bool       `json:"is_active"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Remaining returns the unspent portion, floored at zero.
func (b *Budget) Remaining() float64 {
	r := b.Amount - b.CurrentSpent
	if r < 0 {
		return 0
	}
	return r
}

// Recurring reports whether the budget rolls over into a next period window.
func (b *Budget) Recurring() bool {
	return b.Period != nil && *b.Period != ""
}
