package transactions

import "time"

// TransactionType enumerates supported transaction kinds.
type TransactionType string

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeSavings  TransactionType = "savings"
	TypeLoan     TransactionType = "loan"
	TypeTransfer TransactionType = "transfer"
)

// Valid reports whether the type is supported.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeSavings, TypeLoan, TypeTransfer:
		return true
	}
	return false
}

// Transaction is a single money movement. Links to account, budget, goal and
// loan are optional; when present the recorder keeps those aggregates in sync
// within the same transaction that writes the row. A transaction without an
// account records cash spending against a budget or category only.
//
// ClientRequestID deduplicates retried submissions per owner: a second write
// with the same id returns the original row instead of double-booking.
type Transaction struct {
	ID              int64           `json:"id"`
	OwnerID         int64           `json:"owner_id"`
	CreatedBy       int64           `json:"created_by"`
	Type            TransactionType `json:"type"`
	Amount          float64         `json:"amount"`
	Currency        string          `json:"currency"`
	Description     string          `json:"description,omitempty"`
	AccountID       *int64          `json:"account_id,omitempty"`
	ToAccountID     *int64          `json:"to_account_id,omitempty"`
	CategoryID      *int64          `json:"category_id,omitempty"`
	BudgetID        *int64          `json:"budget_id,omitempty"`
	GoalID          *int64          `json:"goal_id,omitempty"`
	LoanID          *int64          `json:"loan_id,omitempty"`
	ClientRequestID *string         `json:"client_request_id,omitempty"`
	OccurredAt      time.Time       `json:"occurred_at"`
	Tags            []string        `json:"tags,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// balanceDelta returns the signed effect of the transaction on its source
// account balance. Transfers also credit the destination with +Amount.
func (t *Transaction) balanceDelta() float64 {
	if t.Type == TypeIncome {
		return t.Amount
	}
	return -t.Amount
}
