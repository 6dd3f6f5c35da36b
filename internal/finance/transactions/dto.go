package transactions

import (
	"fmt"
	"time"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

// CreateTransactionInput groups fields required to record a transaction.
type CreateTransactionInput struct {
	Type            string     `json:"type" validate:"required"`
	Amount          float64    `json:"amount" validate:"required,gt=0"`
	Currency        string     `json:"currency" validate:"required,len=3"`
	Description     string     `json:"description,omitempty" validate:"max=255"`
	AccountID       *int64     `json:"account_id,omitempty"`
	ToAccountID     *int64     `json:"to_account_id,omitempty"`
	CategoryID      *int64     `json:"category_id,omitempty"`
	BudgetID        *int64     `json:"budget_id,omitempty"`
	GoalID          *int64     `json:"goal_id,omitempty"`
	LoanID          *int64     `json:"loan_id,omitempty"`
	ClientRequestID *string    `json:"client_request_id,omitempty" validate:"omitempty,max=64"`
	OccurredAt      *time.Time `json:"occurred_at,omitempty"`
	Tags            []string   `json:"tags,omitempty" validate:"max=20,dive,max=60"`
}

// Validate enforces domain rules the struct tags cannot express.
func (in CreateTransactionInput) Validate() error {
	typ := TransactionType(in.Type)
	if !typ.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", httpx.ErrValidation, in.Type)
	}
	if typ == TypeTransfer {
		if in.AccountID == nil {
			return fmt.Errorf("%w: account_id required for transfers", httpx.ErrValidation)
		}
		if in.ToAccountID == nil {
			return fmt.Errorf("%w: to_account_id required for transfers", httpx.ErrValidation)
		}
		if *in.ToAccountID == *in.AccountID {
			return fmt.Errorf("%w: transfer destination must differ from source", httpx.ErrValidation)
		}
	} else if in.ToAccountID != nil {
		return fmt.Errorf("%w: to_account_id only valid for transfers", httpx.ErrValidation)
	}
	if typ == TypeSavings && in.GoalID == nil {
		return fmt.Errorf("%w: goal_id required for savings transactions", httpx.ErrValidation)
	}
	if typ == TypeLoan && in.LoanID == nil {
		return fmt.Errorf("%w: loan_id required for loan transactions", httpx.ErrValidation)
	}
	if in.ClientRequestID != nil && *in.ClientRequestID == "" {
		return fmt.Errorf("%w: client_request_id must not be empty when set", httpx.ErrValidation)
	}
	return nil
}

// UpdateTransactionInput carries editable fields. Amount and link edits are
// applied by reversing the old effects and applying the new ones.
type UpdateTransactionInput struct {
	Amount      *float64   `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=255"`
	CategoryID  *int64     `json:"category_id,omitempty"`
	BudgetID    *int64     `json:"budget_id,omitempty"`
	OccurredAt  *time.Time `json:"occurred_at,omitempty"`
}

// ListTransactionsRequest filters the transaction listing.
type ListTransactionsRequest struct {
	OwnerID    int64
	AccountID  *int64
	BudgetID   *int64
	CategoryID *int64
	Type       *string
	From       *time.Time
	To         *time.Time
	Page       int
	PerPage    int
}
