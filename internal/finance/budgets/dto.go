package budgets

import (
	"fmt"
	"time"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
	"github.com/meridian-hq/meridian/internal/shared"
)

// Lifecycle actions for closing or deleting a budget.
const (
	ActionNone             = "none"
	ActionReallocateBudget = "reallocate_budget"
	ActionAddToSavingsGoal = "add_to_savings_goal"
	ActionCreateBudget     = "create_budget"
)

// CreateBudgetInput groups fields required to create a budget.
type CreateBudgetInput struct {
	Name       string     `json:"name" validate:"required,max=120"`
	Amount     float64    `json:"amount" validate:"required,gt=0"`
	Currency   string     `json:"currency" validate:"required,len=3"`
	CategoryID *int64     `json:"category_id,omitempty"`
	AccountID  *int64     `json:"account_id,omitempty"`
	Type       string     `json:"budget_type" validate:"required"`
	Period     *string    `json:"period,omitempty"`
	StartsOn   *time.Time `json:"starts_on,omitempty"`
	EndsOn     *time.Time `json:"ends_on,omitempty"`
}

// Validate enforces domain rules the struct tags cannot express.
func (in CreateBudgetInput) Validate() error {
	if !BudgetType(in.Type).Valid() {
		return fmt.Errorf("%w: unknown budget_type %q", httpx.ErrValidation, in.Type)
	}
	if in.Period != nil && *in.Period != "" && !shared.ValidPeriod(*in.Period) {
		return fmt.Errorf("%w: unknown period %q", httpx.ErrValidation, *in.Period)
	}
	if in.StartsOn != nil && in.EndsOn != nil && in.EndsOn.Before(*in.StartsOn) {
		return fmt.Errorf("%w: ends_on precedes starts_on", httpx.ErrValidation)
	}
	return nil
}

// UpdateBudgetInput carries optional field updates.
type UpdateBudgetInput struct {
	Name       *string    `json:"name,omitempty" validate:"omitempty,max=120"`
	Amount     *float64   `json:"amount,omitempty" validate:"omitempty,gt=0"`
	CategoryID *int64     `json:"category_id,omitempty"`
	AccountID  *int64     `json:"account_id,omitempty"`
	EndsOn     *time.Time `json:"ends_on,omitempty"`
}

// CloseBudgetInput selects what happens to the unspent remainder on close.
type CloseBudgetInput struct {
	Action         string `json:"action" validate:"required"`
	TargetBudgetID *int64 `json:"target_budget_id,omitempty"`
	TargetGoalID   *int64 `json:"target_goal_id,omitempty"`
}

// Validate checks action/target coherence.
func (in CloseBudgetInput) Validate() error {
	switch in.Action {
	case ActionNone:
		return nil
	case ActionReallocateBudget:
		if in.TargetBudgetID == nil {
			return fmt.Errorf("%w: target_budget_id required for %s", httpx.ErrValidation, in.Action)
		}
		return nil
	case ActionAddToSavingsGoal:
		if in.TargetGoalID == nil {
			return fmt.Errorf("%w: target_goal_id required for %s", httpx.ErrValidation, in.Action)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown close action %q", httpx.ErrValidation, in.Action)
}

// NewBudgetSpec describes the replacement budget created on delete with
// action create_budget.
type NewBudgetSpec struct {
	Name       string `json:"name"`
	CategoryID *int64 `json:"category_id,omitempty"`
	AccountID  *int64 `json:"account_id,omitempty"`
}

// DeleteBudgetInput selects what happens to the unspent remainder on delete.
type DeleteBudgetInput struct {
	Action         string         `json:"action" validate:"required"`
	TargetBudgetID *int64         `json:"target_budget_id,omitempty"`
	TargetGoalID   *int64         `json:"target_goal_id,omitempty"`
	NewBudget      *NewBudgetSpec `json:"new_budget,omitempty"`
}

// Validate checks action/target coherence.
func (in DeleteBudgetInput) Validate() error {
	switch in.Action {
	case ActionNone:
		return nil
	case ActionReallocateBudget:
		if in.TargetBudgetID == nil {
			return fmt.Errorf("%w: target_budget_id required for %s", httpx.ErrValidation, in.Action)
		}
		return nil
	case ActionAddToSavingsGoal:
		if in.TargetGoalID == nil {
			return fmt.Errorf("%w: target_goal_id required for %s", httpx.ErrValidation, in.Action)
		}
		return nil
	case ActionCreateBudget:
		if in.NewBudget == nil || in.NewBudget.Name == "" {
			return fmt.Errorf("%w: new_budget.name required for %s", httpx.ErrValidation, in.Action)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown delete action %q", httpx.ErrValidation, in.Action)
}

// ListBudgetsRequest filters the budget listing.
type ListBudgetsRequest struct {
	OwnerID    int64
	ActiveOnly bool
	Page       int
	PerPage    int
}
