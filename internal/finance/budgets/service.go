package budgets

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
	"github.com/meridian-hq/meridian/internal/shared"
)

// Module-local lifecycle errors. Each wraps an httpx sentinel so the HTTP
// layer can map it without knowing this package.
var (
	ErrNotActive  = fmt.Errorf("%w: budget is not active", httpx.ErrInvalidState)
	ErrSameBudget = fmt.Errorf("%w: target budget must differ from source", httpx.ErrInvalidArgument)
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates budget operations, including the close and delete
// lifecycle transitions with remainder reallocation.
type Service struct {
	repo   Repository
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo Repository, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Create registers a new active budget with nothing spent yet.
func (s *Service) Create(ctx context.Context, ownerID int64, in CreateBudgetInput) (*Budget, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id, err := s.repo.Create(ctx, Budget{
		OwnerID:    ownerID,
		Name:       in.Name,
		Amount:     in.Amount,
		Currency:   in.Currency,
		CategoryID: in.CategoryID,
		AccountID:  in.AccountID,
		Type:       BudgetType(in.Type),
		Period:     in.Period,
		StartsOn:   in.StartsOn,
		EndsOn:     in.EndsOn,
		IsActive:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("create budget: %w", err)
	}
	return s.repo.Get(ctx, ownerID, id)
}

// Get fetches a single budget.
func (s *Service) Get(ctx context.Context, ownerID, id int64) (*Budget, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// List returns budgets for an owner, paginated.
func (s *Service) List(ctx context.Context, req ListBudgetsRequest) ([]Budget, *shared.Pagination, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 25
	}
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	p := shared.NewPagination(req.Page, req.PerPage, total)
	return items, &p, nil
}

// Update applies partial field updates. Lifecycle fields are not editable
// here; use Close and Delete.
func (s *Service) Update(ctx context.Context, ownerID, id int64, in UpdateBudgetInput) (*Budget, error) {
	b, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !b.IsActive {
		return nil, ErrNotActive
	}
	if in.Name != nil {
		b.Name = *in.Name
	}
	if in.Amount != nil {
		b.Amount = *in.Amount
	}
	if in.CategoryID != nil {
		b.CategoryID = in.CategoryID
	}
	if in.AccountID != nil {
		b.AccountID = in.AccountID
	}
	if in.EndsOn != nil {
		b.EndsOn = in.EndsOn
	}
	if err := s.repo.Update(ctx, *b); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ownerID, id)
}

// Close deactivates an active budget and reallocates its unspent remainder
// per the requested action. The transition and the reallocation happen in a
// single transaction; a failed reallocation leaves the budget active.
func (s *Service) Close(ctx context.Context, ownerID, id int64, in CloseBudgetInput) (*Budget, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var remaining float64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.GetForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if !b.IsActive {
			return ErrNotActive
		}
		remaining = b.Remaining()
		if err := s.reallocate(ctx, tx, ownerID, id, remaining, in.Action, in.TargetBudgetID, in.TargetGoalID); err != nil {
			return err
		}
		return tx.SetInactive(ctx, ownerID, id)
	})
	if err != nil {
		return nil, err
	}
	s.recordLifecycle(ctx, ownerID, id, "budget.closed", in.Action, remaining)
	return s.repo.Get(ctx, ownerID, id)
}

// Delete soft-deletes a budget, active or already closed, reallocating the
// unspent remainder per the requested action in the same transaction.
func (s *Service) Delete(ctx context.Context, ownerID, id int64, in DeleteBudgetInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	var remaining float64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.GetForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		remaining = b.Remaining()
		switch in.Action {
		case ActionCreateBudget:
			if remaining > 0 {
				// The successor is always a spending budget, whatever the
				// source was: it exists to spend the leftover funds.
				if _, err := tx.CreateBudget(ctx, Budget{
					OwnerID:    ownerID,
					Name:       in.NewBudget.Name,
					Amount:     remaining,
					Currency:   b.Currency,
					CategoryID: in.NewBudget.CategoryID,
					AccountID:  in.NewBudget.AccountID,
					Type:       BudgetTypeSpending,
					IsActive:   true,
				}); err != nil {
					return fmt.Errorf("create successor budget: %w", err)
				}
			}
		default:
			if err := s.reallocate(ctx, tx, ownerID, id, remaining, in.Action, in.TargetBudgetID, in.TargetGoalID); err != nil {
				return err
			}
		}
		return tx.SoftDelete(ctx, ownerID, id)
	})
	if err != nil {
		return err
	}
	if in.Action == ActionNone && remaining > 0 && s.logger != nil {
		s.logger.Warn("budget deleted with unspent remainder discarded",
			slog.Int64("budget_id", id), slog.Float64("remaining", remaining))
	}
	s.recordLifecycle(ctx, ownerID, id, "budget.deleted", in.Action, remaining)
	return nil
}

// reallocate moves remaining funds for the none/reallocate_budget/
// add_to_savings_goal actions. Targets are validated even when remaining is
// zero, so a bad target fails fast instead of silently succeeding.
func (s *Service) reallocate(ctx context.Context, tx TxRepository, ownerID, sourceID int64, remaining float64, action string, targetBudgetID, targetGoalID *int64) error {
	switch action {
	case ActionNone:
		return nil
	case ActionReallocateBudget:
		if *targetBudgetID == sourceID {
			return ErrSameBudget
		}
		t, err := tx.GetForUpdate(ctx, ownerID, *targetBudgetID)
		if err != nil {
			return err
		}
		if !t.IsActive {
			return fmt.Errorf("%w: target budget is not active", httpx.ErrInvalidState)
		}
		if remaining == 0 {
			return nil
		}
		return tx.AddAmount(ctx, ownerID, t.ID, remaining)
	case ActionAddToSavingsGoal:
		// A zero credit still verifies the goal exists for this owner.
		return tx.CreditGoal(ctx, ownerID, *targetGoalID, remaining)
	}
	return fmt.Errorf("%w: unknown action %q", httpx.ErrValidation, action)
}

func (s *Service) recordLifecycle(ctx context.Context, ownerID, id int64, action, lifecycleAction string, remaining float64) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		OwnerID:  ownerID,
		Action:   action,
		Entity:   "budget",
		EntityID: strconv.FormatInt(id, 10),
		Meta: map[string]any{
			"action":    lifecycleAction,
			"remaining": remaining,
		},
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit budget lifecycle", slog.Any("error", err))
	}
}
