package goals

import (
	"context"
	"fmt"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

// Service coordinates savings goal operations.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateGoalInput groups fields required to create a savings goal.
type CreateGoalInput struct {
	Name         string  `json:"name" validate:"required,max=120"`
	TargetAmount float64 `json:"target_amount" validate:"required,gt=0"`
	AccountID    *int64  `json:"account_id,omitempty"`
}

// UpdateGoalInput carries optional field updates.
type UpdateGoalInput struct {
	Name         *string  `json:"name,omitempty" validate:"omitempty,max=120"`
	TargetAmount *float64 `json:"target_amount,omitempty" validate:"omitempty,gt=0"`
	AccountID    *int64   `json:"account_id,omitempty"`
}

func (s *Service) Create(ctx context.Context, ownerID int64, in CreateGoalInput) (*SavingsGoal, error) {
	id, err := s.repo.Create(ctx, SavingsGoal{
		OwnerID:      ownerID,
		Name:         in.Name,
		TargetAmount: in.TargetAmount,
		AccountID:    in.AccountID,
	})
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) Get(ctx context.Context, ownerID, id int64) (*SavingsGoal, error) {
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) List(ctx context.Context, ownerID int64) ([]SavingsGoal, error) {
	return s.repo.List(ctx, ownerID)
}

func (s *Service) Update(ctx context.Context, ownerID, id int64, in UpdateGoalInput) (*SavingsGoal, error) {
	g, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		g.Name = *in.Name
	}
	if in.TargetAmount != nil {
		g.TargetAmount = *in.TargetAmount
	}
	if in.AccountID != nil {
		g.AccountID = in.AccountID
	}
	if err := s.repo.Update(ctx, *g); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	return s.repo.SoftDelete(ctx, ownerID, id)
}

// AddFunds credits the goal by a positive amount.
func (s *Service) AddFunds(ctx context.Context, ownerID, id int64, amount float64) (*SavingsGoal, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", httpx.ErrValidation)
	}
	if err := s.repo.AddFunds(ctx, ownerID, id, amount); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ownerID, id)
}
