package loans

import (
	"context"
	"fmt"
	"time"
)

// Service coordinates loan operations.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateLoanInput groups fields required to register a loan.
type CreateLoanInput struct {
	Name        string     `json:"name" validate:"required,max=120"`
	TotalAmount float64    `json:"total_amount" validate:"required,gt=0"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
}

// UpdateLoanInput carries optional field updates.
type UpdateLoanInput struct {
	Name       *string    `json:"name,omitempty" validate:"omitempty,max=120"`
	TargetDate *time.Time `json:"target_date,omitempty"`
	IsActive   *bool      `json:"is_active,omitempty"`
}

func (s *Service) Create(ctx context.Context, ownerID int64, in CreateLoanInput) (*Loan, error) {
	id, err := s.repo.Create(ctx, Loan{
		OwnerID:         ownerID,
		Name:            in.Name,
		TotalAmount:     in.TotalAmount,
		RemainingAmount: in.TotalAmount,
		TargetDate:      in.TargetDate,
		IsActive:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("create loan: %w", err)
	}
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) Get(ctx context.Context, ownerID, id int64) (*Loan, error) {
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) List(ctx context.Context, ownerID int64) ([]Loan, error) {
	return s.repo.List(ctx, ownerID)
}

func (s *Service) Update(ctx context.Context, ownerID, id int64, in UpdateLoanInput) (*Loan, error) {
	l, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		l.Name = *in.Name
	}
	if in.TargetDate != nil {
		l.TargetDate = in.TargetDate
	}
	if in.IsActive != nil {
		l.IsActive = *in.IsActive
	}
	if err := s.repo.Update(ctx, *l); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	return s.repo.Delete(ctx, ownerID, id)
}
