package categories

import (
	"context"
	"fmt"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

// Service coordinates category operations.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateCategoryInput groups fields required to create a category.
type CreateCategoryInput struct {
	Type  string `json:"type" validate:"required"`
	Name  string `json:"name" validate:"required,max=80"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// UpdateCategoryInput carries optional field updates.
type UpdateCategoryInput struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,max=80"`
	Color *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

func (s *Service) Create(ctx context.Context, ownerID int64, in CreateCategoryInput) (*Category, error) {
	t := CategoryType(in.Type)
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown category type %q", httpx.ErrValidation, in.Type)
	}
	color := in.Color
	if color == "" {
		color = "#9ca3af"
	}
	id, err := s.repo.Create(ctx, Category{OwnerID: ownerID, Type: t, Name: in.Name, Color: color})
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) Get(ctx context.Context, ownerID, id int64) (*Category, error) {
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) List(ctx context.Context, ownerID int64) ([]Category, error) {
	return s.repo.List(ctx, ownerID)
}

func (s *Service) Update(ctx context.Context, ownerID, id int64, in UpdateCategoryInput) (*Category, error) {
	c, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Color != nil {
		c.Color = *in.Color
	}
	if err := s.repo.Update(ctx, *c); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	return s.repo.Delete(ctx, ownerID, id)
}
