package workspaces

import (
	"context"
	"fmt"
)

const defaultColor = "#6366f1"

// Service coordinates workspace operations.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateWorkspaceInput groups fields required to create a workspace.
type CreateWorkspaceInput struct {
	Name  string `json:"name" validate:"required,max=120"`
	Color string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// UpdateWorkspaceInput carries optional field updates.
type UpdateWorkspaceInput struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Color *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

func (s *Service) Create(ctx context.Context, ownerID int64, in CreateWorkspaceInput) (*Workspace, error) {
	color := in.Color
	if color == "" {
		color = defaultColor
	}
	id, err := s.repo.Create(ctx, Workspace{OwnerID: ownerID, Name: in.Name, Color: color})
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) Get(ctx context.Context, ownerID, id int64) (*Workspace, error) {
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) List(ctx context.Context, ownerID int64) ([]Workspace, error) {
	return s.repo.List(ctx, ownerID)
}

func (s *Service) Update(ctx context.Context, ownerID, id int64, in UpdateWorkspaceInput) (*Workspace, error) {
	w, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		w.Name = *in.Name
	}
	if in.Color != nil {
		w.Color = *in.Color
	}
	if err := s.repo.Update(ctx, *w); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	return s.repo.Delete(ctx, ownerID, id)
}
