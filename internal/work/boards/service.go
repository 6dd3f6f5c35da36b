package boards

import (
	"context"
	"fmt"
)

// Default lanes for a board created without explicit columns.
var defaultColumns = []string{"To do", "In progress", "Done"}

// Service coordinates board operations.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateBoardInput groups fields required to create a board.
type CreateBoardInput struct {
	WorkspaceID int64    `json:"workspace_id" validate:"required"`
	Name        string   `json:"name" validate:"required,max=120"`
	Columns     []string `json:"columns,omitempty" validate:"omitempty,max=20,dive,required,max=60"`
}

// UpdateBoardInput carries optional field updates.
type UpdateBoardInput struct {
	Name *string `json:"name,omitempty" validate:"omitempty,max=120"`
}

func (s *Service) Create(ctx context.Context, ownerID int64, in CreateBoardInput) (*Board, error) {
	names := in.Columns
	if len(names) == 0 {
		names = defaultColumns
	}
	b := Board{OwnerID: ownerID, WorkspaceID: in.WorkspaceID, Name: in.Name}
	for _, name := range names {
		b.Columns = append(b.Columns, Column{Name: name})
	}
	id, err := s.repo.Create(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) Get(ctx context.Context, ownerID, id int64) (*Board, error) {
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) List(ctx context.Context, ownerID, workspaceID int64) ([]Board, error) {
	return s.repo.List(ctx, ownerID, workspaceID)
}

func (s *Service) Update(ctx context.Context, ownerID, id int64, in UpdateBoardInput) (*Board, error) {
	b, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		b.Name = *in.Name
	}
	if err := s.repo.Update(ctx, *b); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	return s.repo.Delete(ctx, ownerID, id)
}

func (s *Service) AddColumn(ctx context.Context, ownerID, boardID int64, name string) (*Board, error) {
	if _, err := s.repo.AddColumn(ctx, ownerID, boardID, name); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ownerID, boardID)
}

func (s *Service) RenameColumn(ctx context.Context, ownerID, boardID, columnID int64, name string) (*Board, error) {
	if err := s.repo.RenameColumn(ctx, ownerID, columnID, name); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ownerID, boardID)
}

func (s *Service) DeleteColumn(ctx context.Context, ownerID, boardID, columnID int64) (*Board, error) {
	if err := s.repo.DeleteColumn(ctx, ownerID, columnID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ownerID, boardID)
}
