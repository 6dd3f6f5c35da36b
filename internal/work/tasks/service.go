package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

// Service coordinates task operations, including the drag-and-drop move.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateTaskInput groups fields required to create a task.
type CreateTaskInput struct {
	BoardID     int64      `json:"board_id" validate:"required"`
	ColumnID    int64      `json:"column_id" validate:"required"`
	CategoryID  *int64     `json:"category_id,omitempty"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description,omitempty" validate:"max=2000"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    string     `json:"priority,omitempty"`
}

// UpdateTaskInput carries optional field updates.
type UpdateTaskInput struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	CategoryID  *int64     `json:"category_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
}

// MoveInput places a task at an index inside a target column.
type MoveInput struct {
	ColumnID int64 `json:"column_id" validate:"required"`
	Index    int   `json:"index" validate:"min=0"`
}

func (s *Service) Create(ctx context.Context, ownerID int64, in CreateTaskInput) (*Task, error) {
	priority := PriorityMedium
	if in.Priority != "" {
		priority = Priority(in.Priority)
		if !priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", httpx.ErrValidation, in.Priority)
		}
	}
	position, err := s.repo.NextPosition(ctx, in.ColumnID)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.Create(ctx, Task{
		OwnerID:     ownerID,
		BoardID:     in.BoardID,
		ColumnID:    in.ColumnID,
		CategoryID:  in.CategoryID,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Priority:    priority,
		Position:    position,
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) Get(ctx context.Context, ownerID, id int64) (*Task, error) {
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) ListBoard(ctx context.Context, ownerID, boardID int64) ([]Task, error) {
	return s.repo.ListBoard(ctx, ownerID, boardID)
}

func (s *Service) Update(ctx context.Context, ownerID, id int64, in UpdateTaskInput) (*Task, error) {
	t, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.CategoryID != nil {
		t.CategoryID = in.CategoryID
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}
	if in.Priority != nil {
		p := Priority(*in.Priority)
		if !p.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", httpx.ErrValidation, *in.Priority)
		}
		t.Priority = p
	}
	if err := s.repo.Update(ctx, *t); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ownerID, id)
}

func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	return s.repo.Delete(ctx, ownerID, id)
}

// Complete marks the task done; Reopen clears it.
func (s *Service) Complete(ctx context.Context, ownerID, id int64) (*Task, error) {
	return s.setCompleted(ctx, ownerID, id, true)
}

func (s *Service) Reopen(ctx context.Context, ownerID, id int64) (*Task, error) {
	return s.setCompleted(ctx, ownerID, id, false)
}

func (s *Service) setCompleted(ctx context.Context, ownerID, id int64, done bool) (*Task, error) {
	t, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	t.Completed = done
	if done {
		now := time.Now()
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
	if err := s.repo.Update(ctx, *t); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ownerID, id)
}

// Move places the task at the requested column and index, renumbering every
// task in the source and target columns so positions stay dense. The whole
// reindex runs in one transaction. An out-of-range index appends to the end.
func (s *Service) Move(ctx context.Context, ownerID, id int64, in MoveInput) (*Task, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		t, err := tx.GetForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		ok, err := tx.ColumnOnBoard(ctx, in.ColumnID, t.BoardID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrColumnNotFound
		}

		target, err := tx.ListColumnIDs(ctx, ownerID, in.ColumnID)
		if err != nil {
			return err
		}
		target = remove(target, id)

		idx := in.Index
		if idx < 0 {
			idx = 0
		}
		if idx > len(target) {
			idx = len(target)
		}
		target = append(target[:idx], append([]int64{id}, target[idx:]...)...)
		for pos, taskID := range target {
			if err := tx.SetPlacement(ctx, taskID, in.ColumnID, pos); err != nil {
				return err
			}
		}

		if t.ColumnID != in.ColumnID {
			source, err := tx.ListColumnIDs(ctx, ownerID, t.ColumnID)
			if err != nil {
				return err
			}
			for pos, taskID := range remove(source, id) {
				if err := tx.SetPlacement(ctx, taskID, t.ColumnID, pos); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ownerID, id)
}

func remove(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
