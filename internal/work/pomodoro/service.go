package pomodoro

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

// Service coordinates Pomodoro session records. The timer itself lives in the
// client; this is the persistence API.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// StartSessionInput groups fields required to start a session.
type StartSessionInput struct {
	TaskID         *int64 `json:"task_id,omitempty"`
	Kind           string `json:"kind" validate:"required"`
	PlannedMinutes int    `json:"planned_minutes" validate:"required,gt=0,lte=240"`
}

// Start opens a new session at the current time.
func (s *Service) Start(ctx context.Context, ownerID int64, in StartSessionInput) (*Session, error) {
	kind := SessionKind(in.Kind)
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown session kind %q", httpx.ErrValidation, in.Kind)
	}
	id, err := s.repo.Create(ctx, Session{
		OwnerID:        ownerID,
		TaskID:         in.TaskID,
		Kind:           kind,
		PlannedMinutes: in.PlannedMinutes,
		StartedAt:      s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return s.repo.Get(ctx, ownerID, id)
}

// Finish closes a running session and records the elapsed duration. Finishing
// an already-finished session is an invalid state.
func (s *Service) Finish(ctx context.Context, ownerID, id int64) (*Session, error) {
	session, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !session.Running() {
		return nil, fmt.Errorf("%w: session already finished", httpx.ErrInvalidState)
	}
	endedAt := s.now()
	duration := int64(endedAt.Sub(session.StartedAt).Seconds())
	if duration < 0 {
		duration = 0
	}
	if err := s.repo.Finish(ctx, ownerID, id, endedAt, duration); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ownerID, id)
}

// ListDay returns all sessions started on the given UTC day.
func (s *Service) ListDay(ctx context.Context, ownerID int64, day time.Time) ([]Session, error) {
	return s.repo.ListDay(ctx, ownerID, day)
}

// FocusMinutesToday sums today's finished focus time.
func (s *Service) FocusMinutesToday(ctx context.Context, ownerID int64) (int64, error) {
	seconds, err := s.repo.FocusSecondsOn(ctx, ownerID, s.now())
	if err != nil {
		return 0, err
	}
	return seconds / 60, nil
}
