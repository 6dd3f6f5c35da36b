package pomodoro

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

type memoryRepo struct {
	nextID   int64
	sessions map[int64]*Session
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, sessions: map[int64]*Session{}}
}

func (m *memoryRepo) Get(_ context.Context, ownerID, id int64) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok || s.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memoryRepo) ListDay(_ context.Context, ownerID int64, day time.Time) ([]Session, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)
	var out []Session
	for _, s := range m.sessions {
		if s.OwnerID == ownerID && !s.StartedAt.Before(start) && s.StartedAt.Before(end) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memoryRepo) Create(_ context.Context, s Session) (int64, error) {
	s.ID = m.nextID
	s.CreatedAt = s.StartedAt
	m.nextID++
	m.sessions[s.ID] = &s
	return s.ID, nil
}

func (m *memoryRepo) Finish(_ context.Context, ownerID, id int64, endedAt time.Time, durationSeconds int64) error {
	s, ok := m.sessions[id]
	if !ok || s.OwnerID != ownerID || s.EndedAt != nil {
		return ErrNotFound
	}
	s.EndedAt = &endedAt
	s.DurationSeconds = &durationSeconds
	return nil
}

func (m *memoryRepo) FocusSecondsOn(_ context.Context, ownerID int64, day time.Time) (int64, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)
	var total int64
	for _, s := range m.sessions {
		if s.OwnerID == ownerID && s.Kind == KindFocus && s.DurationSeconds != nil &&
			!s.StartedAt.Before(start) && s.StartedAt.Before(end) {
			total += *s.DurationSeconds
		}
	}
	return total, nil
}

func newTestService(repo Repository, now time.Time) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return now }
	return svc
}

func TestFinishRecordsDuration(t *testing.T) {
	repo := newMemoryRepo()
	started := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	svc := newTestService(repo, started)

	s, err := svc.Start(context.Background(), 1, StartSessionInput{Kind: "focus", PlannedMinutes: 25})
	require.NoError(t, err)
	require.True(t, s.Running())

	svc.now = func() time.Time { return started.Add(25 * time.Minute) }
	done, err := svc.Finish(context.Background(), 1, s.ID)
	require.NoError(t, err)
	require.False(t, done.Running())
	require.NotNil(t, done.DurationSeconds)
	require.Equal(t, int64(1500), *done.DurationSeconds)
}

func TestFinishTwiceIsInvalidState(t *testing.T) {
	repo := newMemoryRepo()
	started := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	svc := newTestService(repo, started)

	s, err := svc.Start(context.Background(), 1, StartSessionInput{Kind: "break", PlannedMinutes: 5})
	require.NoError(t, err)

	_, err = svc.Finish(context.Background(), 1, s.ID)
	require.NoError(t, err)

	_, err = svc.Finish(context.Background(), 1, s.ID)
	require.True(t, errors.Is(err, httpx.ErrInvalidState))
}

func TestStartRejectsUnknownKind(t *testing.T) {
	svc := newTestService(newMemoryRepo(), time.Now())
	_, err := svc.Start(context.Background(), 1, StartSessionInput{Kind: "nap", PlannedMinutes: 25})
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestFocusMinutesTodayIgnoresBreaksAndOtherOwners(t *testing.T) {
	repo := newMemoryRepo()
	started := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	svc := newTestService(repo, started)

	focus, err := svc.Start(context.Background(), 1, StartSessionInput{Kind: "focus", PlannedMinutes: 25})
	require.NoError(t, err)
	pause, err := svc.Start(context.Background(), 1, StartSessionInput{Kind: "break", PlannedMinutes: 5})
	require.NoError(t, err)
	other, err := svc.Start(context.Background(), 2, StartSessionInput{Kind: "focus", PlannedMinutes: 25})
	require.NoError(t, err)

	svc.now = func() time.Time { return started.Add(10 * time.Minute) }
	for ownerID, id := range map[int64]int64{1: focus.ID, 2: other.ID} {
		_, err = svc.Finish(context.Background(), ownerID, id)
		require.NoError(t, err)
	}
	_, err = svc.Finish(context.Background(), 1, pause.ID)
	require.NoError(t, err)

	minutes, err := svc.FocusMinutesToday(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(10), minutes)
}
