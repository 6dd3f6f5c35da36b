package pomodoro

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

// ErrNotFound is returned when a session does not exist for the owner.
var ErrNotFound = fmt.Errorf("%w: pomodoro session", httpx.ErrNotFound)

// Repository is the persistence port for Pomodoro sessions.
type Repository interface {
	Get(ctx context.Context, ownerID, id int64) (*Session, error)
	ListDay(ctx context.Context, ownerID int64, day time.Time) ([]Session, error)
	Create(ctx context.Context, s Session) (int64, error)
	Finish(ctx context.Context, ownerID, id int64, endedAt time.Time, durationSeconds int64) error
	// FocusSecondsOn sums finished focus time for the day, for the dashboard.
	FocusSecondsOn(ctx context.Context, ownerID int64, day time.Time) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const sessionColumns = `id, owner_id, task_id, kind, planned_minutes, started_at, ended_at, duration_seconds, created_at`

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.OwnerID, &s.TaskID, &s.Kind, &s.PlannedMinutes,
		&s.StartedAt, &s.EndedAt, &s.DurationSeconds, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) Get(ctx context.Context, ownerID, id int64) (*Session, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM pomodoro_sessions WHERE id = $1 AND owner_id = $2`, id, ownerID))
}

func (r *repository) ListDay(ctx context.Context, ownerID int64, day time.Time) ([]Session, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+` FROM pomodoro_sessions
		WHERE owner_id = $1 AND started_at >= $2 AND started_at < $3
		ORDER BY started_at, id`, ownerID, start, start.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, s Session) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO pomodoro_sessions (owner_id, task_id, kind, planned_minutes, started_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id`,
		s.OwnerID, s.TaskID, s.Kind, s.PlannedMinutes, s.StartedAt).Scan(&id)
	return id, err
}

func (r *repository) Finish(ctx context.Context, ownerID, id int64, endedAt time.Time, durationSeconds int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE pomodoro_sessions SET ended_at = $3, duration_seconds = $4
		WHERE id = $1 AND owner_id = $2 AND ended_at IS NULL`,
		id, ownerID, endedAt, durationSeconds)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) FocusSecondsOn(ctx context.Context, ownerID int64, day time.Time) (int64, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(duration_seconds), 0) FROM pomodoro_sessions
		WHERE owner_id = $1 AND kind = 'focus' AND duration_seconds IS NOT NULL
		AND started_at >= $2 AND started_at < $3`,
		ownerID, start, start.Add(24*time.Hour)).Scan(&total)
	return total, err
}
