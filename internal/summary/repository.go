package summary

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NetWorth splits the owner's position into assets and credit debt.
type NetWorth struct {
	Assets     float64 `json:"assets"`
	UsedCredit float64 `json:"used_credit"`
	Total      float64 `json:"total"`
}

// BudgetProgress is one active budget's spend against its target.
type BudgetProgress struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Amount  float64 `json:"amount"`
	Spent   float64 `json:"spent"`
	Percent float64 `json:"percent"`
}

// GoalProgress is one goal's funded share.
type GoalProgress struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Target  float64 `json:"target"`
	Current float64 `json:"current"`
	Percent float64 `json:"percent"`
}

// TaskCounts aggregates the owner's open and completed tasks.
type TaskCounts struct {
	Open      int64 `json:"open"`
	Completed int64 `json:"completed"`
	DueToday  int64 `json:"due_today"`
}

// Repository reads the dashboard aggregates.
type Repository interface {
	NetWorth(ctx context.Context, ownerID int64) (NetWorth, error)
	BudgetProgress(ctx context.Context, ownerID int64) ([]BudgetProgress, error)
	GoalProgress(ctx context.Context, ownerID int64) ([]GoalProgress, error)
	TaskCounts(ctx context.Context, ownerID int64, day time.Time) (TaskCounts, error)
	FocusSecondsOn(ctx context.Context, ownerID int64, day time.Time) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) NetWorth(ctx context.Context, ownerID int64) (NetWorth, error) {
	var nw NetWorth
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN type <> 'credit-card' THEN current_balance ELSE 0 END), 0),
		       COALESCE(SUM(COALESCE(used_credit, 0)), 0)
		FROM accounts WHERE owner_id = $1`, ownerID).Scan(&nw.Assets, &nw.UsedCredit)
	if err != nil {
		return nw, err
	}
	nw.Total = nw.Assets - nw.UsedCredit
	return nw, nil
}

func (r *repository) BudgetProgress(ctx context.Context, ownerID int64) ([]BudgetProgress, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, amount, current_spent FROM budgets
		WHERE owner_id = $1 AND is_active AND deleted_at IS NULL
		ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BudgetProgress
	for rows.Next() {
		var b BudgetProgress
		if err := rows.Scan(&b.ID, &b.Name, &b.Amount, &b.Spent); err != nil {
			return nil, err
		}
		if b.Amount > 0 {
			b.Percent = b.Spent / b.Amount * 100
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) GoalProgress(ctx context.Context, ownerID int64) ([]GoalProgress, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, target_amount, current_amount FROM savings_goals
		WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GoalProgress
	for rows.Next() {
		var g GoalProgress
		if err := rows.Scan(&g.ID, &g.Name, &g.Target, &g.Current); err != nil {
			return nil, err
		}
		if g.Target > 0 {
			g.Percent = g.Current / g.Target * 100
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *repository) TaskCounts(ctx context.Context, ownerID int64, day time.Time) (TaskCounts, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	var tc TaskCounts
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE NOT completed),
		       COUNT(*) FILTER (WHERE completed),
		       COUNT(*) FILTER (WHERE NOT completed AND due_date >= $2 AND due_date < $3)
		FROM tasks WHERE owner_id = $1`,
		ownerID, start, start.Add(24*time.Hour)).Scan(&tc.Open, &tc.Completed, &tc.DueToday)
	return tc, err
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
