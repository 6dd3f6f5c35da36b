package goals

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

// ErrNotFound is returned when a goal is missing, soft-deleted or owned by a
// different tenant.
var ErrNotFound = fmt.Errorf("%w: savings goal", httpx.ErrNotFound)

// Repository is the persistence port for savings goals.
type Repository interface {
	Get(ctx context.Context, ownerID, id int64) (*SavingsGoal, error)
	List(ctx context.Context, ownerID int64) ([]SavingsGoal, error)
	Create(ctx context.Context, g SavingsGoal) (int64, error)
	Update(ctx context.Context, g SavingsGoal) error
	SoftDelete(ctx context.Context, ownerID, id int64) error
	AddFunds(ctx context.Context, ownerID, id int64, amount float64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const goalColumns = `id, owner_id, name, target_amount, current_amount, account_id, deleted_at, created_at, updated_at`

func (r *repository) Get(ctx context.Context, ownerID, id int64) (*SavingsGoal, error) {
	var g SavingsGoal
	err := r.pool.QueryRow(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`,
		id, ownerID).
		Scan(&g.ID, &g.OwnerID, &g.Name, &g.TargetAmount, &g.CurrentAmount,
			&g.AccountID, &g.DeletedAt, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *repository) List(ctx context.Context, ownerID int64) ([]SavingsGoal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE owner_id = $1 AND deleted_at IS NULL ORDER BY created_at, id`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SavingsGoal
	for rows.Next() {
		var g SavingsGoal
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Name, &g.TargetAmount, &g.CurrentAmount,
			&g.AccountID, &g.DeletedAt, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, g SavingsGoal) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO savings_goals (owner_id, name, target_amount, current_amount, account_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id`,
		g.OwnerID, g.Name, g.TargetAmount, g.CurrentAmount, g.AccountID).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, g SavingsGoal) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE savings_goals SET name = $3, target_amount = $4, account_id = $5, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`,
		g.ID, g.OwnerID, g.Name, g.TargetAmount, g.AccountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE savings_goals SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`,
		id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) AddFunds(ctx context.Context, ownerID, id int64, amount float64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE savings_goals SET current_amount = current_amount + $3, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`,
		id, ownerID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
