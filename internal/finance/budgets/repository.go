package budgets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hq/meridian/internal/platform/db"
	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

// ErrNotFound is returned when a budget does not exist for the owner.
var ErrNotFound = fmt.Errorf("%w: budget", httpx.ErrNotFound)

// ErrGoalNotFound is returned when a reallocation target goal is missing.
var ErrGoalNotFound = fmt.Errorf("%w: savings goal", httpx.ErrNotFound)

// Repository is the persistence port for budgets.
type Repository interface {
	Get(ctx context.Context, ownerID, id int64) (*Budget, error)
	List(ctx context.Context, req ListBudgetsRequest) ([]Budget, int64, error)
	Create(ctx context.Context, b Budget) (int64, error)
	Update(ctx context.Context, b Budget) error
	// ListExpiredRecurring returns active recurring budgets across all owners
	// whose window ended before asOf; the rollover job feeds on it.
	ListExpiredRecurring(ctx context.Context, asOf time.Time) ([]Budget, error)
	// WithTx runs fn inside a single transaction. Lifecycle transitions go
	// through here so the remainder computation and its reallocation commit
	// or roll back together.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
}

// TxRepository is the transactional slice of the port used by lifecycle
// transitions.
type TxRepository interface {
	GetForUpdate(ctx context.Context, ownerID, id int64) (*Budget, error)
	SetInactive(ctx context.Context, ownerID, id int64) error
	SoftDelete(ctx context.Context, ownerID, id int64) error
	AddAmount(ctx context.Context, ownerID, id int64, delta float64) error
	CreditGoal(ctx context.Context, ownerID, goalID int64, amount float64) error
	CreateBudget(ctx context.Context, b Budget) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const budgetColumns = `id, owner_id, name, amount, current_spent, currency, category_id, account_id,
	budget_type, period, starts_on, ends_on, is_active, deleted_at, created_at, updated_at`

func scanBudget(row pgx.Row) (*Budget, error) {
	var b Budget
	err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Amount, &b.CurrentSpent, &b.Currency,
		&b.CategoryID, &b.AccountID, &b.Type, &b.Period, &b.StartsOn, &b.EndsOn,
		&b.IsActive, &b.DeletedAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *repository) Get(ctx context.Context, ownerID, id int64) (*Budget, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`,
		id, ownerID)
	return scanBudget(row)
}

func (r *repository) List(ctx context.Context, req ListBudgetsRequest) ([]Budget, int64, error) {
	where := `owner_id = $1 AND deleted_at IS NULL`
	if req.ActiveOnly {
		where += ` AND is_active`
	}

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM budgets WHERE `+where, req.OwnerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (req.Page - 1) * req.PerPage
	rows, err := r.pool.Query(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE `+where+` ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		req.OwnerID, req.PerPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, b Budget) (int64, error) {
	return insertBudget(ctx, r.pool, b)
}

func (r *repository) Update(ctx context.Context, b Budget) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE budgets SET name = $3, amount = $4, category_id = $5, account_id = $6, ends_on = $7, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`,
		b.ID, b.OwnerID, b.Name, b.Amount, b.CategoryID, b.AccountID, b.EndsOn)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListExpiredRecurring(ctx context.Context, asOf time.Time) ([]Budget, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+budgetColumns+` FROM budgets
		WHERE is_active AND deleted_at IS NULL AND period IS NOT NULL AND period <> '' AND ends_on < $1
		ORDER BY id`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetForUpdate(ctx context.Context, ownerID, id int64) (*Budget, error) {
	row := r.tx.QueryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL FOR UPDATE`,
		id, ownerID)
	return scanBudget(row)
}

func (r *txRepository) SetInactive(ctx context.Context, ownerID, id int64) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE budgets SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) SoftDelete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE budgets SET deleted_at = NOW(), is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) AddAmount(ctx context.Context, ownerID, id int64, delta float64) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE budgets SET amount = amount + $3, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`, id, ownerID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) CreditGoal(ctx context.Context, ownerID, goalID int64, amount float64) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE savings_goals SET current_amount = current_amount + $3, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`, goalID, ownerID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func (r *txRepository) CreateBudget(ctx context.Context, b Budget) (int64, error) {
	return insertBudget(ctx, r.tx, b)
}

type execQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertBudget(ctx context.Context, q execQuerier, b Budget) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO budgets (owner_id, name, amount, current_spent, currency, category_id, account_id,
			budget_type, period, starts_on, ends_on, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING id`,
		b.OwnerID, b.Name, b.Amount, b.CurrentSpent, b.Currency, b.CategoryID, b.AccountID,
		b.Type, b.Period, b.StartsOn, b.EndsOn, b.IsActive).Scan(&id)
	return id, err
}
