package loans

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

// ErrNotFound is returned when a loan does not exist for the owner.
var ErrNotFound = fmt.Errorf("%w: loan", httpx.ErrNotFound)

// Repository is the persistence port for loans.
type Repository interface {
	Get(ctx context.Context, ownerID, id int64) (*Loan, error)
	List(ctx context.Context, ownerID int64) ([]Loan, error)
	Create(ctx context.Context, l Loan) (int64, error)
	Update(ctx context.Context, l Loan) error
	Delete(ctx context.Context, ownerID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const loanColumns = `id, owner_id, name, total_amount, remaining_amount, target_date, is_active, created_at, updated_at`

func (r *repository) Get(ctx context.Context, ownerID, id int64) (*Loan, error) {
	var l Loan
	err := r.pool.QueryRow(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1 AND owner_id = $2`, id, ownerID).
		Scan(&l.ID, &l.OwnerID, &l.Name, &l.TotalAmount, &l.RemainingAmount,
			&l.TargetDate, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *repository) List(ctx context.Context, ownerID int64) ([]Loan, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Loan
	for rows.Next() {
		var l Loan
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.Name, &l.TotalAmount, &l.RemainingAmount,
			&l.TargetDate, &l.IsActive, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, l Loan) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO loans (owner_id, name, total_amount, remaining_amount, target_date, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id`,
		l.OwnerID, l.Name, l.TotalAmount, l.RemainingAmount, l.TargetDate, l.IsActive).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, l Loan) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE loans SET name = $3, total_amount = $4, remaining_amount = $5, target_date = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2`,
		l.ID, l.OwnerID, l.Name, l.TotalAmount, l.RemainingAmount, l.TargetDate, l.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM loans WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
