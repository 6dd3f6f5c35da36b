package categories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

// ErrNotFound is returned when a category does not exist for the owner.
var ErrNotFound = fmt.Errorf("%w: category", httpx.ErrNotFound)

// Repository is the persistence port for categories.
type Repository interface {
	Get(ctx context.Context, ownerID, id int64) (*Category, error)
	List(ctx context.Context, ownerID int64) ([]Category, error)
	Create(ctx context.Context, c Category) (int64, error)
	Update(ctx context.Context, c Category) error
	Delete(ctx context.Context, ownerID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, ownerID, id int64) (*Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, type, name, color, created_at, updated_at
		FROM categories WHERE id = $1 AND owner_id = $2`, id, ownerID).
		Scan(&c.ID, &c.OwnerID, &c.Type, &c.Name, &c.Color, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, ownerID int64) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, type, name, color, created_at, updated_at
		FROM categories WHERE owner_id = $1 ORDER BY type, name`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Type, &c.Name, &c.Color, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Category) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO categories (owner_id, type, name, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id`, c.OwnerID, c.Type, c.Name, c.Color).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, c Category) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE categories SET name = $3, color = $4, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2`, c.ID, c.OwnerID, c.Name, c.Color)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
