package workspaces

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

// ErrNotFound is returned when a workspace does not exist for the owner.
var ErrNotFound = fmt.Errorf("%w: workspace", httpx.ErrNotFound)

// Repository is the persistence port for workspaces.
type Repository interface {
	Get(ctx context.Context, ownerID, id int64) (*Workspace, error)
	List(ctx context.Context, ownerID int64) ([]Workspace, error)
	Create(ctx context.Context, w Workspace) (int64, error)
	Update(ctx context.Context, w Workspace) error
	Delete(ctx context.Context, ownerID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const workspaceColumns = `id, owner_id, name, color, created_at, updated_at`

func (r *repository) Get(ctx context.Context, ownerID, id int64) (*Workspace, error) {
	var w Workspace
	err := r.pool.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1 AND owner_id = $2`, id, ownerID).
		Scan(&w.ID, &w.OwnerID, &w.Name, &w.Color, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *repository) List(ctx context.Context, ownerID int64) ([]Workspace, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Workspace
	for rows.Next() {
		var w Workspace
		if err := rows.Scan(&w.ID, &w.OwnerID, &w.Name, &w.Color, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, w Workspace) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO workspaces (owner_id, name, color, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id`,
		w.OwnerID, w.Name, w.Color).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, w Workspace) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE workspaces SET name = $3, color = $4, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2`,
		w.ID, w.OwnerID, w.Name, w.Color)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workspaces WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
