package boards

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hq/meridian/internal/platform/db"
	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

// ErrNotFound is returned when a board does not exist for the owner.
var ErrNotFound = fmt.Errorf("%w: board", httpx.ErrNotFound)

// Repository is the persistence port for boards and their columns.
type Repository interface {
	Get(ctx context.Context, ownerID, id int64) (*Board, error)
	List(ctx context.Context, ownerID, workspaceID int64) ([]Board, error)
	// Create inserts the board and its initial columns in one transaction.
	Create(ctx context.Context, b Board) (int64, error)
	Update(ctx context.Context, b Board) error
	Delete(ctx context.Context, ownerID, id int64) error
	AddColumn(ctx context.Context, ownerID, boardID int64, name string) (int64, error)
	RenameColumn(ctx context.Context, ownerID, columnID int64, name string) error
	DeleteColumn(ctx context.Context, ownerID, columnID int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, ownerID, id int64) (*Board, error) {
	var b Board
	err := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, workspace_id, name, created_at, updated_at
		FROM boards WHERE id = $1 AND owner_id = $2`, id, ownerID).
		Scan(&b.ID, &b.OwnerID, &b.WorkspaceID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.loadColumns(ctx, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) loadColumns(ctx context.Context, b *Board) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, board_id, name, position FROM board_columns
		WHERE board_id = $1 ORDER BY position, id`, b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.ID, &c.BoardID, &c.Name, &c.Position); err != nil {
			return err
		}
		b.Columns = append(b.Columns, c)
	}
	return rows.Err()
}

func (r *repository) List(ctx context.Context, ownerID, workspaceID int64) ([]Board, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, workspace_id, name, created_at, updated_at
		FROM boards WHERE owner_id = $1 AND workspace_id = $2 ORDER BY created_at, id`,
		ownerID, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Board
	for rows.Next() {
		var b Board
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.WorkspaceID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, b Board) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO boards (owner_id, workspace_id, name, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			RETURNING id`,
			b.OwnerID, b.WorkspaceID, b.Name).Scan(&id); err != nil {
			return err
		}
		for i, c := range b.Columns {
			if _, err := tx.Exec(ctx, `
				INSERT INTO board_columns (board_id, name, position) VALUES ($1, $2, $3)`,
				id, c.Name, i); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}

func (r *repository) Update(ctx context.Context, b Board) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE boards SET name = $3, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2`, b.ID, b.OwnerID, b.Name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) AddColumn(ctx context.Context, ownerID, boardID int64, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO board_columns (board_id, name, position)
		SELECT b.id, $3, COALESCE(MAX(c.position) + 1, 0)
		FROM boards b LEFT JOIN board_columns c ON c.board_id = b.id
		WHERE b.id = $1 AND b.owner_id = $2
		GROUP BY b.id
		RETURNING id`, boardID, ownerID, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

func (r *repository) RenameColumn(ctx context.Context, ownerID, columnID int64, name string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE board_columns c SET name = $3
		FROM boards b WHERE c.id = $1 AND c.board_id = b.id AND b.owner_id = $2`,
		columnID, ownerID, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) DeleteColumn(ctx context.Context, ownerID, columnID int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM board_columns c
		USING boards b WHERE c.id = $1 AND c.board_id = b.id AND b.owner_id = $2`,
		columnID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
