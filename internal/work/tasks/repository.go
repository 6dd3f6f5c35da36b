package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hq/meridian/internal/platform/db"
	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

// Module-local persistence errors.
var (
	ErrNotFound       = fmt.Errorf("%w: task", httpx.ErrNotFound)
	ErrColumnNotFound = fmt.Errorf("%w: board column", httpx.ErrNotFound)
)

// Repository is the persistence port for tasks.
type Repository interface {
	Get(ctx context.Context, ownerID, id int64) (*Task, error)
	ListBoard(ctx context.Context, ownerID, boardID int64) ([]Task, error)
	Create(ctx context.Context, t Task) (int64, error)
	Update(ctx context.Context, t Task) error
	Delete(ctx context.Context, ownerID, id int64) error
	NextPosition(ctx context.Context, columnID int64) (int, error)
	// WithTx runs fn inside a single transaction; Move goes through here so
	// the whole reindex commits atomically.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
}

// TxRepository is the transactional slice of the port used by Move.
type TxRepository interface {
	GetForUpdate(ctx context.Context, ownerID, id int64) (*Task, error)
	ColumnOnBoard(ctx context.Context, columnID, boardID int64) (bool, error)
	ListColumnIDs(ctx context.Context, ownerID, columnID int64) ([]int64, error)
	SetPlacement(ctx context.Context, taskID, columnID int64, position int) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const taskColumns = `id, owner_id, board_id, column_id, category_id, title, description,
	due_date, priority, completed, completed_at, position, created_at, updated_at`

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.OwnerID, &t.BoardID, &t.ColumnID, &t.CategoryID, &t.Title,
		&t.Description, &t.DueDate, &t.Priority, &t.Completed, &t.CompletedAt,
		&t.Position, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) Get(ctx context.Context, ownerID, id int64) (*Task, error) {
	return scanTask(r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID))
}

func (r *repository) ListBoard(ctx context.Context, ownerID, boardID int64) ([]Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE owner_id = $1 AND board_id = $2 ORDER BY column_id, position, id`,
		ownerID, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, t Task) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (owner_id, board_id, column_id, category_id, title, description,
			due_date, priority, completed, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9, NOW(), NOW())
		RETURNING id`,
		t.OwnerID, t.BoardID, t.ColumnID, t.CategoryID, t.Title, t.Description,
		t.DueDate, t.Priority, t.Position).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, t Task) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks SET title = $3, description = $4, category_id = $5, due_date = $6,
			priority = $7, completed = $8, completed_at = $9, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2`,
		t.ID, t.OwnerID, t.Title, t.Description, t.CategoryID, t.DueDate,
		t.Priority, t.Completed, t.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) NextPosition(ctx context.Context, columnID int64) (int, error) {
	var next int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM tasks WHERE column_id = $1`, columnID).Scan(&next)
	return next, err
}

func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetForUpdate(ctx context.Context, ownerID, id int64) (*Task, error) {
	return scanTask(r.tx.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner_id = $2 FOR UPDATE`, id, ownerID))
}

func (r *txRepository) ColumnOnBoard(ctx context.Context, columnID, boardID int64) (bool, error) {
	var ok bool
	err := r.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM board_columns WHERE id = $1 AND board_id = $2)`,
		columnID, boardID).Scan(&ok)
	return ok, err
}

func (r *txRepository) ListColumnIDs(ctx context.Context, ownerID, columnID int64) ([]int64, error) {
	rows, err := r.tx.Query(ctx, `
		SELECT id FROM tasks WHERE owner_id = $1 AND column_id = $2
		ORDER BY position, id FOR UPDATE`, ownerID, columnID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *txRepository) SetPlacement(ctx context.Context, taskID, columnID int64, position int) error {
	_, err := r.tx.Exec(ctx,
		`UPDATE tasks SET column_id = $2, position = $3, updated_at = NOW() WHERE id = $1`,
		taskID, columnID, position)
	return err
}
