package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hq/meridian/internal/platform/db"
	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

// ErrNotFound is returned when an account does not exist or belongs to a
// different owner.
var ErrNotFound = fmt.Errorf("%w: account", httpx.ErrNotFound)

// Repository is the persistence port for accounts.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, ownerID, id int64) (*Account, error)
	List(ctx context.Context, ownerID int64) ([]Account, error)
	Create(ctx context.Context, a Account) (int64, error)
	Update(ctx context.Context, ownerID, id int64, in UpdateAccountInput) error
	Delete(ctx context.Context, ownerID, id int64) error
	ListCreditCardRefs(ctx context.Context) ([]CreditCardRef, error)
}

// CreditCardRef identifies a credit-card account for the reconcile sweep.
type CreditCardRef struct {
	OwnerID int64
	ID      int64
}

// TxRepository exposes the operations available inside a transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, ownerID, id int64) (*Account, error)
	SaveCredit(ctx context.Context, id int64, used, available float64) error
	HasOpeningBalance(ctx context.Context, ownerID, accountID int64) (bool, error)
	InsertOpeningBalance(ctx context.Context, a *Account) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const accountColumns = `id, owner_id, name, type, currency, starting_balance, current_balance, credit_limit, used_credit, available_credit, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Type, &a.Currency,
		&a.StartingBalance, &a.CurrentBalance, &a.CreditLimit, &a.UsedCredit,
		&a.AvailableCredit, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *repository) Get(ctx context.Context, ownerID, id int64) (*Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND owner_id = $2`, id, ownerID)
	return scanAccount(row)
}

func (r *repository) List(ctx context.Context, ownerID int64) ([]Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, a Account) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (owner_id, name, type, currency, starting_balance, current_balance, credit_limit, used_credit, available_credit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id`,
		a.OwnerID, a.Name, a.Type, a.Currency, a.StartingBalance, a.CurrentBalance,
		a.CreditLimit, a.UsedCredit, a.AvailableCredit).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, ownerID, id int64, in UpdateAccountInput) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts SET
			name = COALESCE($3, name),
			credit_limit = COALESCE($4, credit_limit),
			updated_at = NOW()
		WHERE id = $1 AND owner_id = $2`,
		id, ownerID, in.Name, in.CreditLimit)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListCreditCardRefs(ctx context.Context) ([]CreditCardRef, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT owner_id, id FROM accounts WHERE type = $1 ORDER BY id`, AccountTypeCreditCard)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []CreditCardRef
	for rows.Next() {
		var ref CreditCardRef
		if err := rows.Scan(&ref.OwnerID, &ref.ID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetForUpdate(ctx context.Context, ownerID, id int64) (*Account, error) {
	row := r.tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND owner_id = $2 FOR UPDATE`, id, ownerID)
	return scanAccount(row)
}

func (r *txRepository) SaveCredit(ctx context.Context, id int64, used, available float64) error {
	_, err := r.tx.Exec(ctx,
		`UPDATE accounts SET used_credit = $2, available_credit = $3, updated_at = NOW() WHERE id = $1`,
		id, used, available)
	return err
}

func (r *txRepository) HasOpeningBalance(ctx context.Context, ownerID, accountID int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM transactions t
			JOIN transaction_tags tt ON tt.transaction_id = t.id
			WHERE t.owner_id = $1 AND t.account_id = $2 AND tt.tag = 'source=opening_balance'
		)`, ownerID, accountID).Scan(&exists)
	return exists, err
}

func (r *txRepository) InsertOpeningBalance(ctx context.Context, a *Account) error {
	var txID int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO transactions (owner_id, created_by, type, amount, currency, account_id, occurred_at, created_at, updated_at)
		VALUES ($1, $1, 'income', $2, $3, $4, $5, NOW(), NOW())
		RETURNING id`,
		a.OwnerID, a.StartingBalance, a.Currency, a.ID, a.CreatedAt).Scan(&txID)
	if err != nil {
		return err
	}
	_, err = r.tx.Exec(ctx,
		`INSERT INTO transaction_tags (transaction_id, tag) VALUES ($1, 'source=opening_balance')`, txID)
	return err
}
