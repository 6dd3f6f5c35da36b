package transactions

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hq/meridian/internal/finance/accounts"
	"github.com/meridian-hq/meridian/internal/platform/db"
	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

// Module-local persistence errors, each wrapping an httpx sentinel.
var (
	ErrNotFound         = fmt.Errorf("%w: transaction", httpx.ErrNotFound)
	ErrAccountNotFound  = fmt.Errorf("%w: account", httpx.ErrNotFound)
	ErrBudgetNotFound   = fmt.Errorf("%w: budget", httpx.ErrNotFound)
	ErrGoalNotFound     = fmt.Errorf("%w: savings goal", httpx.ErrNotFound)
	ErrLoanNotFound     = fmt.Errorf("%w: loan", httpx.ErrNotFound)
	ErrDuplicateRequest = fmt.Errorf("%w: client_request_id already used", httpx.ErrDuplicate)
)

// AccountState is the slice of an account the recorder needs to adjust
// balances and credit fields.
type AccountState struct {
	ID              int64
	Type            accounts.AccountType
	Currency        string
	CurrentBalance  float64
	CreditLimit     *float64
	UsedCredit      *float64
	AvailableCredit *float64
}

// IsCreditCard reports whether the account tracks credit fields.
func (a *AccountState) IsCreditCard() bool {
	return a.Type == accounts.AccountTypeCreditCard
}

// LoanState is the slice of a loan the recorder needs for repayments.
type LoanState struct {
	ID        int64
	Remaining float64
	IsActive  bool
}

// Repository is the persistence port for transactions.
type Repository interface {
	Get(ctx context.Context, ownerID, id int64) (*Transaction, error)
	GetByClientRequest(ctx context.Context, ownerID int64, clientRequestID string) (*Transaction, error)
	List(ctx context.Context, req ListTransactionsRequest) ([]Transaction, int64, error)
	// WithTx runs fn inside a single transaction. Recording goes through
	// here so the transaction row and every balance effect commit together.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
}

// TxRepository is the transactional slice of the port used by the recorder.
type TxRepository interface {
	Insert(ctx context.Context, t Transaction) (int64, error)
	GetByClientRequestID(ctx context.Context, ownerID int64, clientRequestID string) (*Transaction, error)
	GetForUpdate(ctx context.Context, ownerID, id int64) (*Transaction, error)
	UpdateRow(ctx context.Context, t Transaction) error
	DeleteRow(ctx context.Context, ownerID, id int64) error
	ReplaceTags(ctx context.Context, transactionID int64, tags []string) error

	GetAccountForUpdate(ctx context.Context, ownerID, id int64) (*AccountState, error)
	SaveAccountBalance(ctx context.Context, id int64, balance float64) error
	SaveAccountCredit(ctx context.Context, id int64, used, available float64) error
	RecomputeBudgetSpent(ctx context.Context, ownerID, budgetID int64) (float64, error)
	CreditGoal(ctx context.Context, ownerID, goalID int64, amount float64) error
	GetLoanForUpdate(ctx context.Context, ownerID, id int64) (*LoanState, error)
	SaveLoan(ctx context.Context, id int64, remaining float64, active bool) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const txnColumns = `id, owner_id, created_by, type, amount, currency, description, account_id, to_account_id,
	category_id, budget_id, goal_id, loan_id, client_request_id, occurred_at, created_at, updated_at`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.OwnerID, &t.CreatedBy, &t.Type, &t.Amount, &t.Currency, &t.Description,
		&t.AccountID, &t.ToAccountID, &t.CategoryID, &t.BudgetID, &t.GoalID, &t.LoanID,
		&t.ClientRequestID, &t.OccurredAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) Get(ctx context.Context, ownerID, id int64) (*Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if err != nil {
		return nil, err
	}
	if err := r.loadTags(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *repository) GetByClientRequest(ctx context.Context, ownerID int64, clientRequestID string) (*Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE owner_id = $1 AND client_request_id = $2`,
		ownerID, clientRequestID))
	if err != nil {
		return nil, err
	}
	if err := r.loadTags(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *repository) loadTags(ctx context.Context, t *Transaction) error {
	rows, err := r.pool.Query(ctx,
		`SELECT tag FROM transaction_tags WHERE transaction_id = $1 ORDER BY tag`, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return err
		}
		t.Tags = append(t.Tags, tag)
	}
	return rows.Err()
}

func (r *repository) List(ctx context.Context, req ListTransactionsRequest) ([]Transaction, int64, error) {
	where := `owner_id = $1`
	args := []any{req.OwnerID}
	arg := func(v any) string {
		args = append(args, v)
		return `$` + strconv.Itoa(len(args))
	}
	if req.AccountID != nil {
		p := arg(*req.AccountID)
		where += ` AND (account_id = ` + p + ` OR to_account_id = ` + p + `)`
	}
	if req.BudgetID != nil {
		where += ` AND budget_id = ` + arg(*req.BudgetID)
	}
	if req.CategoryID != nil {
		where += ` AND category_id = ` + arg(*req.CategoryID)
	}
	if req.Type != nil {
		where += ` AND type = ` + arg(*req.Type)
	}
	if req.From != nil {
		where += ` AND occurred_at >= ` + arg(*req.From)
	}
	if req.To != nil {
		where += ` AND occurred_at < ` + arg(*req.To)
	}

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (req.Page - 1) * req.PerPage
	args = append(args, req.PerPage, offset)
	rows, err := r.pool.Query(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE `+where+
			` ORDER BY occurred_at DESC, id DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	return out, total, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Insert(ctx context.Context, t Transaction) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO transactions (owner_id, created_by, type, amount, currency, description, account_id, to_account_id,
			category_id, budget_id, goal_id, loan_id, client_request_id, occurred_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING id`,
		t.OwnerID, t.CreatedBy, t.Type, t.Amount, t.Currency, t.Description, t.AccountID, t.ToAccountID,
		t.CategoryID, t.BudgetID, t.GoalID, t.LoanID, t.ClientRequestID, t.OccurredAt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateRequest
		}
		return 0, err
	}
	return id, nil
}

func (r *txRepository) GetByClientRequestID(ctx context.Context, ownerID int64, clientRequestID string) (*Transaction, error) {
	return scanTransaction(r.tx.QueryRow(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE owner_id = $1 AND client_request_id = $2`,
		ownerID, clientRequestID))
}

func (r *txRepository) GetForUpdate(ctx context.Context, ownerID, id int64) (*Transaction, error) {
	return scanTransaction(r.tx.QueryRow(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE id = $1 AND owner_id = $2 FOR UPDATE`, id, ownerID))
}

func (r *txRepository) UpdateRow(ctx context.Context, t Transaction) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE transactions SET amount = $3, description = $4, category_id = $5, budget_id = $6, occurred_at = $7, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2`,
		t.ID, t.OwnerID, t.Amount, t.Description, t.CategoryID, t.BudgetID, t.OccurredAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) DeleteRow(ctx context.Context, ownerID, id int64) error {
	tag, err := r.tx.Exec(ctx,
		`DELETE FROM transactions WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) ReplaceTags(ctx context.Context, transactionID int64, tags []string) error {
	if _, err := r.tx.Exec(ctx,
		`DELETE FROM transaction_tags WHERE transaction_id = $1`, transactionID); err != nil {
		return err
	}
	for _, tag := range tags {
		if _, err := r.tx.Exec(ctx,
			`INSERT INTO transaction_tags (transaction_id, tag) VALUES ($1, $2)`, transactionID, tag); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetAccountForUpdate(ctx context.Context, ownerID, id int64) (*AccountState, error) {
	var a AccountState
	err := r.tx.QueryRow(ctx, `
		SELECT id, type, currency, current_balance, credit_limit, used_credit, available_credit
		FROM accounts WHERE id = $1 AND owner_id = $2 FOR UPDATE`, id, ownerID).
		Scan(&a.ID, &a.Type, &a.Currency, &a.CurrentBalance, &a.CreditLimit, &a.UsedCredit, &a.AvailableCredit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *txRepository) SaveAccountBalance(ctx context.Context, id int64, balance float64) error {
	_, err := r.tx.Exec(ctx,
		`UPDATE accounts SET current_balance = $2, updated_at = NOW() WHERE id = $1`, id, balance)
	return err
}

func (r *txRepository) SaveAccountCredit(ctx context.Context, id int64, used, available float64) error {
	_, err := r.tx.Exec(ctx,
		`UPDATE accounts SET used_credit = $2, available_credit = $3, updated_at = NOW() WHERE id = $1`,
		id, used, available)
	return err
}

// RecomputeBudgetSpent rebuilds current_spent from the linked transactions.
// Income rows offset spending; the result never goes below zero.
func (r *txRepository) RecomputeBudgetSpent(ctx context.Context, ownerID, budgetID int64) (float64, error) {
	var spent float64
	err := r.tx.QueryRow(ctx, `
		UPDATE budgets SET current_spent = GREATEST(0, COALESCE((
			SELECT SUM(CASE WHEN t.type = 'income' THEN -t.amount ELSE t.amount END)
			FROM transactions t
			WHERE t.budget_id = budgets.id AND t.owner_id = $2
		), 0)), updated_at = NOW()
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
		RETURNING current_spent`, budgetID, ownerID).Scan(&spent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrBudgetNotFound
		}
		return 0, err
	}
	return spent, nil
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

func (r *txRepository) GetLoanForUpdate(ctx context.Context, ownerID, id int64) (*LoanState, error) {
	var l LoanState
	err := r.tx.QueryRow(ctx, `
		SELECT id, remaining_amount, is_active FROM loans
		WHERE id = $1 AND owner_id = $2 FOR UPDATE`, id, ownerID).
		Scan(&l.ID, &l.Remaining, &l.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *txRepository) SaveLoan(ctx context.Context, id int64, remaining float64, active bool) error {
	_, err := r.tx.Exec(ctx,
		`UPDATE loans SET remaining_amount = $2, is_active = $3, updated_at = NOW() WHERE id = $1`,
		id, remaining, active)
	return err
}
