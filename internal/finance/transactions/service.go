package transactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/meridian-hq/meridian/internal/finance/accounts"
	"github.com/meridian-hq/meridian/internal/platform/httpx"
	"github.com/meridian-hq/meridian/internal/shared"
)

// ErrCurrencyMismatch is returned when a transaction currency differs from
// its account currency.
var ErrCurrencyMismatch = fmt.Errorf("%w: transaction currency must match account currency", httpx.ErrValidation)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service records transactions and keeps account balances, budgets, goals
// and loans consistent with them.
type Service struct {
	repo   Repository
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo Repository, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Record writes a transaction and applies all of its balance effects in one
// database transaction. When client_request_id is set and a row with that id
// already exists for the owner, the existing row is returned and created is
// false; no effects are applied twice.
func (s *Service) Record(ctx context.Context, ownerID int64, in CreateTransactionInput) (*Transaction, bool, error) {
	if err := in.Validate(); err != nil {
		return nil, false, err
	}

	occurred := time.Now()
	if in.OccurredAt != nil {
		occurred = *in.OccurredAt
	}
	t := Transaction{
		OwnerID:         ownerID,
		CreatedBy:       ownerID,
		Type:            TransactionType(in.Type),
		Amount:          in.Amount,
		Currency:        in.Currency,
		Description:     in.Description,
		AccountID:       in.AccountID,
		ToAccountID:     in.ToAccountID,
		CategoryID:      in.CategoryID,
		BudgetID:        in.BudgetID,
		GoalID:          in.GoalID,
		LoanID:          in.LoanID,
		ClientRequestID: in.ClientRequestID,
		OccurredAt:      occurred,
		Tags:            in.Tags,
	}

	var replay *Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if t.ClientRequestID != nil {
			existing, err := tx.GetByClientRequestID(ctx, ownerID, *t.ClientRequestID)
			if err == nil {
				replay = existing
				return nil
			}
			if !errors.Is(err, ErrNotFound) {
				return err
			}
		}
		if err := s.validateCurrencies(ctx, tx, &t); err != nil {
			return err
		}
		id, err := tx.Insert(ctx, t)
		if err != nil {
			return err
		}
		t.ID = id
		if len(t.Tags) > 0 {
			if err := tx.ReplaceTags(ctx, id, t.Tags); err != nil {
				return err
			}
		}
		return s.applyEffects(ctx, tx, &t, 1)
	})
	if err != nil {
		// Two concurrent submissions with the same client_request_id race
		// past the pre-check; the unique index stops the loser, which then
		// reads the winner's row.
		if errors.Is(err, ErrDuplicateRequest) && t.ClientRequestID != nil {
			existing, rerr := s.repo.GetByClientRequest(ctx, ownerID, *t.ClientRequestID)
			if rerr != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	if replay != nil {
		return replay, false, nil
	}

	s.recordAudit(ctx, ownerID, t.ID, "transaction.recorded", string(t.Type), t.Amount)
	out, err := s.repo.Get(ctx, ownerID, t.ID)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (s *Service) validateCurrencies(ctx context.Context, tx TxRepository, t *Transaction) error {
	if t.AccountID == nil {
		return nil
	}
	a, err := tx.GetAccountForUpdate(ctx, t.OwnerID, *t.AccountID)
	if err != nil {
		return err
	}
	if a.Currency != t.Currency {
		return ErrCurrencyMismatch
	}
	if t.Type == TypeTransfer {
		dst, err := tx.GetAccountForUpdate(ctx, t.OwnerID, *t.ToAccountID)
		if err != nil {
			return err
		}
		if dst.Currency != t.Currency {
			return fmt.Errorf("%w: transfer accounts must share a currency", httpx.ErrValidation)
		}
	}
	return nil
}

// applyEffects adjusts every aggregate the transaction touches. sign is +1
// when recording and -1 when reversing for an update or delete. A nil
// account link means cash spending; only the budget/goal/loan effects apply.
func (s *Service) applyEffects(ctx context.Context, tx TxRepository, t *Transaction, sign float64) error {
	if t.AccountID != nil {
		a, err := tx.GetAccountForUpdate(ctx, t.OwnerID, *t.AccountID)
		if err != nil {
			return err
		}
		delta := sign * t.balanceDelta()
		if err := tx.SaveAccountBalance(ctx, a.ID, a.CurrentBalance+delta); err != nil {
			return fmt.Errorf("save account balance: %w", err)
		}
		if a.IsCreditCard() && a.CreditLimit != nil {
			var used, available float64
			if a.UsedCredit != nil {
				used = *a.UsedCredit
			}
			// Spending raises used credit, payments lower it. The clamp keeps
			// the split inside [0, limit] whatever history produced it.
			used -= delta
			used, available = accounts.ClampCredit(used, *a.CreditLimit-used, *a.CreditLimit)
			if err := tx.SaveAccountCredit(ctx, a.ID, used, available); err != nil {
				return fmt.Errorf("save account credit: %w", err)
			}
		}
	}

	if t.Type == TypeTransfer && t.ToAccountID != nil {
		dst, err := tx.GetAccountForUpdate(ctx, t.OwnerID, *t.ToAccountID)
		if err != nil {
			return err
		}
		if err := tx.SaveAccountBalance(ctx, dst.ID, dst.CurrentBalance+sign*t.Amount); err != nil {
			return fmt.Errorf("save destination balance: %w", err)
		}
	}

	if t.GoalID != nil && t.Type == TypeSavings {
		if err := tx.CreditGoal(ctx, t.OwnerID, *t.GoalID, sign*t.Amount); err != nil {
			return err
		}
	}

	if t.LoanID != nil && t.Type == TypeLoan {
		l, err := tx.GetLoanForUpdate(ctx, t.OwnerID, *t.LoanID)
		if err != nil {
			return err
		}
		remaining := l.Remaining - sign*t.Amount
		if remaining < 0 {
			remaining = 0
		}
		if err := tx.SaveLoan(ctx, l.ID, remaining, remaining > 0); err != nil {
			return fmt.Errorf("save loan: %w", err)
		}
	}

	if t.BudgetID != nil {
		if _, err := tx.RecomputeBudgetSpent(ctx, t.OwnerID, *t.BudgetID); err != nil {
			return err
		}
	}
	return nil
}

// Get fetches a single transaction.
func (s *Service) Get(ctx context.Context, ownerID, id int64) (*Transaction, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// List returns transactions for an owner, filtered and paginated.
func (s *Service) List(ctx context.Context, req ListTransactionsRequest) ([]Transaction, *shared.Pagination, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 25
	}
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	p := shared.NewPagination(req.Page, req.PerPage, total)
	return items, &p, nil
}

// Update edits a transaction by reversing its old effects and applying the
// new ones inside one database transaction.
func (s *Service) Update(ctx context.Context, ownerID, id int64, in UpdateTransactionInput) (*Transaction, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		old, err := tx.GetForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if err := s.applyEffects(ctx, tx, old, -1); err != nil {
			return fmt.Errorf("reverse effects: %w", err)
		}
		next := *old
		if in.Amount != nil {
			next.Amount = *in.Amount
		}
		if in.Description != nil {
			next.Description = *in.Description
		}
		if in.CategoryID != nil {
			next.CategoryID = in.CategoryID
		}
		if in.BudgetID != nil {
			next.BudgetID = in.BudgetID
		}
		if in.OccurredAt != nil {
			next.OccurredAt = *in.OccurredAt
		}
		if err := tx.UpdateRow(ctx, next); err != nil {
			return err
		}
		if err := s.applyEffects(ctx, tx, &next, 1); err != nil {
			return fmt.Errorf("apply effects: %w", err)
		}
		// The old budget also needs a recompute when the link moved.
		if old.BudgetID != nil && (next.BudgetID == nil || *old.BudgetID != *next.BudgetID) {
			if _, err := tx.RecomputeBudgetSpent(ctx, ownerID, *old.BudgetID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ownerID, id)
}

// Delete removes a transaction, reversing its balance effects.
func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	var amount float64
	var typ TransactionType
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		old, err := tx.GetForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		amount, typ = old.Amount, old.Type
		if err := s.applyEffects(ctx, tx, old, -1); err != nil {
			return fmt.Errorf("reverse effects: %w", err)
		}
		if err := tx.DeleteRow(ctx, ownerID, id); err != nil {
			return err
		}
		if old.BudgetID != nil {
			if _, err := tx.RecomputeBudgetSpent(ctx, ownerID, *old.BudgetID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, ownerID, id, "transaction.deleted", string(typ), amount)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, ownerID, id int64, action, typ string, amount float64) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		OwnerID:  ownerID,
		Action:   action,
		Entity:   "transaction",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"type": typ, "amount": amount},
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit transaction", slog.Any("error", err))
	}
}
