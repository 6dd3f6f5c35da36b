package accounts

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
	"github.com/meridian-hq/meridian/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates account operations, including credit reconciliation and
// the opening-balance backfill.
type Service struct {
	repo   Repository
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo Repository, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Create opens a new account. Credit-card accounts start fully available;
// other types start at their starting balance.
func (s *Service) Create(ctx context.Context, ownerID int64, in CreateAccountInput) (*Account, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	a := Account{
		OwnerID:         ownerID,
		Name:            in.Name,
		Type:            AccountType(in.Type),
		Currency:        in.Currency,
		StartingBalance: in.StartingBalance,
		CurrentBalance:  in.StartingBalance,
	}
	if a.IsCreditCard() {
		limit := *in.CreditLimit
		zero := 0.0
		a.CreditLimit = &limit
		a.UsedCredit = &zero
		a.AvailableCredit = &limit
	}
	id, err := s.repo.Create(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return s.repo.Get(ctx, ownerID, id)
}

// Get fetches a single account.
func (s *Service) Get(ctx context.Context, ownerID, id int64) (*Account, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// List returns all accounts for an owner.
func (s *Service) List(ctx context.Context, ownerID int64) ([]Account, error) {
	return s.repo.List(ctx, ownerID)
}

// Update applies partial field updates.
func (s *Service) Update(ctx context.Context, ownerID, id int64, in UpdateAccountInput) (*Account, error) {
	if in.CreditLimit != nil && *in.CreditLimit <= 0 {
		return nil, fmt.Errorf("%w: credit_limit must be positive", httpx.ErrValidation)
	}
	if err := s.repo.Update(ctx, ownerID, id, in); err != nil {
		return nil, err
	}
	if in.CreditLimit != nil {
		// The limit moved, so the used/available split may now be out of
		// bounds and must be repaired.
		return s.ReconcileCreditCard(ctx, ownerID, id)
	}
	return s.repo.Get(ctx, ownerID, id)
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	return s.repo.Delete(ctx, ownerID, id)
}

// ReconcileCreditCard repairs the used/available credit split of a
// credit-card account. Non-credit accounts are returned unchanged. The
// operation is idempotent and runs in a single transaction.
func (s *Service) ReconcileCreditCard(ctx context.Context, ownerID, id int64) (*Account, error) {
	var out *Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		a, err := tx.GetForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if !a.IsCreditCard() || a.CreditLimit == nil {
			out = a
			return nil
		}
		var used, available float64
		if a.UsedCredit != nil {
			used = *a.UsedCredit
		}
		if a.AvailableCredit != nil {
			available = *a.AvailableCredit
		}
		used, available = ClampCredit(used, available, *a.CreditLimit)
		if err := tx.SaveCredit(ctx, a.ID, used, available); err != nil {
			return fmt.Errorf("save credit fields: %w", err)
		}
		a.UsedCredit = &used
		a.AvailableCredit = &available
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EnsureOpeningBalance backfills the synthetic opening-balance transaction
// for a non-credit account with a positive starting balance. Detection is by
// tag presence, so repeated calls insert at most one transaction.
func (s *Service) EnsureOpeningBalance(ctx context.Context, ownerID, id int64) (bool, error) {
	created := false
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		a, err := tx.GetForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if a.IsCreditCard() || a.StartingBalance <= 0 {
			return nil
		}
		exists, err := tx.HasOpeningBalance(ctx, ownerID, a.ID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		if err := tx.InsertOpeningBalance(ctx, a); err != nil {
			return fmt.Errorf("insert opening balance: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if created && s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			OwnerID:  ownerID,
			Action:   "account.opening_balance",
			Entity:   "account",
			EntityID: strconv.FormatInt(id, 10),
		}); err != nil && s.logger != nil {
			s.logger.Warn("audit opening balance", slog.Any("error", err))
		}
	}
	return created, nil
}
