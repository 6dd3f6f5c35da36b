package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-hq/meridian/internal/finance/accounts"
)

// ReconcileSweep repairs the used/available credit split of every credit-card
// account. Reconciliation is idempotent, so re-running the sweep is safe.
type ReconcileSweep struct {
	repo    accounts.Repository
	service *accounts.Service
	logger  *slog.Logger
}

// NewReconcileSweep builds the sweep job.
func NewReconcileSweep(repo accounts.Repository, service *accounts.Service, logger *slog.Logger) *ReconcileSweep {
	return &ReconcileSweep{repo: repo, service: service, logger: logger}
}

// Handle processes TaskReconcileSweep tasks.
func (j *ReconcileSweep) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	refs, err := j.repo.ListCreditCardRefs(ctx)
	if err != nil {
		return err
	}
	repaired := 0
	for _, ref := range refs {
		if _, err := j.service.ReconcileCreditCard(ctx, ref.OwnerID, ref.ID); err != nil {
			j.logger.Warn("credit reconcile failed",
				slog.Int64("account_id", ref.ID), slog.Any("error", err))
			continue
		}
		repaired++
	}
	j.logger.Info("credit reconcile sweep done",
		slog.Int("accounts", len(refs)), slog.Int("repaired", repaired))
	return nil
}
