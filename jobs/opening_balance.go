package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-hq/meridian/internal/finance/accounts"
)

// OpeningBalanceBackfill ensures every eligible account of one owner has its
// synthetic opening-balance transaction.
type OpeningBalanceBackfill struct {
	repo    accounts.Repository
	service *accounts.Service
	logger  *slog.Logger
}

// NewOpeningBalanceBackfill builds the backfill job.
func NewOpeningBalanceBackfill(repo accounts.Repository, service *accounts.Service, logger *slog.Logger) *OpeningBalanceBackfill {
	return &OpeningBalanceBackfill{repo: repo, service: service, logger: logger}
}

// Handle processes TaskOpeningBalance tasks.
func (j *OpeningBalanceBackfill) Handle(ctx context.Context, t *asynq.Task) error {
	var payload OpeningBalancePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	list, err := j.repo.List(ctx, payload.OwnerID)
	if err != nil {
		return err
	}
	created := 0
	for _, a := range list {
		ok, err := j.service.EnsureOpeningBalance(ctx, payload.OwnerID, a.ID)
		if err != nil {
			j.logger.Warn("opening balance backfill failed",
				slog.Int64("account_id", a.ID), slog.Any("error", err))
			continue
		}
		if ok {
			created++
		}
	}
	j.logger.Info("opening balance backfill done",
		slog.Int64("owner_id", payload.OwnerID),
		slog.Int("accounts", len(list)), slog.Int("created", created))
	return nil
}
