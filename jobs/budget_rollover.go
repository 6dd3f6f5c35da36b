package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-hq/meridian/internal/finance/budgets"
	"github.com/meridian-hq/meridian/internal/shared"
)

// BudgetRollover closes expired recurring budgets and recreates them for the
// next period window.
type BudgetRollover struct {
	repo    budgets.Repository
	service *budgets.Service
	logger  *slog.Logger
}

// NewBudgetRollover builds the rollover job.
func NewBudgetRollover(repo budgets.Repository, service *budgets.Service, logger *slog.Logger) *BudgetRollover {
	return &BudgetRollover{repo: repo, service: service, logger: logger}
}

// Handle processes TaskBudgetRollover tasks. Each budget rolls independently;
// one failure does not stop the sweep.
func (j *BudgetRollover) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	expired, err := j.repo.ListExpiredRecurring(ctx, payload.ScheduledFor)
	if err != nil {
		return err
	}
	rolled := 0
	for _, b := range expired {
		if err := j.rollOne(ctx, b); err != nil {
			j.logger.Warn("budget rollover failed",
				slog.Int64("budget_id", b.ID), slog.Any("error", err))
			continue
		}
		rolled++
	}
	j.logger.Info("budget rollover done",
		slog.Int("expired", len(expired)), slog.Int("rolled", rolled))
	return nil
}

func (j *BudgetRollover) rollOne(ctx context.Context, b budgets.Budget) error {
	startsOn, endsOn, err := shared.NextPeriodWindow(*b.Period, *b.EndsOn)
	if err != nil {
		return err
	}
	if _, err := j.service.Close(ctx, b.OwnerID, b.ID, budgets.CloseBudgetInput{
		Action: budgets.ActionNone,
	}); err != nil {
		return err
	}
	_, err = j.service.Create(ctx, b.OwnerID, budgets.CreateBudgetInput{
		Name:       b.Name,
		Amount:     b.Amount,
		Currency:   b.Currency,
		CategoryID: b.CategoryID,
		AccountID:  b.AccountID,
		Type:       string(b.Type),
		Period:     b.Period,
		StartsOn:   &startsOn,
		EndsOn:     &endsOn,
	})
	return err
}
