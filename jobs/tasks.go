package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBudgetRollover closes expired recurring budgets and recreates them
	// for the next period window.
	TaskBudgetRollover = "budgets:rollover"
	// TaskReconcileSweep repairs credit fields across every credit-card
	// account.
	TaskReconcileSweep = "accounts:reconcile"
	// TaskOpeningBalance backfills opening-balance transactions for one
	// owner's accounts.
	TaskOpeningBalance = "accounts:opening_balance"
)

// SweepPayload carries scheduling metadata for the periodic sweeps.
type SweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// OpeningBalancePayload targets one owner's accounts.
type OpeningBalancePayload struct {
	OwnerID int64 `json:"owner_id"`
}

// NewBudgetRolloverTask constructs the rollover task.
func NewBudgetRolloverTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBudgetRollover, body, asynq.Queue(QueueDefault)), nil
}

// NewReconcileSweepTask constructs the reconcile sweep task.
func NewReconcileSweepTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcileSweep, body, asynq.Queue(QueueDefault)), nil
}

// NewOpeningBalanceTask constructs the opening-balance backfill task.
func NewOpeningBalanceTask(ownerID int64) (*asynq.Task, error) {
	body, err := json.Marshal(OpeningBalancePayload{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOpeningBalance, body, asynq.Queue(QueueDefault)), nil
}
