package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Overview is the owner dashboard payload.
type Overview struct {
	NetWorth          NetWorth         `json:"net_worth"`
	NetWorthDisplay   string           `json:"net_worth_display"`
	Budgets           []BudgetProgress `json:"budgets"`
	Goals             []GoalProgress   `json:"goals"`
	Tasks             TaskCounts       `json:"tasks"`
	FocusMinutesToday int64            `json:"focus_minutes_today"`
	GeneratedAt       time.Time        `json:"generated_at"`
}

// Service assembles the dashboard. Rebuilds are cached in Redis and collapsed
// with singleflight so a burst of dashboard loads hits the store once.
type Service struct {
	repo    Repository
	cache   *Cache
	logger  *slog.Logger
	printer *message.Printer
	group   singleflight.Group
	now     func() time.Time
}

// NewService builds Service. locale selects money formatting; an unknown tag
// falls back to English.
func NewService(repo Repository, cache *Cache, logger *slog.Logger, locale string) *Service {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Service{
		repo:    repo,
		cache:   cache,
		logger:  logger,
		printer: message.NewPrinter(tag),
		now:     time.Now,
	}
}

// Overview returns the cached dashboard for an owner, rebuilding on miss.
func (s *Service) Overview(ctx context.Context, ownerID int64) (*Overview, error) {
	key, err := s.cache.BuildKey(ctx, keyOverview(ownerID))
	if err != nil {
		return nil, fmt.Errorf("summary cache key: %w", err)
	}
	result := s.group.DoChan(key, func() (interface{}, error) {
		var out Overview
		err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
			return s.build(ctx, ownerID)
		})
		if err != nil {
			return nil, err
		}
		return &out, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Overview), nil
	}
}

func (s *Service) build(ctx context.Context, ownerID int64) (*Overview, error) {
	now := s.now()
	nw, err := s.repo.NetWorth(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("net worth: %w", err)
	}
	budgets, err := s.repo.BudgetProgress(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("budget progress: %w", err)
	}
	goals, err := s.repo.GoalProgress(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("goal progress: %w", err)
	}
	tasks, err := s.repo.TaskCounts(ctx, ownerID, now)
	if err != nil {
		return nil, fmt.Errorf("task counts: %w", err)
	}
	focusSeconds, err := s.repo.FocusSecondsOn(ctx, ownerID, now)
	if err != nil {
		return nil, fmt.Errorf("focus time: %w", err)
	}
	return &Overview{
		NetWorth:          nw,
		NetWorthDisplay:   s.FormatMoney(nw.Total),
		Budgets:           budgets,
		Goals:             goals,
		Tasks:             tasks,
		FocusMinutesToday: focusSeconds / 60,
		GeneratedAt:       now,
	}, nil
}

// FormatMoney renders an amount with locale-aware digit grouping.
func (s *Service) FormatMoney(v float64) string {
	return s.printer.Sprintf("%v", number.Decimal(v,
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// Invalidate bumps the cache version after a finance mutation. Failures are
// logged, not surfaced; the TTL bounds staleness anyway.
func (s *Service) Invalidate(ctx context.Context, ownerID int64) {
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("summary cache bump",
			slog.String("owner_id", strconv.FormatInt(ownerID, 10)), slog.Any("error", err))
	}
}
