package summary

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	calls int
}

func (f *fakeRepo) NetWorth(context.Context, int64) (NetWorth, error) {
	f.calls++
	return NetWorth{Assets: 5000, UsedCredit: 1200, Total: 3800}, nil
}

func (f *fakeRepo) BudgetProgress(context.Context, int64) ([]BudgetProgress, error) {
	return []BudgetProgress{{ID: 1, Name: "Groceries", Amount: 500, Spent: 200, Percent: 40}}, nil
}

func (f *fakeRepo) GoalProgress(context.Context, int64) ([]GoalProgress, error) {
	return nil, nil
}

func (f *fakeRepo) TaskCounts(context.Context, int64, time.Time) (TaskCounts, error) {
	return TaskCounts{Open: 3, Completed: 7}, nil
}

func (f *fakeRepo) FocusSecondsOn(context.Context, int64, time.Time) (int64, error) {
	return 1800, nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &fakeRepo{}
	return NewService(repo, NewCache(client, time.Minute), nil, "en"), repo
}

func TestOverviewBuildsAndCaches(t *testing.T) {
	svc, repo := newTestService(t)

	out, err := svc.Overview(context.Background(), 1)
	require.NoError(t, err)
	require.InDelta(t, 3800, out.NetWorth.Total, 1e-9)
	require.Equal(t, "3,800.00", out.NetWorthDisplay)
	require.Equal(t, int64(30), out.FocusMinutesToday)
	require.Len(t, out.Budgets, 1)
	require.Equal(t, 1, repo.calls)

	_, err = svc.Overview(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, repo.calls)
}

func TestInvalidateForcesRebuild(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.Overview(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, repo.calls)

	svc.Invalidate(context.Background(), 1)

	_, err = svc.Overview(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}

func TestFormatMoneyGroupsDigits(t *testing.T) {
	svc, _ := newTestService(t)
	require.Equal(t, "1,234,567.89", svc.FormatMoney(1234567.89))
	require.Equal(t, "0.00", svc.FormatMoney(0))
}
