package budgets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

type goalRecord struct {
	ownerID int64
	amount  float64
	deleted bool
}

type memoryRepo struct {
	budgets map[int64]*Budget
	goals   map[int64]*goalRecord
	nextID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		budgets: map[int64]*Budget{},
		goals:   map[int64]*goalRecord{},
		nextID:  1,
	}
}

func (m *memoryRepo) addBudget(b Budget) int64 {
	id := m.nextID
	m.nextID++
	b.ID = id
	m.budgets[id] = &b
	return id
}

func (m *memoryRepo) addGoal(ownerID int64, amount float64) int64 {
	id := m.nextID
	m.nextID++
	m.goals[id] = &goalRecord{ownerID: ownerID, amount: amount}
	return id
}

func (m *memoryRepo) Get(_ context.Context, ownerID, id int64) (*Budget, error) {
	b, ok := m.budgets[id]
	if !ok || b.OwnerID != ownerID || b.DeletedAt != nil {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memoryRepo) List(_ context.Context, req ListBudgetsRequest) ([]Budget, int64, error) {
	var out []Budget
	for _, b := range m.budgets {
		if b.OwnerID != req.OwnerID || b.DeletedAt != nil {
			continue
		}
		if req.ActiveOnly && !b.IsActive {
			continue
		}
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (m *memoryRepo) Create(_ context.Context, b Budget) (int64, error) {
	return m.addBudget(b), nil
}

func (m *memoryRepo) Update(_ context.Context, b Budget) error {
	cur, ok := m.budgets[b.ID]
	if !ok || cur.OwnerID != b.OwnerID || cur.DeletedAt != nil {
		return ErrNotFound
	}
	cur.Name, cur.Amount = b.Name, b.Amount
	cur.CategoryID, cur.AccountID, cur.EndsOn = b.CategoryID, b.AccountID, b.EndsOn
	return nil
}

func (m *memoryRepo) ListExpiredRecurring(_ context.Context, asOf time.Time) ([]Budget, error) {
	var out []Budget
	for _, b := range m.budgets {
		if b.IsActive && b.DeletedAt == nil && b.Recurring() && b.EndsOn != nil && b.EndsOn.Before(asOf) {
			out = append(out, *b)
		}
	}
	return out, nil
}

// WithTx snapshots state and restores it when fn fails, mimicking a rollback.
func (m *memoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	budgets := make(map[int64]*Budget, len(m.budgets))
	for id, b := range m.budgets {
		cp := *b
		budgets[id] = &cp
	}
	goals := make(map[int64]*goalRecord, len(m.goals))
	for id, g := range m.goals {
		cp := *g
		goals[id] = &cp
	}
	nextID := m.nextID

	if err := fn(ctx, &memoryTx{repo: m}); err != nil {
		m.budgets, m.goals, m.nextID = budgets, goals, nextID
		return err
	}
	return nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) GetForUpdate(ctx context.Context, ownerID, id int64) (*Budget, error) {
	return t.repo.Get(ctx, ownerID, id)
}

func (t *memoryTx) SetInactive(_ context.Context, ownerID, id int64) error {
	b, ok := t.repo.budgets[id]
	if !ok || b.OwnerID != ownerID || b.DeletedAt != nil {
		return ErrNotFound
	}
	b.IsActive = false
	return nil
}

func (t *memoryTx) SoftDelete(_ context.Context, ownerID, id int64) error {
	b, ok := t.repo.budgets[id]
	if !ok || b.OwnerID != ownerID || b.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now()
	b.DeletedAt = &now
	b.IsActive = false
	return nil
}

func (t *memoryTx) AddAmount(_ context.Context, ownerID, id int64, delta float64) error {
	b, ok := t.repo.budgets[id]
	if !ok || b.OwnerID != ownerID || b.DeletedAt != nil {
		return ErrNotFound
	}
	b.Amount += delta
	return nil
}

func (t *memoryTx) CreditGoal(_ context.Context, ownerID, goalID int64, amount float64) error {
	g, ok := t.repo.goals[goalID]
	if !ok || g.ownerID != ownerID || g.deleted {
		return ErrGoalNotFound
	}
	g.amount += amount
	return nil
}

func (t *memoryTx) CreateBudget(_ context.Context, b Budget) (int64, error) {
	return t.repo.addBudget(b), nil
}

func activeBudget(ownerID int64, amount, spent float64) Budget {
	return Budget{
		OwnerID:      ownerID,
		Name:         "Groceries",
		Amount:       amount,
		CurrentSpent: spent,
		Currency:     "USD",
		Type:         BudgetTypeSpending,
		IsActive:     true,
	}
}

func ptr(v int64) *int64 { return &v }

func TestCloseReallocatesRemainderToBudget(t *testing.T) {
	repo := newMemoryRepo()
	srcID := repo.addBudget(activeBudget(1, 500, 200))
	dstID := repo.addBudget(activeBudget(1, 100, 0))
	svc := NewService(repo, nil, nil)

	b, err := svc.Close(context.Background(), 1, srcID, CloseBudgetInput{
		Action:         ActionReallocateBudget,
		TargetBudgetID: ptr(dstID),
	})
	require.NoError(t, err)
	require.False(t, b.IsActive)
	require.InDelta(t, 400, repo.budgets[dstID].Amount, 1e-9)
}

func TestCloseAddsRemainderToSavingsGoal(t *testing.T) {
	repo := newMemoryRepo()
	srcID := repo.addBudget(activeBudget(1, 500, 200))
	goalID := repo.addGoal(1, 50)
	svc := NewService(repo, nil, nil)

	_, err := svc.Close(context.Background(), 1, srcID, CloseBudgetInput{
		Action:       ActionAddToSavingsGoal,
		TargetGoalID: ptr(goalID),
	})
	require.NoError(t, err)
	require.InDelta(t, 350, repo.goals[goalID].amount, 1e-9)
	require.False(t, repo.budgets[srcID].IsActive)
}

func TestCloseOverspentBudgetCreditsNothing(t *testing.T) {
	repo := newMemoryRepo()
	srcID := repo.addBudget(activeBudget(1, 500, 650))
	goalID := repo.addGoal(1, 50)
	svc := NewService(repo, nil, nil)

	_, err := svc.Close(context.Background(), 1, srcID, CloseBudgetInput{
		Action:       ActionAddToSavingsGoal,
		TargetGoalID: ptr(goalID),
	})
	require.NoError(t, err)
	require.InDelta(t, 50, repo.goals[goalID].amount, 1e-9)
	require.False(t, repo.budgets[srcID].IsActive)
}

func TestCloseRejectsInactiveBudget(t *testing.T) {
	repo := newMemoryRepo()
	b := activeBudget(1, 500, 0)
	b.IsActive = false
	id := repo.addBudget(b)
	svc := NewService(repo, nil, nil)

	_, err := svc.Close(context.Background(), 1, id, CloseBudgetInput{Action: ActionNone})
	require.ErrorIs(t, err, httpx.ErrInvalidState)
}

func TestCloseRejectsSameTargetBudget(t *testing.T) {
	repo := newMemoryRepo()
	id := repo.addBudget(activeBudget(1, 500, 0))
	svc := NewService(repo, nil, nil)

	_, err := svc.Close(context.Background(), 1, id, CloseBudgetInput{
		Action:         ActionReallocateBudget,
		TargetBudgetID: ptr(id),
	})
	require.ErrorIs(t, err, httpx.ErrInvalidArgument)
	require.True(t, repo.budgets[id].IsActive)
}

func TestCloseMissingGoalRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	id := repo.addBudget(activeBudget(1, 500, 200))
	svc := NewService(repo, nil, nil)

	_, err := svc.Close(context.Background(), 1, id, CloseBudgetInput{
		Action:       ActionAddToSavingsGoal,
		TargetGoalID: ptr(int64(99)),
	})
	require.ErrorIs(t, err, httpx.ErrNotFound)
	require.True(t, repo.budgets[id].IsActive)
}

func TestCloseCrossTenantTargetIsNotFound(t *testing.T) {
	repo := newMemoryRepo()
	srcID := repo.addBudget(activeBudget(1, 500, 200))
	otherID := repo.addBudget(activeBudget(2, 100, 0))
	svc := NewService(repo, nil, nil)

	_, err := svc.Close(context.Background(), 1, srcID, CloseBudgetInput{
		Action:         ActionReallocateBudget,
		TargetBudgetID: ptr(otherID),
	})
	require.ErrorIs(t, err, httpx.ErrNotFound)
	require.True(t, repo.budgets[srcID].IsActive)
	require.InDelta(t, 100, repo.budgets[otherID].Amount, 1e-9)
}

func TestDeleteCreatesSuccessorBudget(t *testing.T) {
	repo := newMemoryRepo()
	src := activeBudget(1, 500, 120)
	src.Type = BudgetTypeSaved
	id := repo.addBudget(src)
	svc := NewService(repo, nil, nil)

	err := svc.Delete(context.Background(), 1, id, DeleteBudgetInput{
		Action:    ActionCreateBudget,
		NewBudget: &NewBudgetSpec{Name: "Next month"},
	})
	require.NoError(t, err)
	require.NotNil(t, repo.budgets[id].DeletedAt)

	var successor *Budget
	for _, b := range repo.budgets {
		if b.ID != id {
			successor = b
		}
	}
	require.NotNil(t, successor)
	require.Equal(t, "Next month", successor.Name)
	require.InDelta(t, 380, successor.Amount, 1e-9)
	require.Equal(t, "USD", successor.Currency)
	require.Equal(t, BudgetTypeSpending, successor.Type)
	require.True(t, successor.IsActive)
	require.Zero(t, successor.CurrentSpent)
}

func TestDeleteWithNoActionDiscardsRemainder(t *testing.T) {
	repo := newMemoryRepo()
	id := repo.addBudget(activeBudget(1, 500, 120))
	svc := NewService(repo, nil, nil)

	err := svc.Delete(context.Background(), 1, id, DeleteBudgetInput{Action: ActionNone})
	require.NoError(t, err)
	require.NotNil(t, repo.budgets[id].DeletedAt)
	require.Len(t, repo.budgets, 1)
}

func TestDeleteRequiresNameForCreateBudget(t *testing.T) {
	repo := newMemoryRepo()
	id := repo.addBudget(activeBudget(1, 500, 120))
	svc := NewService(repo, nil, nil)

	err := svc.Delete(context.Background(), 1, id, DeleteBudgetInput{Action: ActionCreateBudget})
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Nil(t, repo.budgets[id].DeletedAt)
}

func TestDeleteAllowsClosedBudget(t *testing.T) {
	repo := newMemoryRepo()
	b := activeBudget(1, 500, 200)
	b.IsActive = false
	id := repo.addBudget(b)
	goalID := repo.addGoal(1, 0)
	svc := NewService(repo, nil, nil)

	err := svc.Delete(context.Background(), 1, id, DeleteBudgetInput{
		Action:       ActionAddToSavingsGoal,
		TargetGoalID: ptr(goalID),
	})
	require.NoError(t, err)
	require.NotNil(t, repo.budgets[id].DeletedAt)
	require.InDelta(t, 300, repo.goals[goalID].amount, 1e-9)
}
