package tasks

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

type memoryRepo struct {
	nextID  int64
	tasks   map[int64]*Task
	columns map[int64]int64 // column id -> board id
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, tasks: map[int64]*Task{}, columns: map[int64]int64{}}
}

func (m *memoryRepo) addColumn(boardID int64) int64 {
	id := m.nextID
	m.nextID++
	m.columns[id] = boardID
	return id
}

func (m *memoryRepo) addTask(owner, boardID, columnID int64, position int) int64 {
	id := m.nextID
	m.nextID++
	m.tasks[id] = &Task{
		ID: id, OwnerID: owner, BoardID: boardID, ColumnID: columnID,
		Title: "t", Priority: PriorityMedium, Position: position,
	}
	return id
}

func (m *memoryRepo) Get(_ context.Context, ownerID, id int64) (*Task, error) {
	t, ok := m.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memoryRepo) ListBoard(_ context.Context, ownerID, boardID int64) ([]Task, error) {
	var out []Task
	for _, t := range m.tasks {
		if t.OwnerID == ownerID && t.BoardID == boardID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memoryRepo) Create(_ context.Context, t Task) (int64, error) {
	id := m.nextID
	m.nextID++
	t.ID = id
	m.tasks[id] = &t
	return id, nil
}

func (m *memoryRepo) Update(_ context.Context, t Task) error {
	cur, ok := m.tasks[t.ID]
	if !ok || cur.OwnerID != t.OwnerID {
		return ErrNotFound
	}
	*cur = t
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, ownerID, id int64) error {
	cur, ok := m.tasks[id]
	if !ok || cur.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memoryRepo) NextPosition(_ context.Context, columnID int64) (int, error) {
	next := 0
	for _, t := range m.tasks {
		if t.ColumnID == columnID && t.Position >= next {
			next = t.Position + 1
		}
	}
	return next, nil
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: m})
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) GetForUpdate(ctx context.Context, ownerID, id int64) (*Task, error) {
	return t.repo.Get(ctx, ownerID, id)
}

func (t *memoryTx) ColumnOnBoard(_ context.Context, columnID, boardID int64) (bool, error) {
	return t.repo.columns[columnID] == boardID, nil
}

func (t *memoryTx) ListColumnIDs(_ context.Context, ownerID, columnID int64) ([]int64, error) {
	var tasks []*Task
	for _, task := range t.repo.tasks {
		if task.OwnerID == ownerID && task.ColumnID == columnID {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Position != tasks[j].Position {
			return tasks[i].Position < tasks[j].Position
		}
		return tasks[i].ID < tasks[j].ID
	})
	ids := make([]int64, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids, nil
}

func (t *memoryTx) SetPlacement(_ context.Context, taskID, columnID int64, position int) error {
	task := t.repo.tasks[taskID]
	task.ColumnID = columnID
	task.Position = position
	return nil
}

func columnOrder(t *testing.T, repo *memoryRepo, columnID int64) []int64 {
	t.Helper()
	ids, err := (&memoryTx{repo: repo}).ListColumnIDs(context.Background(), 1, columnID)
	require.NoError(t, err)
	return ids
}

func TestMoveWithinColumnReindexes(t *testing.T) {
	repo := newMemoryRepo()
	colID := repo.addColumn(10)
	a := repo.addTask(1, 10, colID, 0)
	b := repo.addTask(1, 10, colID, 1)
	c := repo.addTask(1, 10, colID, 2)
	svc := NewService(repo)

	_, err := svc.Move(context.Background(), 1, c, MoveInput{ColumnID: colID, Index: 0})
	require.NoError(t, err)
	require.Equal(t, []int64{c, a, b}, columnOrder(t, repo, colID))
	require.Equal(t, 0, repo.tasks[c].Position)
	require.Equal(t, 1, repo.tasks[a].Position)
	require.Equal(t, 2, repo.tasks[b].Position)
}

func TestMoveAcrossColumnsReindexesBoth(t *testing.T) {
	repo := newMemoryRepo()
	src := repo.addColumn(10)
	dst := repo.addColumn(10)
	a := repo.addTask(1, 10, src, 0)
	b := repo.addTask(1, 10, src, 1)
	c := repo.addTask(1, 10, src, 2)
	d := repo.addTask(1, 10, dst, 0)
	svc := NewService(repo)

	_, err := svc.Move(context.Background(), 1, b, MoveInput{ColumnID: dst, Index: 1})
	require.NoError(t, err)

	require.Equal(t, []int64{a, c}, columnOrder(t, repo, src))
	require.Equal(t, []int64{d, b}, columnOrder(t, repo, dst))
	require.Equal(t, 0, repo.tasks[a].Position)
	require.Equal(t, 1, repo.tasks[c].Position)
	require.Equal(t, dst, repo.tasks[b].ColumnID)
}

func TestMoveClampsOutOfRangeIndex(t *testing.T) {
	repo := newMemoryRepo()
	src := repo.addColumn(10)
	dst := repo.addColumn(10)
	a := repo.addTask(1, 10, src, 0)
	d := repo.addTask(1, 10, dst, 0)
	svc := NewService(repo)

	_, err := svc.Move(context.Background(), 1, a, MoveInput{ColumnID: dst, Index: 99})
	require.NoError(t, err)
	require.Equal(t, []int64{d, a}, columnOrder(t, repo, dst))
}

func TestMoveRejectsColumnFromAnotherBoard(t *testing.T) {
	repo := newMemoryRepo()
	src := repo.addColumn(10)
	other := repo.addColumn(20)
	a := repo.addTask(1, 10, src, 0)
	svc := NewService(repo)

	_, err := svc.Move(context.Background(), 1, a, MoveInput{ColumnID: other, Index: 0})
	require.ErrorIs(t, err, httpx.ErrNotFound)
	require.Equal(t, src, repo.tasks[a].ColumnID)
}

func TestCompleteAndReopen(t *testing.T) {
	repo := newMemoryRepo()
	colID := repo.addColumn(10)
	a := repo.addTask(1, 10, colID, 0)
	svc := NewService(repo)

	done, err := svc.Complete(context.Background(), 1, a)
	require.NoError(t, err)
	require.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)

	open, err := svc.Reopen(context.Background(), 1, a)
	require.NoError(t, err)
	require.False(t, open.Completed)
	require.Nil(t, open.CompletedAt)
}

func TestCreateAppendsToColumnEnd(t *testing.T) {
	repo := newMemoryRepo()
	colID := repo.addColumn(10)
	repo.addTask(1, 10, colID, 0)
	repo.addTask(1, 10, colID, 1)
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), 1, CreateTaskInput{
		BoardID: 10, ColumnID: colID, Title: "new card",
	})
	require.NoError(t, err)
	require.Equal(t, 2, created.Position)
	require.Equal(t, PriorityMedium, created.Priority)
}
