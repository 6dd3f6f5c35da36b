package transactions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-hq/meridian/internal/finance/accounts"
	"github.com/meridian-hq/meridian/internal/platform/httpx"
)

type memAccount struct {
	owner int64
	state AccountState
}

type memGoal struct {
	owner  int64
	amount float64
}

type memLoan struct {
	owner     int64
	remaining float64
	active    bool
}

type memBudget struct {
	owner  int64
	amount float64
	spent  float64
}

type memoryRepo struct {
	nextID   int64
	txns     map[int64]*Transaction
	accounts map[int64]*memAccount
	goals    map[int64]*memGoal
	loans    map[int64]*memLoan
	budgets  map[int64]*memBudget
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		nextID:   1,
		txns:     map[int64]*Transaction{},
		accounts: map[int64]*memAccount{},
		goals:    map[int64]*memGoal{},
		loans:    map[int64]*memLoan{},
		budgets:  map[int64]*memBudget{},
	}
}

func (m *memoryRepo) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *memoryRepo) addAccount(owner int64, typ accounts.AccountType, currency string, balance float64) int64 {
	id := m.id()
	m.accounts[id] = &memAccount{owner: owner, state: AccountState{
		ID: id, Type: typ, Currency: currency, CurrentBalance: balance,
	}}
	return id
}

func (m *memoryRepo) addCreditCard(owner int64, currency string, limit, used float64) int64 {
	id := m.id()
	available := limit - used
	m.accounts[id] = &memAccount{owner: owner, state: AccountState{
		ID: id, Type: accounts.AccountTypeCreditCard, Currency: currency,
		CreditLimit: &limit, UsedCredit: &used, AvailableCredit: &available,
	}}
	return id
}

func (m *memoryRepo) addGoal(owner int64, amount float64) int64 {
	id := m.id()
	m.goals[id] = &memGoal{owner: owner, amount: amount}
	return id
}

func (m *memoryRepo) addLoan(owner int64, remaining float64) int64 {
	id := m.id()
	m.loans[id] = &memLoan{owner: owner, remaining: remaining, active: true}
	return id
}

func (m *memoryRepo) addBudget(owner int64, amount float64) int64 {
	id := m.id()
	m.budgets[id] = &memBudget{owner: owner, amount: amount}
	return id
}

func (m *memoryRepo) Get(_ context.Context, ownerID, id int64) (*Transaction, error) {
	t, ok := m.txns[id]
	if !ok || t.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memoryRepo) GetByClientRequest(_ context.Context, ownerID int64, clientRequestID string) (*Transaction, error) {
	for _, t := range m.txns {
		if t.OwnerID == ownerID && t.ClientRequestID != nil && *t.ClientRequestID == clientRequestID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryRepo) List(_ context.Context, req ListTransactionsRequest) ([]Transaction, int64, error) {
	var out []Transaction
	for _, t := range m.txns {
		if t.OwnerID != req.OwnerID {
			continue
		}
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (m *memoryRepo) snapshot() *memoryRepo {
	s := newMemoryRepo()
	s.nextID = m.nextID
	for id, t := range m.txns {
		cp := *t
		s.txns[id] = &cp
	}
	for id, a := range m.accounts {
		cp := *a
		cp.state.CreditLimit = copyFloat(a.state.CreditLimit)
		cp.state.UsedCredit = copyFloat(a.state.UsedCredit)
		cp.state.AvailableCredit = copyFloat(a.state.AvailableCredit)
		s.accounts[id] = &cp
	}
	for id, g := range m.goals {
		cp := *g
		s.goals[id] = &cp
	}
	for id, l := range m.loans {
		cp := *l
		s.loans[id] = &cp
	}
	for id, b := range m.budgets {
		cp := *b
		s.budgets[id] = &cp
	}
	return s
}

func (m *memoryRepo) restore(s *memoryRepo) {
	m.nextID = s.nextID
	m.txns = s.txns
	m.accounts = s.accounts
	m.goals = s.goals
	m.loans = s.loans
	m.budgets = s.budgets
}

// WithTx snapshots state and restores it when fn fails, mimicking a rollback.
func (m *memoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	snap := m.snapshot()
	if err := fn(ctx, &memoryTx{repo: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) Insert(_ context.Context, txn Transaction) (int64, error) {
	if txn.ClientRequestID != nil {
		for _, existing := range t.repo.txns {
			if existing.OwnerID == txn.OwnerID && existing.ClientRequestID != nil &&
				*existing.ClientRequestID == *txn.ClientRequestID {
				return 0, ErrDuplicateRequest
			}
		}
	}
	id := t.repo.id()
	txn.ID = id
	t.repo.txns[id] = &txn
	return id, nil
}

func (t *memoryTx) GetByClientRequestID(ctx context.Context, ownerID int64, clientRequestID string) (*Transaction, error) {
	return t.repo.GetByClientRequest(ctx, ownerID, clientRequestID)
}

func (t *memoryTx) GetForUpdate(ctx context.Context, ownerID, id int64) (*Transaction, error) {
	return t.repo.Get(ctx, ownerID, id)
}

func (t *memoryTx) UpdateRow(_ context.Context, txn Transaction) error {
	cur, ok := t.repo.txns[txn.ID]
	if !ok || cur.OwnerID != txn.OwnerID {
		return ErrNotFound
	}
	*cur = txn
	return nil
}

func (t *memoryTx) DeleteRow(_ context.Context, ownerID, id int64) error {
	cur, ok := t.repo.txns[id]
	if !ok || cur.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(t.repo.txns, id)
	return nil
}

func (t *memoryTx) ReplaceTags(_ context.Context, transactionID int64, tags []string) error {
	if cur, ok := t.repo.txns[transactionID]; ok {
		cur.Tags = tags
	}
	return nil
}

func (t *memoryTx) GetAccountForUpdate(_ context.Context, ownerID, id int64) (*AccountState, error) {
	a, ok := t.repo.accounts[id]
	if !ok || a.owner != ownerID {
		return nil, ErrAccountNotFound
	}
	cp := a.state
	return &cp, nil
}

func (t *memoryTx) SaveAccountBalance(_ context.Context, id int64, balance float64) error {
	t.repo.accounts[id].state.CurrentBalance = balance
	return nil
}

func (t *memoryTx) SaveAccountCredit(_ context.Context, id int64, used, available float64) error {
	a := t.repo.accounts[id]
	a.state.UsedCredit = &used
	a.state.AvailableCredit = &available
	return nil
}

func (t *memoryTx) RecomputeBudgetSpent(_ context.Context, ownerID, budgetID int64) (float64, error) {
	b, ok := t.repo.budgets[budgetID]
	if !ok || b.owner != ownerID {
		return 0, ErrBudgetNotFound
	}
	var spent float64
	for _, txn := range t.repo.txns {
		if txn.OwnerID != ownerID || txn.BudgetID == nil || *txn.BudgetID != budgetID {
			continue
		}
		if txn.Type == TypeIncome {
			spent -= txn.Amount
		} else {
			spent += txn.Amount
		}
	}
	if spent < 0 {
		spent = 0
	}
	b.spent = spent
	return spent, nil
}

func (t *memoryTx) CreditGoal(_ context.Context, ownerID, goalID int64, amount float64) error {
	g, ok := t.repo.goals[goalID]
	if !ok || g.owner != ownerID {
		return ErrGoalNotFound
	}
	g.amount += amount
	return nil
}

func (t *memoryTx) GetLoanForUpdate(_ context.Context, ownerID, id int64) (*LoanState, error) {
	l, ok := t.repo.loans[id]
	if !ok || l.owner != ownerID {
		return nil, ErrLoanNotFound
	}
	return &LoanState{ID: id, Remaining: l.remaining, IsActive: l.active}, nil
}

func (t *memoryTx) SaveLoan(_ context.Context, id int64, remaining float64, active bool) error {
	l := t.repo.loans[id]
	l.remaining = remaining
	l.active = active
	return nil
}

func strptr(s string) *string { return &s }

func idptr(v int64) *int64 { return &v }

func TestRecordDoubleSubmitIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	accID := repo.addAccount(1, accounts.AccountTypeBank, "USD", 1000)
	svc := NewService(repo, nil, nil)

	in := CreateTransactionInput{
		Type:            string(TypeExpense),
		Amount:          50,
		Currency:        "USD",
		AccountID:       idptr(accID),
		ClientRequestID: strptr("req-abc"),
	}

	first, created, err := svc.Record(context.Background(), 1, in)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := svc.Record(context.Background(), 1, in)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)

	require.InDelta(t, 950, repo.accounts[accID].state.CurrentBalance, 1e-9)
	require.Len(t, repo.txns, 1)
}

func TestRecordExpenseUpdatesBalanceAndBudget(t *testing.T) {
	repo := newMemoryRepo()
	accID := repo.addAccount(1, accounts.AccountTypeBank, "USD", 300)
	budgetID := repo.addBudget(1, 200)
	svc := NewService(repo, nil, nil)

	_, created, err := svc.Record(context.Background(), 1, CreateTransactionInput{
		Type:      string(TypeExpense),
		Amount:    80,
		Currency:  "USD",
		AccountID: idptr(accID),
		BudgetID:  idptr(budgetID),
	})
	require.NoError(t, err)
	require.True(t, created)
	require.InDelta(t, 220, repo.accounts[accID].state.CurrentBalance, 1e-9)
	require.InDelta(t, 80, repo.budgets[budgetID].spent, 1e-9)
}

func TestRecordIncomeIncrementsBalance(t *testing.T) {
	repo := newMemoryRepo()
	accID := repo.addAccount(1, accounts.AccountTypeBank, "USD", 100)
	svc := NewService(repo, nil, nil)

	_, _, err := svc.Record(context.Background(), 1, CreateTransactionInput{
		Type:      string(TypeIncome),
		Amount:    40,
		Currency:  "USD",
		AccountID: idptr(accID),
	})
	require.NoError(t, err)
	require.InDelta(t, 140, repo.accounts[accID].state.CurrentBalance, 1e-9)
}

func TestRecordTransferMovesFunds(t *testing.T) {
	repo := newMemoryRepo()
	srcID := repo.addAccount(1, accounts.AccountTypeBank, "USD", 500)
	dstID := repo.addAccount(1, accounts.AccountTypeEWallet, "USD", 20)
	svc := NewService(repo, nil, nil)

	_, _, err := svc.Record(context.Background(), 1, CreateTransactionInput{
		Type:        string(TypeTransfer),
		Amount:      120,
		Currency:    "USD",
		AccountID:   idptr(srcID),
		ToAccountID: idptr(dstID),
	})
	require.NoError(t, err)
	require.InDelta(t, 380, repo.accounts[srcID].state.CurrentBalance, 1e-9)
	require.InDelta(t, 140, repo.accounts[dstID].state.CurrentBalance, 1e-9)
}

func TestRecordTransferMissingDestinationRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	srcID := repo.addAccount(1, accounts.AccountTypeBank, "USD", 500)
	svc := NewService(repo, nil, nil)

	_, _, err := svc.Record(context.Background(), 1, CreateTransactionInput{
		Type:        string(TypeTransfer),
		Amount:      120,
		Currency:    "USD",
		AccountID:   idptr(srcID),
		ToAccountID: idptr(99),
	})
	require.ErrorIs(t, err, httpx.ErrNotFound)
	require.InDelta(t, 500, repo.accounts[srcID].state.CurrentBalance, 1e-9)
	require.Empty(t, repo.txns)
}

func TestRecordExpenseOnCreditCardRaisesUsedCredit(t *testing.T) {
	repo := newMemoryRepo()
	cardID := repo.addCreditCard(1, "USD", 10000, 2000)
	svc := NewService(repo, nil, nil)

	_, _, err := svc.Record(context.Background(), 1, CreateTransactionInput{
		Type:      string(TypeExpense),
		Amount:    500,
		Currency:  "USD",
		AccountID: idptr(cardID),
	})
	require.NoError(t, err)
	state := repo.accounts[cardID].state
	require.InDelta(t, 2500, *state.UsedCredit, 1e-9)
	require.InDelta(t, 7500, *state.AvailableCredit, 1e-9)
}

func TestRecordCreditCardPaymentClampsAtZero(t *testing.T) {
	repo := newMemoryRepo()
	cardID := repo.addCreditCard(1, "USD", 10000, 300)
	svc := NewService(repo, nil, nil)

	_, _, err := svc.Record(context.Background(), 1, CreateTransactionInput{
		Type:      string(TypeIncome),
		Amount:    500,
		Currency:  "USD",
		AccountID: idptr(cardID),
	})
	require.NoError(t, err)
	state := repo.accounts[cardID].state
	require.Zero(t, *state.UsedCredit)
	require.InDelta(t, 10000, *state.AvailableCredit, 1e-9)
}

func TestRecordSavingsCreditsGoal(t *testing.T) {
	repo := newMemoryRepo()
	accID := repo.addAccount(1, accounts.AccountTypeBank, "USD", 1000)
	goalID := repo.addGoal(1, 250)
	svc := NewService(repo, nil, nil)

	_, _, err := svc.Record(context.Background(), 1, CreateTransactionInput{
		Type:      string(TypeSavings),
		Amount:    100,
		Currency:  "USD",
		AccountID: idptr(accID),
		GoalID:    idptr(goalID),
	})
	require.NoError(t, err)
	require.InDelta(t, 350, repo.goals[goalID].amount, 1e-9)
	require.InDelta(t, 900, repo.accounts[accID].state.CurrentBalance, 1e-9)
}

func TestRecordLoanPaymentClampsAndDeactivates(t *testing.T) {
	repo := newMemoryRepo()
	accID := repo.addAccount(1, accounts.AccountTypeBank, "USD", 1000)
	loanID := repo.addLoan(1, 150)
	svc := NewService(repo, nil, nil)

	_, _, err := svc.Record(context.Background(), 1, CreateTransactionInput{
		Type:      string(TypeLoan),
		Amount:    200,
		Currency:  "USD",
		AccountID: idptr(accID),
		LoanID:    idptr(loanID),
	})
	require.NoError(t, err)
	require.Zero(t, repo.loans[loanID].remaining)
	require.False(t, repo.loans[loanID].active)
}

func TestRecordRejectsCurrencyMismatch(t *testing.T) {
	repo := newMemoryRepo()
	accID := repo.addAccount(1, accounts.AccountTypeBank, "EUR", 1000)
	svc := NewService(repo, nil, nil)

	_, _, err := svc.Record(context.Background(), 1, CreateTransactionInput{
		Type:      string(TypeExpense),
		Amount:    10,
		Currency:  "USD",
		AccountID: idptr(accID),
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Empty(t, repo.txns)
}

func TestRecordRejectsUnknownType(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	_, _, err := svc.Record(context.Background(), 1, CreateTransactionInput{
		Type:      "gift",
		Amount:    10,
		Currency:  "USD",
		AccountID: idptr(1),
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRecordCashExpenseWithoutAccount(t *testing.T) {
	repo := newMemoryRepo()
	budgetID := repo.addBudget(1, 200)
	svc := NewService(repo, nil, nil)

	recorded, created, err := svc.Record(context.Background(), 1, CreateTransactionInput{
		Type:     string(TypeExpense),
		Amount:   30,
		Currency: "USD",
		BudgetID: idptr(budgetID),
	})
	require.NoError(t, err)
	require.True(t, created)
	require.Nil(t, recorded.AccountID)
	require.Equal(t, int64(1), recorded.CreatedBy)
	require.InDelta(t, 30, repo.budgets[budgetID].spent, 1e-9)
	require.Empty(t, repo.accounts)
}

func TestRecordTransferRequiresSourceAccount(t *testing.T) {
	repo := newMemoryRepo()
	dstID := repo.addAccount(1, accounts.AccountTypeBank, "USD", 100)
	svc := NewService(repo, nil, nil)

	_, _, err := svc.Record(context.Background(), 1, CreateTransactionInput{
		Type:        string(TypeTransfer),
		Amount:      50,
		Currency:    "USD",
		ToAccountID: idptr(dstID),
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Empty(t, repo.txns)
}

func TestDeleteReversesEffects(t *testing.T) {
	repo := newMemoryRepo()
	accID := repo.addAccount(1, accounts.AccountTypeBank, "USD", 500)
	budgetID := repo.addBudget(1, 300)
	svc := NewService(repo, nil, nil)

	recorded, _, err := svc.Record(context.Background(), 1, CreateTransactionInput{
		Type:      string(TypeExpense),
		Amount:    75,
		Currency:  "USD",
		AccountID: idptr(accID),
		BudgetID:  idptr(budgetID),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 1, recorded.ID))
	require.InDelta(t, 500, repo.accounts[accID].state.CurrentBalance, 1e-9)
	require.Zero(t, repo.budgets[budgetID].spent)
	require.Empty(t, repo.txns)
}

func TestUpdateAmountRecomputesBudget(t *testing.T) {
	repo := newMemoryRepo()
	accID := repo.addAccount(1, accounts.AccountTypeBank, "USD", 500)
	budgetID := repo.addBudget(1, 300)
	svc := NewService(repo, nil, nil)

	recorded, _, err := svc.Record(context.Background(), 1, CreateTransactionInput{
		Type:      string(TypeExpense),
		Amount:    75,
		Currency:  "USD",
		AccountID: idptr(accID),
		BudgetID:  idptr(budgetID),
	})
	require.NoError(t, err)

	newAmount := 120.0
	_, err = svc.Update(context.Background(), 1, recorded.ID, UpdateTransactionInput{Amount: &newAmount})
	require.NoError(t, err)
	require.InDelta(t, 380, repo.accounts[accID].state.CurrentBalance, 1e-9)
	require.InDelta(t, 120, repo.budgets[budgetID].spent, 1e-9)
}
