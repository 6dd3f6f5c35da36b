package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	accounts map[int64]*Account
	opening  map[int64]bool
	nextID   int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: make(map[int64]*Account), opening: make(map[int64]bool)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, ownerID, id int64) (*Account, error) {
	a, ok := r.accounts[id]
	if !ok || a.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *memoryRepo) List(ctx context.Context, ownerID int64) ([]Account, error) {
	var out []Account
	for _, a := range r.accounts {
		if a.OwnerID == ownerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memoryRepo) Create(ctx context.Context, a Account) (int64, error) {
	r.nextID++
	a.ID = r.nextID
	a.CreatedAt = time.Now()
	r.accounts[a.ID] = &a
	return a.ID, nil
}

func (r *memoryRepo) Update(ctx context.Context, ownerID, id int64, in UpdateAccountInput) error {
	a, ok := r.accounts[id]
	if !ok || a.OwnerID != ownerID {
		return ErrNotFound
	}
	if in.Name != nil {
		a.Name = *in.Name
	}
	if in.CreditLimit != nil {
		limit := *in.CreditLimit
		a.CreditLimit = &limit
	}
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, ownerID, id int64) error {
	a, ok := r.accounts[id]
	if !ok || a.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(r.accounts, id)
	return nil
}

func (r *memoryRepo) ListCreditCardRefs(ctx context.Context) ([]CreditCardRef, error) {
	var refs []CreditCardRef
	for id, a := range r.accounts {
		if a.IsCreditCard() {
			refs = append(refs, CreditCardRef{OwnerID: a.OwnerID, ID: id})
		}
	}
	return refs, nil
}

func (tx *memoryTx) GetForUpdate(ctx context.Context, ownerID, id int64) (*Account, error) {
	return tx.repo.Get(ctx, ownerID, id)
}

func (tx *memoryTx) SaveCredit(ctx context.Context, id int64, used, available float64) error {
	a := tx.repo.accounts[id]
	a.UsedCredit = &used
	a.AvailableCredit = &available
	return nil
}

func (tx *memoryTx) HasOpeningBalance(ctx context.Context, ownerID, accountID int64) (bool, error) {
	return tx.repo.opening[accountID], nil
}

func (tx *memoryTx) InsertOpeningBalance(ctx context.Context, a *Account) error {
	tx.repo.opening[a.ID] = true
	return nil
}

func f(v float64) *float64 { return &v }

func TestReconcileClampsCorruptedUsedCredit(t *testing.T) {
	repo := newMemoryRepo()
	repo.accounts[1] = &Account{
		ID: 1, OwnerID: 7, Type: AccountTypeCreditCard, Currency: "EUR",
		CreditLimit: f(10000), UsedCredit: f(12000), AvailableCredit: f(3000),
	}
	svc := NewService(repo, nil, nil)

	a, err := svc.ReconcileCreditCard(context.Background(), 7, 1)
	require.NoError(t, err)
	require.Equal(t, 10000.0, *a.UsedCredit)
	require.Equal(t, 0.0, *a.AvailableCredit)
}

func TestReconcileRestoresFullLimitWhenUnused(t *testing.T) {
	repo := newMemoryRepo()
	repo.accounts[1] = &Account{
		ID: 1, OwnerID: 7, Type: AccountTypeCreditCard, Currency: "EUR",
		CreditLimit: f(5000), UsedCredit: f(-250), AvailableCredit: f(100),
	}
	svc := NewService(repo, nil, nil)

	a, err := svc.ReconcileCreditCard(context.Background(), 7, 1)
	require.NoError(t, err)
	require.Equal(t, 0.0, *a.UsedCredit)
	require.Equal(t, 5000.0, *a.AvailableCredit)
}

func TestReconcilePreservesConsistentSplit(t *testing.T) {
	repo := newMemoryRepo()
	repo.accounts[1] = &Account{
		ID: 1, OwnerID: 7, Type: AccountTypeCreditCard, Currency: "EUR",
		CreditLimit: f(10000), UsedCredit: f(4000), AvailableCredit: f(6000),
	}
	svc := NewService(repo, nil, nil)

	a, err := svc.ReconcileCreditCard(context.Background(), 7, 1)
	require.NoError(t, err)
	require.Equal(t, 4000.0, *a.UsedCredit)
	require.Equal(t, 6000.0, *a.AvailableCredit)
	require.Equal(t, *a.CreditLimit, *a.UsedCredit+*a.AvailableCredit)
}

func TestReconcileNoopForBankAccount(t *testing.T) {
	repo := newMemoryRepo()
	repo.accounts[1] = &Account{ID: 1, OwnerID: 7, Type: AccountTypeBank, Currency: "EUR", CurrentBalance: 320}
	svc := NewService(repo, nil, nil)

	a, err := svc.ReconcileCreditCard(context.Background(), 7, 1)
	require.NoError(t, err)
	require.Nil(t, a.UsedCredit)
	require.Equal(t, 320.0, a.CurrentBalance)
}

func TestReconcileCrossTenantIsNotFound(t *testing.T) {
	repo := newMemoryRepo()
	repo.accounts[1] = &Account{ID: 1, OwnerID: 7, Type: AccountTypeCreditCard, CreditLimit: f(100)}
	svc := NewService(repo, nil, nil)

	_, err := svc.ReconcileCreditCard(context.Background(), 8, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureOpeningBalanceIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	repo.accounts[1] = &Account{ID: 1, OwnerID: 7, Type: AccountTypeBank, Currency: "EUR", StartingBalance: 1500}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	created, err := svc.EnsureOpeningBalance(ctx, 7, 1)
	require.NoError(t, err)
	require.True(t, created)

	created, err = svc.EnsureOpeningBalance(ctx, 7, 1)
	require.NoError(t, err)
	require.False(t, created)
}

func TestEnsureOpeningBalanceSkipsCreditCards(t *testing.T) {
	repo := newMemoryRepo()
	repo.accounts[1] = &Account{ID: 1, OwnerID: 7, Type: AccountTypeCreditCard, CreditLimit: f(100)}
	svc := NewService(repo, nil, nil)

	created, err := svc.EnsureOpeningBalance(context.Background(), 7, 1)
	require.NoError(t, err)
	require.False(t, created)
}

func TestCreateCreditCardStartsFullyAvailable(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	a, err := svc.Create(context.Background(), 7, CreateAccountInput{
		Name: "Visa", Type: "credit-card", Currency: "EUR", CreditLimit: f(8000),
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, *a.UsedCredit)
	require.Equal(t, 8000.0, *a.AvailableCredit)
}

func TestCreateRejectsCreditCardWithoutLimit(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Create(context.Background(), 7, CreateAccountInput{
		Name: "Visa", Type: "credit-card", Currency: "EUR",
	})
	require.Error(t, err)
}
