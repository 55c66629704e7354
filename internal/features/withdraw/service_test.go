package withdraw

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meritspace.ru/merit-bot/internal/common"
	"meritspace.ru/merit-bot/internal/features/ledger"
	"meritspace.ru/merit-bot/internal/features/publication"
)

type fakeStore struct {
	lastMethod string
	lastTx     *ledger.Transaction
	err        error
}

func (f *fakeStore) capture(method string, t *ledger.Transaction) error {
	if f.err != nil {
		return f.err
	}
	f.lastMethod = method
	f.lastTx = t
	return nil
}

func (f *fakeStore) WithdrawFromPublication(ctx context.Context, t *ledger.Transaction) error {
	return f.capture("WithdrawFromPublication", t)
}

func (f *fakeStore) WithdrawFromTransaction(ctx context.Context, t *ledger.Transaction) error {
	return f.capture("WithdrawFromTransaction", t)
}

func (f *fakeStore) TopUpPublication(ctx context.Context, t *ledger.Transaction) error {
	return f.capture("TopUpPublication", t)
}

func (f *fakeStore) TopUpTransaction(ctx context.Context, t *ledger.Transaction) error {
	return f.capture("TopUpTransaction", t)
}

type fakePubs struct {
	byID map[int64]*publication.Publication
}

func (f *fakePubs) GetByID(ctx context.Context, id int64) (*publication.Publication, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, common.ErrTargetNotFound
	}
	return p, nil
}

type fakeLedgerReader struct {
	byID map[int64]*ledger.Transaction
}

func (f *fakeLedgerReader) GetByID(ctx context.Context, id int64) (*ledger.Transaction, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, common.ErrTargetNotFound
	}
	return t, nil
}

const (
	authorID      = int64(100)
	beneficiaryID = int64(150)
	strangerID    = int64(200)
	voterID       = int64(300)
	spaceID       = int64(7)
)

func newWithdrawService(store *fakeStore) *Service {
	beneficiary := beneficiaryID
	recipient := authorID
	pubs := map[int64]*publication.Publication{
		1: {ID: 1, AuthorID: authorID, SpaceID: spaceID, Status: publication.StatusApproved},
		2: {ID: 2, AuthorID: authorID, BeneficiaryID: &beneficiary, SpaceID: spaceID, Status: publication.StatusApproved},
	}
	pubID := int64(1)
	// Голос 50: voterID проголосовал за публикацию authorID
	txs := map[int64]*ledger.Transaction{
		50: {ID: 50, TxType: ledger.TxTypeVote, FromUserID: voterID, ToUserID: &recipient,
			ForPublicationID: &pubID, CurrencySpaceID: spaceID},
	}
	return NewService(store, &fakePubs{byID: pubs}, &fakeLedgerReader{byID: txs})
}

func TestFromPublicationAuthorization(t *testing.T) {
	t.Run("автор может выводить", func(t *testing.T) {
		store := &fakeStore{}
		svc := newWithdrawService(store)

		require.NoError(t, svc.FromPublication(context.Background(), authorID, 1, 10, false, ""))
		assert.Equal(t, "WithdrawFromPublication", store.lastMethod)
	})

	t.Run("бенефициар может выводить", func(t *testing.T) {
		store := &fakeStore{}
		svc := newWithdrawService(store)

		require.NoError(t, svc.FromPublication(context.Background(), beneficiaryID, 2, 10, false, ""))
		assert.Equal(t, "WithdrawFromPublication", store.lastMethod)
	})

	t.Run("посторонний не может", func(t *testing.T) {
		svc := newWithdrawService(&fakeStore{})
		err := svc.FromPublication(context.Background(), strangerID, 1, 10, false, "")
		assert.ErrorIs(t, err, common.ErrNotAuthorized)
	})

	t.Run("нулевая сумма", func(t *testing.T) {
		svc := newWithdrawService(&fakeStore{})
		err := svc.FromPublication(context.Background(), authorID, 1, 0, false, "")
		assert.ErrorIs(t, err, common.ErrInvalidAmount)
	})

	t.Run("несуществующая публикация", func(t *testing.T) {
		svc := newWithdrawService(&fakeStore{})
		err := svc.FromPublication(context.Background(), authorID, 999, 10, false, "")
		assert.ErrorIs(t, err, common.ErrTargetNotFound)
	})
}

func TestFromPublicationLedgerRecord(t *testing.T) {
	t.Run("вывод — минус-запись", func(t *testing.T) {
		store := &fakeStore{}
		svc := newWithdrawService(store)

		require.NoError(t, svc.FromPublication(context.Background(), authorID, 1, 25, false, "на кошелёк"))

		tx := store.lastTx
		require.NotNil(t, tx)
		assert.Equal(t, ledger.TxTypeWithdraw, tx.TxType)
		assert.False(t, tx.DirectionPlus)
		assert.Equal(t, authorID, tx.FromUserID)
		require.NotNil(t, tx.ForPublicationID)
		assert.Equal(t, int64(1), *tx.ForPublicationID)
		assert.Equal(t, spaceID, tx.CurrencySpaceID)
		assert.True(t, tx.Amount.Equal(decimal.NewFromInt(25)))
	})

	t.Run("пополнение — плюс-запись", func(t *testing.T) {
		store := &fakeStore{}
		svc := newWithdrawService(store)

		require.NoError(t, svc.FromPublication(context.Background(), authorID, 1, 5, true, ""))

		tx := store.lastTx
		require.NotNil(t, tx)
		assert.Equal(t, "TopUpPublication", store.lastMethod)
		assert.Equal(t, ledger.TxTypeTopUp, tx.TxType)
		assert.True(t, tx.DirectionPlus)
	})
}

func TestFromTransaction(t *testing.T) {
	t.Run("автор голоса может выводить", func(t *testing.T) {
		store := &fakeStore{}
		svc := newWithdrawService(store)

		require.NoError(t, svc.FromTransaction(context.Background(), voterID, 50, 3, false, ""))
		assert.Equal(t, "WithdrawFromTransaction", store.lastMethod)

		tx := store.lastTx
		require.NotNil(t, tx.ForTransactionID)
		assert.Equal(t, int64(50), *tx.ForTransactionID)
		assert.Equal(t, spaceID, tx.CurrencySpaceID)
	})

	t.Run("автор публикации не распоряжается чужим голосом", func(t *testing.T) {
		// Вложенные голоса зачисляются автору голоса-цели, поэтому
		// получатель исходного голоса выводить с него не может
		svc := newWithdrawService(&fakeStore{})
		err := svc.FromTransaction(context.Background(), authorID, 50, 3, false, "")
		assert.ErrorIs(t, err, common.ErrNotAuthorized)
	})

	t.Run("посторонний не может", func(t *testing.T) {
		svc := newWithdrawService(&fakeStore{})
		err := svc.FromTransaction(context.Background(), strangerID, 50, 3, false, "")
		assert.ErrorIs(t, err, common.ErrNotAuthorized)
	})

	t.Run("пополнение голоса", func(t *testing.T) {
		store := &fakeStore{}
		svc := newWithdrawService(store)

		require.NoError(t, svc.FromTransaction(context.Background(), voterID, 50, 3, true, ""))
		assert.Equal(t, "TopUpTransaction", store.lastMethod)
		assert.Equal(t, ledger.TxTypeTopUp, store.lastTx.TxType)
	})
}

func TestFromPublicationInsufficientBalance(t *testing.T) {
	store := &fakeStore{err: common.ErrInsufficientBalance}
	svc := newWithdrawService(store)

	err := svc.FromPublication(context.Background(), authorID, 1, 1000, false, "")
	assert.ErrorIs(t, err, common.ErrInsufficientBalance)
}

// lockingStore воспроизводит контракт репозитория: проверка остатка и
// списание атомарны (в БД это FOR UPDATE + переагрегация в одной
// транзакции, здесь — мьютекс).
type lockingStore struct {
	fakeStore
	mu        sync.Mutex
	available decimal.Decimal
	withdrawn decimal.Decimal
}

func (f *lockingStore) WithdrawFromPublication(ctx context.Context, t *ledger.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.Amount.GreaterThan(f.available) {
		return common.ErrInsufficientBalance
	}
	f.available = f.available.Sub(t.Amount)
	f.withdrawn = f.withdrawn.Add(t.Amount)
	return nil
}

func TestConcurrentWithdrawalsNeverExceedBalance(t *testing.T) {
	store := &lockingStore{available: decimal.NewFromInt(10)}
	pubs := map[int64]*publication.Publication{
		1: {ID: 1, AuthorID: authorID, SpaceID: spaceID, Status: publication.StatusApproved},
	}
	svc := NewService(store, &fakePubs{byID: pubs}, &fakeLedgerReader{})

	const workers = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.FromPublication(context.Background(), authorID, 1, 3, false, "")
			switch {
			case err == nil:
				successes.Add(1)
			default:
				assert.ErrorIs(t, err, common.ErrInsufficientBalance)
			}
		}()
	}
	wg.Wait()

	// На балансе 10: по 3 за вывод укладываются ровно три вывода
	assert.Equal(t, int64(3), successes.Load())
	assert.True(t, store.withdrawn.Equal(decimal.NewFromInt(9)), "выведено %s", store.withdrawn)
	assert.True(t, store.withdrawn.LessThanOrEqual(decimal.NewFromInt(10)))
}
